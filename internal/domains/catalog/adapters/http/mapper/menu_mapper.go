package mapper

import (
	"github.com/shopspring/decimal"

	catalogtypes "github.com/Apurer/cafe-pos-server/internal/domains/catalog/application/types"
	"github.com/Apurer/cafe-pos-server/internal/domains/catalog/domain"
)

// Size is the transport shape of a size variant.
type Size struct {
	ID    int64           `json:"id,omitempty"`
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

// MenuItem is the transport shape of a menu item.
type MenuItem struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Status   string `json:"status,omitempty"`
	ImageRef string `json:"imageRef,omitempty"`
	Sizes    []Size `json:"sizes"`
}

// RecipeLine is one ingredient requirement on the wire.
type RecipeLine struct {
	IngredientID   int64           `json:"ingredientId"`
	QuantityNeeded decimal.Decimal `json:"quantityNeeded"`
}

// Recipe is the transport shape of a per-size recipe.
type Recipe struct {
	MenuItemID int64        `json:"menuItemId"`
	SizeID     int64        `json:"sizeId"`
	Lines      []RecipeLine `json:"lines"`
}

// ReplaceRecipeRequest is the body of PUT .../recipe.
type ReplaceRecipeRequest struct {
	Lines []RecipeLine `json:"lines"`
}

// ChangePriceRequest is the body of PATCH .../sizes/:sizeId.
type ChangePriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

func ToCreateMenuItemInput(item MenuItem) catalogtypes.CreateMenuItemInput {
	input := catalogtypes.CreateMenuItemInput{
		Name:     item.Name,
		Category: item.Category,
		Status:   item.Status,
		ImageRef: item.ImageRef,
		Sizes:    make([]catalogtypes.SizeInput, 0, len(item.Sizes)),
	}
	for _, size := range item.Sizes {
		input.Sizes = append(input.Sizes, catalogtypes.SizeInput{Label: size.Label, Price: size.Price})
	}
	return input
}

func ToReplaceRecipeInput(menuItemID, sizeID int64, req ReplaceRecipeRequest) catalogtypes.ReplaceRecipeInput {
	input := catalogtypes.ReplaceRecipeInput{
		MenuItemID: menuItemID,
		SizeID:     sizeID,
		Lines:      make([]catalogtypes.RecipeLineInput, 0, len(req.Lines)),
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, catalogtypes.RecipeLineInput{IngredientID: line.IngredientID, QuantityNeeded: line.QuantityNeeded})
	}
	return input
}

func FromDomainMenuItem(item *domain.MenuItem) MenuItem {
	if item == nil {
		return MenuItem{}
	}
	out := MenuItem{
		ID:       item.ID,
		Name:     item.Name,
		Category: string(item.Category),
		Status:   string(item.Status),
		ImageRef: item.ImageRef,
		Sizes:    make([]Size, 0, len(item.Sizes)),
	}
	for _, size := range item.Sizes {
		out.Sizes = append(out.Sizes, Size{ID: size.ID, Label: size.Label, Price: size.Price})
	}
	return out
}

func FromDomainMenu(items []*domain.MenuItem) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromDomainMenuItem(item))
	}
	return out
}

func FromDomainRecipe(recipe *domain.Recipe) Recipe {
	if recipe == nil {
		return Recipe{Lines: []RecipeLine{}}
	}
	out := Recipe{MenuItemID: recipe.MenuItemID, SizeID: recipe.SizeID, Lines: make([]RecipeLine, 0, len(recipe.Lines))}
	for _, line := range recipe.Lines {
		out.Lines = append(out.Lines, RecipeLine{IngredientID: line.IngredientID, QuantityNeeded: line.QuantityNeeded})
	}
	return out
}
