package types

import "github.com/shopspring/decimal"

// SizeInput describes one size of a new menu item.
type SizeInput struct {
	Label string
	Price decimal.Decimal
}

// CreateMenuItemInput carries the fields needed to add a menu item.
type CreateMenuItemInput struct {
	Name     string
	Category string
	Status   string
	ImageRef string
	Sizes    []SizeInput
}

// ChangeSizePriceInput reprices a single size.
type ChangeSizePriceInput struct {
	MenuItemID int64
	SizeID     int64
	Price      decimal.Decimal
}

// RecipeLineInput is one ingredient requirement of a recipe.
type RecipeLineInput struct {
	IngredientID   int64
	QuantityNeeded decimal.Decimal
}

// ReplaceRecipeInput fully replaces the recipe of a (menu item, size) pair.
type ReplaceRecipeInput struct {
	MenuItemID int64
	SizeID     int64
	Lines      []RecipeLineInput
}
