package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRecipeTarget = errors.New("recipe needs a menu item and a size")
	ErrInvalidRecipeLine   = errors.New("recipe line needs an ingredient and a positive quantity")
	ErrDuplicateIngredient = errors.New("ingredient appears more than once in recipe")
)

// RecipeLine is one ingredient consumed per unit sold.
type RecipeLine struct {
	IngredientID   int64
	QuantityNeeded decimal.Decimal
}

// Recipe maps exactly one (menu item, size) pair to the ingredients it consumes.
type Recipe struct {
	ID         int64
	MenuItemID int64
	SizeID     int64
	Lines      []RecipeLine
}

// NewRecipe validates a recipe. An empty line set is allowed and means nothing is deducted.
func NewRecipe(menuItemID, sizeID int64, lines []RecipeLine) (*Recipe, error) {
	if menuItemID <= 0 || sizeID <= 0 {
		return nil, ErrInvalidRecipeTarget
	}
	seen := make(map[int64]struct{}, len(lines))
	cleaned := make([]RecipeLine, 0, len(lines))
	for _, line := range lines {
		if line.IngredientID <= 0 || !line.QuantityNeeded.IsPositive() {
			return nil, ErrInvalidRecipeLine
		}
		if _, dup := seen[line.IngredientID]; dup {
			return nil, ErrDuplicateIngredient
		}
		seen[line.IngredientID] = struct{}{}
		cleaned = append(cleaned, line)
	}
	return &Recipe{MenuItemID: menuItemID, SizeID: sizeID, Lines: cleaned}, nil
}

// CloneLines returns a defensive copy of the recipe lines.
func (r *Recipe) CloneLines() []RecipeLine {
	if r == nil || len(r.Lines) == 0 {
		return []RecipeLine{}
	}
	out := make([]RecipeLine, len(r.Lines))
	copy(out, r.Lines)
	return out
}
