package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyName        = errors.New("ingredient name is required")
	ErrNegativeStock    = errors.New("ingredient stock cannot be negative")
	ErrNegativeAmount   = errors.New("stock amount cannot be negative")
	ErrInvalidThreshold = errors.New("ingredient threshold cannot be negative")
	ErrInvalidCost      = errors.New("package price and quantity per pack cannot be negative")
)

// Ingredient is a stocked raw material consumed by recipes.
type Ingredient struct {
	ID           int64
	Name         string
	Category     string
	Stock        decimal.Decimal
	Threshold    decimal.Decimal
	SupplierID   *int64
	UnitID       *int64
	PackagePrice decimal.Decimal
	QtyPerPack   decimal.Decimal
}

// NewIngredient validates and builds an ingredient.
func NewIngredient(name, category string, stock, threshold, packagePrice, qtyPerPack decimal.Decimal, supplierID, unitID *int64) (*Ingredient, error) {
	ing := &Ingredient{
		Name:         strings.TrimSpace(name),
		Category:     strings.TrimSpace(category),
		Stock:        stock,
		Threshold:    threshold,
		SupplierID:   supplierID,
		UnitID:       unitID,
		PackagePrice: packagePrice,
		QtyPerPack:   qtyPerPack,
	}
	if err := ing.Validate(); err != nil {
		return nil, err
	}
	return ing, nil
}

// Validate enforces the ingredient invariants.
func (i *Ingredient) Validate() error {
	if i.Name == "" {
		return ErrEmptyName
	}
	if i.Stock.IsNegative() {
		return ErrNegativeStock
	}
	if i.Threshold.IsNegative() {
		return ErrInvalidThreshold
	}
	if i.PackagePrice.IsNegative() || i.QtyPerPack.IsNegative() {
		return ErrInvalidCost
	}
	return nil
}

// CostPerUnit is packagePrice / qtyPerPack, or zero for an empty pack definition.
func (i *Ingredient) CostPerUnit() decimal.Decimal {
	if i.QtyPerPack.IsZero() {
		return decimal.Zero
	}
	return i.PackagePrice.DivRound(i.QtyPerPack, 4)
}

// IsLow reports whether stock has reached the reorder point.
func (i *Ingredient) IsLow() bool {
	return i.Stock.LessThanOrEqual(i.Threshold)
}
