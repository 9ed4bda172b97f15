package types

import "github.com/shopspring/decimal"

// CreateIngredientInput carries the fields accepted when registering an ingredient.
type CreateIngredientInput struct {
	Name         string
	Category     string
	Stock        decimal.Decimal
	Threshold    decimal.Decimal
	SupplierID   *int64
	UnitID       *int64
	PackagePrice decimal.Decimal
	QtyPerPack   decimal.Decimal
}

// RestockInput adds received stock to an ingredient.
type RestockInput struct {
	IngredientID int64
	Amount       decimal.Decimal
	Reference    string
}
