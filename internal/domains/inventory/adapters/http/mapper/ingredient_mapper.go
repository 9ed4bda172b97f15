package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	invtypes "github.com/Apurer/cafe-pos-server/internal/domains/inventory/application/types"
	"github.com/Apurer/cafe-pos-server/internal/domains/inventory/domain"
)

// Ingredient is the transport shape of an ingredient with its stock counter.
type Ingredient struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category,omitempty"`
	Stock        decimal.Decimal `json:"stock"`
	Threshold    decimal.Decimal `json:"threshold"`
	SupplierID   *int64          `json:"supplierId,omitempty"`
	UnitID       *int64          `json:"unitId,omitempty"`
	PackagePrice decimal.Decimal `json:"packagePrice"`
	QtyPerPack   decimal.Decimal `json:"qtyPerPack"`
	CostPerUnit  decimal.Decimal `json:"costPerUnit"`
	LowStock     bool            `json:"lowStock"`
}

// CreateIngredientRequest is the body of POST /api/ingredients.
type CreateIngredientRequest struct {
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Stock        decimal.Decimal `json:"stock"`
	Threshold    decimal.Decimal `json:"threshold"`
	SupplierID   *int64          `json:"supplierId,omitempty"`
	UnitID       *int64          `json:"unitId,omitempty"`
	PackagePrice decimal.Decimal `json:"packagePrice"`
	QtyPerPack   decimal.Decimal `json:"qtyPerPack"`
}

// RestockRequest is the body of POST /api/ingredients/:ingredientId/restock.
type RestockRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
}

// Movement is one audit entry of the stock ledger.
type Movement struct {
	ID        int64           `json:"id"`
	Delta     decimal.Decimal `json:"delta"`
	Balance   decimal.Decimal `json:"balance"`
	Reason    string          `json:"reason"`
	Reference string          `json:"reference"`
	CreatedAt time.Time       `json:"createdAt"`
}

func ToCreateIngredientInput(req CreateIngredientRequest) invtypes.CreateIngredientInput {
	return invtypes.CreateIngredientInput{
		Name:         req.Name,
		Category:     req.Category,
		Stock:        req.Stock,
		Threshold:    req.Threshold,
		SupplierID:   req.SupplierID,
		UnitID:       req.UnitID,
		PackagePrice: req.PackagePrice,
		QtyPerPack:   req.QtyPerPack,
	}
}

func ToRestockInput(ingredientID int64, req RestockRequest) invtypes.RestockInput {
	return invtypes.RestockInput{IngredientID: ingredientID, Amount: req.Amount, Reference: req.Reference}
}

func FromDomainIngredient(ing *domain.Ingredient) Ingredient {
	if ing == nil {
		return Ingredient{}
	}
	return Ingredient{
		ID:           ing.ID,
		Name:         ing.Name,
		Category:     ing.Category,
		Stock:        ing.Stock,
		Threshold:    ing.Threshold,
		SupplierID:   ing.SupplierID,
		UnitID:       ing.UnitID,
		PackagePrice: ing.PackagePrice,
		QtyPerPack:   ing.QtyPerPack,
		CostPerUnit:  ing.CostPerUnit(),
		LowStock:     ing.IsLow(),
	}
}

func FromDomainIngredients(items []*domain.Ingredient) []Ingredient {
	out := make([]Ingredient, 0, len(items))
	for _, ing := range items {
		out = append(out, FromDomainIngredient(ing))
	}
	return out
}

func FromDomainMovements(movements []domain.Movement) []Movement {
	out := make([]Movement, 0, len(movements))
	for _, m := range movements {
		out = append(out, Movement{
			ID:        m.ID,
			Delta:     m.Delta,
			Balance:   m.Balance,
			Reason:    string(m.Reason),
			Reference: m.Reference,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}
