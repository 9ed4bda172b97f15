package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInsufficientStock is matched by InsufficientStockError.
var ErrInsufficientStock = errors.New("insufficient stock")

// Requirement is an amount of one ingredient to consume.
type Requirement struct {
	IngredientID int64
	Amount       decimal.Decimal
}

// Requirements aggregates amounts per ingredient.
type Requirements map[int64]decimal.Decimal

// Add accumulates amount for an ingredient. Non-positive amounts are ignored.
func (r Requirements) Add(ingredientID int64, amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	r[ingredientID] = r[ingredientID].Add(amount)
}

// Sorted returns the requirements in ascending ingredient id order.
func (r Requirements) Sorted() []Requirement {
	out := make([]Requirement, 0, len(r))
	for id, amount := range r {
		out = append(out, Requirement{IngredientID: id, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IngredientID < out[j].IngredientID })
	return out
}

// MergeRequirements sums repeated ingredients and returns them in ascending id order.
func MergeRequirements(list []Requirement) []Requirement {
	merged := make(Requirements, len(list))
	for _, req := range list {
		merged.Add(req.IngredientID, req.Amount)
	}
	return merged.Sorted()
}

// Shortage describes one ingredient that could not cover a requirement.
type Shortage struct {
	IngredientID int64
	Name         string
	Required     decimal.Decimal
	Available    decimal.Decimal
}

// InsufficientStockError lists every ingredient that blocked a decrement.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		label := s.Name
		if label == "" {
			label = fmt.Sprintf("ingredient %d", s.IngredientID)
		}
		parts = append(parts, fmt.Sprintf("%s: required %s, available %s", label, s.Required.String(), s.Available.String()))
	}
	return "insufficient stock (" + strings.Join(parts, "; ") + ")"
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// MovementReason labels why stock changed.
type MovementReason string

const (
	ReasonSale       MovementReason = "SALE"
	ReasonRestock    MovementReason = "RESTOCK"
	ReasonAdjustment MovementReason = "ADJUSTMENT"
)

// Movement is an append-only audit row for one stock mutation.
type Movement struct {
	ID           int64
	IngredientID int64
	Delta        decimal.Decimal
	Balance      decimal.Decimal
	Reason       MovementReason
	Reference    string
	CreatedAt    time.Time
}
