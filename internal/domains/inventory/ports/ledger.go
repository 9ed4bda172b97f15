package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Apurer/cafe-pos-server/internal/domains/inventory/domain"
)

var ErrNotFound = errors.New("ingredient not found")

// StockLedger mutates ingredient stock with a floor at zero. Every mutation is a
// conditional single-row update and records a movement in the same transaction.
type StockLedger interface {
	// Decrement returns the new stock or an *domain.InsufficientStockError.
	Decrement(ctx context.Context, ingredientID int64, amount decimal.Decimal, reference string) (decimal.Decimal, error)
	// Increment adds a non-negative amount and returns the new stock.
	Increment(ctx context.Context, ingredientID int64, amount decimal.Decimal, reason domain.MovementReason, reference string) (decimal.Decimal, error)
	// BatchDecrement applies every requirement or none. On failure the error lists all shortages.
	BatchDecrement(ctx context.Context, requirements []domain.Requirement, reference string) error
}

// Repository persists ingredients and their movement history.
type Repository interface {
	Create(ctx context.Context, ingredient *domain.Ingredient) (*domain.Ingredient, error)
	GetByID(ctx context.Context, id int64) (*domain.Ingredient, error)
	List(ctx context.Context) ([]*domain.Ingredient, error)
	ListLowStock(ctx context.Context) ([]*domain.Ingredient, error)
	// ListMovements returns the newest movements first; limit <= 0 means no limit.
	ListMovements(ctx context.Context, ingredientID int64, limit int) ([]domain.Movement, error)
}
