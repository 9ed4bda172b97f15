package ports

import (
	"context"

	invtypes "github.com/Apurer/cafe-pos-server/internal/domains/inventory/application/types"
	"github.com/Apurer/cafe-pos-server/internal/domains/inventory/domain"
)

// Service exposes inventory back-office use cases to adapters.
type Service interface {
	CreateIngredient(ctx context.Context, input invtypes.CreateIngredientInput) (*domain.Ingredient, error)
	GetIngredient(ctx context.Context, id int64) (*domain.Ingredient, error)
	ListIngredients(ctx context.Context) ([]*domain.Ingredient, error)
	ListLowStock(ctx context.Context) ([]*domain.Ingredient, error)
	Restock(ctx context.Context, input invtypes.RestockInput) (*domain.Ingredient, error)
	ListMovements(ctx context.Context, ingredientID int64, limit int) ([]domain.Movement, error)
}
