package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Apurer/cafe-pos-server/internal/domains/catalog/domain"
)

var (
	ErrNotFound       = errors.New("menu item not found")
	ErrRecipeNotFound = errors.New("recipe not found")
)

// Repository persists menu items, their sizes, and per-size recipes.
type Repository interface {
	SaveMenuItem(ctx context.Context, item *domain.MenuItem) (*domain.MenuItem, error)
	GetMenuItem(ctx context.Context, id int64) (*domain.MenuItem, error)
	ListMenuItems(ctx context.Context) ([]*domain.MenuItem, error)
	UpdateSizePrice(ctx context.Context, menuItemID, sizeID int64, price decimal.Decimal) error
	// GetRecipe returns ErrRecipeNotFound when the size has no recipe.
	GetRecipe(ctx context.Context, menuItemID, sizeID int64) (*domain.Recipe, error)
	// ReplaceRecipe deletes any existing recipe for the pair and stores the new one.
	ReplaceRecipe(ctx context.Context, recipe *domain.Recipe) (*domain.Recipe, error)
}
