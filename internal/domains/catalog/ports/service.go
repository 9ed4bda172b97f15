package ports

import (
	"context"

	catalogtypes "github.com/Apurer/cafe-pos-server/internal/domains/catalog/application/types"
	"github.com/Apurer/cafe-pos-server/internal/domains/catalog/domain"
)

// RecipeResolver maps a sold (menu item, size) pair to the ingredients it consumes.
// A nil sizeID means the line carries no size; the item's only size is used if it has one.
type RecipeResolver interface {
	GetRecipe(ctx context.Context, menuItemID int64, sizeID *int64) ([]domain.RecipeLine, error)
}

// Service exposes catalog use cases to adapters.
type Service interface {
	RecipeResolver
	CreateMenuItem(ctx context.Context, input catalogtypes.CreateMenuItemInput) (*domain.MenuItem, error)
	GetMenuItem(ctx context.Context, id int64) (*domain.MenuItem, error)
	ListMenu(ctx context.Context) ([]*domain.MenuItem, error)
	ChangeSizePrice(ctx context.Context, input catalogtypes.ChangeSizePriceInput) (*domain.MenuItem, error)
	ReplaceRecipe(ctx context.Context, input catalogtypes.ReplaceRecipeInput) (*domain.Recipe, error)
	GetStoredRecipe(ctx context.Context, menuItemID, sizeID int64) (*domain.Recipe, error)
}
