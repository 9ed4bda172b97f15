package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Apurer/cafe-pos-server/internal/domains/catalog/domain"
	"github.com/Apurer/cafe-pos-server/internal/domains/catalog/ports"
)

// GetRecipe resolves the ingredients consumed by one unit of (menuItemID, sizeID).
// Missing items, foreign sizes, and sizes without a recipe all resolve to an empty
// list; only storage failures are returned as errors.
func (s *Service) GetRecipe(ctx context.Context, menuItemID int64, sizeID *int64) ([]domain.RecipeLine, error) {
	item, err := s.repo.GetMenuItem(ctx, menuItemID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			s.warn(ctx, "recipe lookup for unknown menu item", slog.Int64("menu_item.id", menuItemID))
			return []domain.RecipeLine{}, nil
		}
		return nil, err
	}

	var size domain.SizeVariant
	var ok bool
	if sizeID == nil {
		size, ok = item.DefaultSize()
		if !ok {
			s.warn(ctx, "recipe lookup without size on multi-size item",
				slog.Int64("menu_item.id", menuItemID), slog.Int("menu_item.sizes", len(item.Sizes)))
			return []domain.RecipeLine{}, nil
		}
	} else {
		size, ok = item.Size(*sizeID)
		if !ok {
			s.warn(ctx, "recipe lookup for size not on menu item",
				slog.Int64("menu_item.id", menuItemID), slog.Int64("size.id", *sizeID))
			return []domain.RecipeLine{}, nil
		}
	}

	recipe, err := s.repo.GetRecipe(ctx, menuItemID, size.ID)
	if err != nil {
		if errors.Is(err, ports.ErrRecipeNotFound) {
			return []domain.RecipeLine{}, nil
		}
		return nil, err
	}
	return recipe.CloneLines(), nil
}

func (s *Service) warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
}

var _ ports.RecipeResolver = (*Service)(nil)
