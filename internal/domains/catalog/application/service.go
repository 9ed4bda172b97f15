package application

import (
	"context"
	"io"
	"log/slog"

	catalogtypes "github.com/Apurer/cafe-pos-server/internal/domains/catalog/application/types"
	"github.com/Apurer/cafe-pos-server/internal/domains/catalog/domain"
	"github.com/Apurer/cafe-pos-server/internal/domains/catalog/ports"
)

// Service orchestrates catalog use cases and resolves recipes for fulfillment.
type Service struct {
	repo   ports.Repository
	logger *slog.Logger
}

// Option configures the catalog service.
type Option func(*Service)

// WithLogger sets the logger used for resolver warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wires the catalog service with its repository.
func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateMenuItem validates and stores a new menu item with its sizes.
func (s *Service) CreateMenuItem(ctx context.Context, input catalogtypes.CreateMenuItemInput) (*domain.MenuItem, error) {
	sizes := make([]domain.SizeVariant, 0, len(input.Sizes))
	for _, size := range input.Sizes {
		sizes = append(sizes, domain.SizeVariant{Label: size.Label, Price: size.Price})
	}
	item, err := domain.NewMenuItem(input.Name, domain.Category(input.Category), domain.Status(input.Status), input.ImageRef, sizes)
	if err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.SaveMenuItem(ctx, item)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// GetMenuItem loads a single menu item with its sizes.
func (s *Service) GetMenuItem(ctx context.Context, id int64) (*domain.MenuItem, error) {
	return s.repo.GetMenuItem(ctx, id)
}

// ListMenu returns every menu item.
func (s *Service) ListMenu(ctx context.Context) ([]*domain.MenuItem, error) {
	return s.repo.ListMenuItems(ctx)
}

// ChangeSizePrice reprices a size. Existing orders keep their snapshot prices.
func (s *Service) ChangeSizePrice(ctx context.Context, input catalogtypes.ChangeSizePriceInput) (*domain.MenuItem, error) {
	item, err := s.repo.GetMenuItem(ctx, input.MenuItemID)
	if err != nil {
		return nil, err
	}
	if err := item.ChangePrice(input.SizeID, input.Price); err != nil {
		return nil, mapError(err)
	}
	if err := s.repo.UpdateSizePrice(ctx, input.MenuItemID, input.SizeID, input.Price); err != nil {
		return nil, mapError(err)
	}
	return item, nil
}

// ReplaceRecipe swaps the whole recipe for a size of a menu item.
func (s *Service) ReplaceRecipe(ctx context.Context, input catalogtypes.ReplaceRecipeInput) (*domain.Recipe, error) {
	item, err := s.repo.GetMenuItem(ctx, input.MenuItemID)
	if err != nil {
		return nil, err
	}
	if _, ok := item.Size(input.SizeID); !ok {
		return nil, mapError(domain.ErrUnknownSize)
	}
	lines := make([]domain.RecipeLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		lines = append(lines, domain.RecipeLine{IngredientID: line.IngredientID, QuantityNeeded: line.QuantityNeeded})
	}
	recipe, err := domain.NewRecipe(input.MenuItemID, input.SizeID, lines)
	if err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.ReplaceRecipe(ctx, recipe)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// GetStoredRecipe returns the persisted recipe for display; ErrRecipeNotFound when absent.
func (s *Service) GetStoredRecipe(ctx context.Context, menuItemID, sizeID int64) (*domain.Recipe, error) {
	return s.repo.GetRecipe(ctx, menuItemID, sizeID)
}

var _ ports.Service = (*Service)(nil)
