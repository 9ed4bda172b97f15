package application

import (
	"context"
	"strings"

	invtypes "github.com/Apurer/cafe-pos-server/internal/domains/inventory/application/types"
	"github.com/Apurer/cafe-pos-server/internal/domains/inventory/domain"
	"github.com/Apurer/cafe-pos-server/internal/domains/inventory/ports"
)

// Service orchestrates inventory back-office use cases.
type Service struct {
	repo   ports.Repository
	ledger ports.StockLedger
}

func NewService(repo ports.Repository, ledger ports.StockLedger) *Service {
	return &Service{repo: repo, ledger: ledger}
}

func (s *Service) CreateIngredient(ctx context.Context, input invtypes.CreateIngredientInput) (*domain.Ingredient, error) {
	ing, err := domain.NewIngredient(input.Name, input.Category, input.Stock, input.Threshold,
		input.PackagePrice, input.QtyPerPack, input.SupplierID, input.UnitID)
	if err != nil {
		return nil, mapError(err)
	}
	return s.repo.Create(ctx, ing)
}

func (s *Service) GetIngredient(ctx context.Context, id int64) (*domain.Ingredient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListIngredients(ctx context.Context) ([]*domain.Ingredient, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListLowStock(ctx context.Context) ([]*domain.Ingredient, error) {
	return s.repo.ListLowStock(ctx)
}

// Restock increments stock and records a RESTOCK movement.
func (s *Service) Restock(ctx context.Context, input invtypes.RestockInput) (*domain.Ingredient, error) {
	if !input.Amount.IsPositive() {
		return nil, mapError(domain.ErrNegativeAmount)
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		reference = "restock"
	}
	if _, err := s.ledger.Increment(ctx, input.IngredientID, input.Amount, domain.ReasonRestock, reference); err != nil {
		return nil, mapError(err)
	}
	return s.repo.GetByID(ctx, input.IngredientID)
}

func (s *Service) ListMovements(ctx context.Context, ingredientID int64, limit int) ([]domain.Movement, error) {
	if _, err := s.repo.GetByID(ctx, ingredientID); err != nil {
		return nil, err
	}
	return s.repo.ListMovements(ctx, ingredientID, limit)
}

var _ ports.Service = (*Service)(nil)
