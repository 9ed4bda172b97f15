package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/cafe-pos-server/internal/domains/inventory/domain"
	"github.com/Apurer/cafe-pos-server/internal/domains/inventory/ports"
)

var (
	_ ports.Repository  = (*Store)(nil)
	_ ports.StockLedger = (*Store)(nil)
)

// Store is an in-memory ingredient repository and stock ledger.
type Store struct {
	mu             sync.RWMutex
	ingredients    map[int64]*domain.Ingredient
	movements      []domain.Movement
	nextID         int64
	nextMovementID int64
	now            func() time.Time
}

func NewStore() *Store {
	return &Store{
		ingredients: map[int64]*domain.Ingredient{},
		now:         time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (s *Store) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Store) Create(_ context.Context, ingredient *domain.Ingredient) (*domain.Ingredient, error) {
	if ingredient == nil {
		return nil, errors.New("ingredient is nil")
	}
	if err := ingredient.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := cloneIngredient(ingredient)
	if clone.ID == 0 {
		s.nextID++
		clone.ID = s.nextID
	} else if clone.ID > s.nextID {
		s.nextID = clone.ID
	}
	s.ingredients[clone.ID] = clone
	return cloneIngredient(clone), nil
}

func (s *Store) GetByID(_ context.Context, id int64) (*domain.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ing, ok := s.ingredients[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneIngredient(ing), nil
}

func (s *Store) List(_ context.Context) ([]*domain.Ingredient, error) {
	return s.list(func(*domain.Ingredient) bool { return true }), nil
}

func (s *Store) ListLowStock(_ context.Context) ([]*domain.Ingredient, error) {
	return s.list((*domain.Ingredient).IsLow), nil
}

func (s *Store) ListMovements(_ context.Context, ingredientID int64, limit int) ([]domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Movement, 0)
	for i := len(s.movements) - 1; i >= 0; i-- {
		if s.movements[i].IngredientID != ingredientID {
			continue
		}
		out = append(out, s.movements[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) Decrement(_ context.Context, ingredientID int64, amount decimal.Decimal, reference string) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, domain.ErrNegativeAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	reqs := []domain.Requirement{{IngredientID: ingredientID, Amount: amount}}
	if err := s.checkLocked(reqs); err != nil {
		return decimal.Zero, err
	}
	return s.applyLocked(ingredientID, amount.Neg(), domain.ReasonSale, reference), nil
}

func (s *Store) Increment(_ context.Context, ingredientID int64, amount decimal.Decimal, reason domain.MovementReason, reference string) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, domain.ErrNegativeAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ingredients[ingredientID]; !ok {
		return decimal.Zero, ports.ErrNotFound
	}
	return s.applyLocked(ingredientID, amount, reason, reference), nil
}

func (s *Store) BatchDecrement(_ context.Context, requirements []domain.Requirement, reference string) error {
	for _, req := range requirements {
		if req.Amount.IsNegative() {
			return domain.ErrNegativeAmount
		}
	}
	sorted := domain.MergeRequirements(requirements)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(sorted); err != nil {
		return err
	}
	for _, req := range sorted {
		s.applyLocked(req.IngredientID, req.Amount.Neg(), domain.ReasonSale, reference)
	}
	return nil
}

func (s *Store) checkLocked(requirements []domain.Requirement) error {
	var shortages []domain.Shortage
	for _, req := range requirements {
		ing, ok := s.ingredients[req.IngredientID]
		if !ok {
			shortages = append(shortages, domain.Shortage{
				IngredientID: req.IngredientID,
				Required:     req.Amount,
				Available:    decimal.Zero,
			})
			continue
		}
		if ing.Stock.LessThan(req.Amount) {
			shortages = append(shortages, domain.Shortage{
				IngredientID: ing.ID,
				Name:         ing.Name,
				Required:     req.Amount,
				Available:    ing.Stock,
			})
		}
	}
	if len(shortages) > 0 {
		return &domain.InsufficientStockError{Shortages: shortages}
	}
	return nil
}

func (s *Store) applyLocked(ingredientID int64, delta decimal.Decimal, reason domain.MovementReason, reference string) decimal.Decimal {
	ing := s.ingredients[ingredientID]
	ing.Stock = ing.Stock.Add(delta)
	s.nextMovementID++
	s.movements = append(s.movements, domain.Movement{
		ID:           s.nextMovementID,
		IngredientID: ingredientID,
		Delta:        delta,
		Balance:      ing.Stock,
		Reason:       reason,
		Reference:    reference,
		CreatedAt:    s.now().UTC(),
	})
	return ing.Stock
}

func (s *Store) list(keep func(*domain.Ingredient) bool) []*domain.Ingredient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*domain.Ingredient, 0, len(s.ingredients))
	for _, ing := range s.ingredients {
		if keep(ing) {
			list = append(list, cloneIngredient(ing))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func cloneIngredient(ing *domain.Ingredient) *domain.Ingredient {
	clone := *ing
	if ing.SupplierID != nil {
		v := *ing.SupplierID
		clone.SupplierID = &v
	}
	if ing.UnitID != nil {
		v := *ing.UnitID
		clone.UnitID = &v
	}
	return &clone
}
