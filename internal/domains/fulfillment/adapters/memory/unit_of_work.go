package memory

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/ports"
	invmemory "github.com/Apurer/cafe-pos-server/internal/domains/inventory/adapters/memory"
	invdomain "github.com/Apurer/cafe-pos-server/internal/domains/inventory/domain"
	ordermemory "github.com/Apurer/cafe-pos-server/internal/domains/orders/adapters/memory"
	orderdomain "github.com/Apurer/cafe-pos-server/internal/domains/orders/domain"
)

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork serializes units of work behind one mutex and replays an undo journal
// when a unit fails. Stock given back on rollback is recorded as an ADJUSTMENT movement.
type UnitOfWork struct {
	mu      sync.Mutex
	orders  *ordermemory.Repository
	stock   *invmemory.Store
	keys    *IdempotencyStore
	timeout time.Duration
	logger  *slog.Logger
}

// NewUnitOfWork wires the in-memory stores. A zero timeout disables the deadline.
func NewUnitOfWork(orders *ordermemory.Repository, stock *invmemory.Store, keys *IdempotencyStore, timeout time.Duration) *UnitOfWork {
	return &UnitOfWork{orders: orders, stock: stock, keys: keys, timeout: timeout}
}

// WithLogger reports rollback failures.
func (u *UnitOfWork) WithLogger(logger *slog.Logger) *UnitOfWork {
	u.logger = logger
	return u
}

func (u *UnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, repos ports.TxRepositories) error) error {
	if u == nil || u.orders == nil || u.stock == nil || u.keys == nil {
		return errors.New("memory unit of work not configured")
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	j := &journal{}
	err := fn(ctx, ports.TxRepositories{
		Orders:      &journaledOrders{Repository: u.orders, journal: j},
		Stock:       &journaledStock{Store: u.stock, journal: j},
		Idempotency: &journaledKeys{IdempotencyStore: u.keys, journal: j},
	})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		if rbErr := j.rollback(context.WithoutCancel(ctx)); rbErr != nil && u.logger != nil {
			u.logger.LogAttrs(ctx, slog.LevelError, "memory unit of work rollback incomplete", slog.String("error", rbErr.Error()))
		}
		return err
	}
	return nil
}

type journal struct {
	undo []func(ctx context.Context) error
}

func (j *journal) record(fn func(ctx context.Context) error) {
	j.undo = append(j.undo, fn)
}

func (j *journal) rollback(ctx context.Context) error {
	var errs []error
	for i := len(j.undo) - 1; i >= 0; i-- {
		if err := j.undo[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type journaledOrders struct {
	*ordermemory.Repository
	journal *journal
}

func (o *journaledOrders) Create(ctx context.Context, order *orderdomain.Order) (*orderdomain.Order, error) {
	created, err := o.Repository.Create(ctx, order)
	if err != nil {
		return nil, err
	}
	id := created.ID
	o.journal.record(func(ctx context.Context) error { return o.Repository.Delete(ctx, id) })
	return created, nil
}

func (o *journaledOrders) UpdateStatus(ctx context.Context, order *orderdomain.Order) error {
	previous, err := o.Repository.GetByID(ctx, order.ID)
	if err != nil {
		return err
	}
	if err := o.Repository.UpdateStatus(ctx, order); err != nil {
		return err
	}
	o.journal.record(func(ctx context.Context) error { return o.Repository.UpdateStatus(ctx, previous) })
	return nil
}

type journaledStock struct {
	*invmemory.Store
	journal *journal
}

func (s *journaledStock) Decrement(ctx context.Context, ingredientID int64, amount decimal.Decimal, reference string) (decimal.Decimal, error) {
	balance, err := s.Store.Decrement(ctx, ingredientID, amount, reference)
	if err != nil {
		return balance, err
	}
	s.journal.record(func(ctx context.Context) error {
		_, err := s.Store.Increment(ctx, ingredientID, amount, invdomain.ReasonAdjustment, "rollback:"+reference)
		return err
	})
	return balance, nil
}

func (s *journaledStock) Increment(ctx context.Context, ingredientID int64, amount decimal.Decimal, reason invdomain.MovementReason, reference string) (decimal.Decimal, error) {
	balance, err := s.Store.Increment(ctx, ingredientID, amount, reason, reference)
	if err != nil {
		return balance, err
	}
	s.journal.record(func(ctx context.Context) error {
		_, err := s.Store.Decrement(ctx, ingredientID, amount, "rollback:"+reference)
		return err
	})
	return balance, nil
}

func (s *journaledStock) BatchDecrement(ctx context.Context, requirements []invdomain.Requirement, reference string) error {
	if err := s.Store.BatchDecrement(ctx, requirements, reference); err != nil {
		return err
	}
	applied := invdomain.MergeRequirements(requirements)
	s.journal.record(func(ctx context.Context) error {
		var errs []error
		for _, req := range applied {
			if _, err := s.Store.Increment(ctx, req.IngredientID, req.Amount, invdomain.ReasonAdjustment, "rollback:"+reference); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
	return nil
}

type journaledKeys struct {
	*IdempotencyStore
	journal *journal
}

func (k *journaledKeys) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	existing, err := k.IdempotencyStore.Get(ctx, record.Key)
	if err != nil {
		return nil, err
	}
	saved, err := k.IdempotencyStore.Save(ctx, record)
	if err != nil {
		return saved, err
	}
	if existing == nil {
		key := record.Key
		k.journal.record(func(ctx context.Context) error {
			k.IdempotencyStore.Delete(ctx, key)
			return nil
		})
	}
	return saved, nil
}
