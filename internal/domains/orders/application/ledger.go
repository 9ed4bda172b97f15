package application

import (
	"context"
	"time"

	ordertypes "github.com/Apurer/cafe-pos-server/internal/domains/orders/application/types"
	"github.com/Apurer/cafe-pos-server/internal/domains/orders/domain"
	"github.com/Apurer/cafe-pos-server/internal/domains/orders/ports"
)

// Ledger owns order records and guards their status transitions. Bind it to a
// transaction-scoped repository to take part in a unit of work.
type Ledger struct {
	repo ports.Repository
	now  func() time.Time
}

type Option func(*Ledger)

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

func NewLedger(repo ports.Repository, opts ...Option) *Ledger {
	l := &Ledger{repo: repo, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// CreateOrder snapshots the cart into a PENDING order.
func (l *Ledger) CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*domain.Order, error) {
	lines := make([]domain.Line, 0, len(input.Lines))
	for _, in := range input.Lines {
		line := domain.Line{
			MenuItemID: in.MenuItemID,
			SizeID:     in.SizeID,
			Quantity:   in.Quantity,
			Price:      in.Price,
		}
		for _, addon := range in.Addons {
			line.Addons = append(line.Addons, domain.Addon{MenuItemID: addon.MenuItemID, Price: addon.Price})
		}
		lines = append(lines, line)
	}
	order, err := domain.NewOrder(input.OwnerUserID, lines, input.PaymentMethod, input.Discount, l.now())
	if err != nil {
		return nil, mapError(err)
	}
	return l.repo.Create(ctx, order)
}

// Lock loads an order and holds its row lock for the rest of the transaction.
func (l *Ledger) Lock(ctx context.Context, id int64) (*domain.Order, error) {
	return l.repo.GetForUpdate(ctx, id)
}

// TransitionToPaid moves a PENDING order to PAID.
func (l *Ledger) TransitionToPaid(ctx context.Context, id int64) (*domain.Order, error) {
	return l.transition(ctx, id, (*domain.Order).MarkPaid)
}

// TransitionToCompleted moves a PAID order to COMPLETED.
func (l *Ledger) TransitionToCompleted(ctx context.Context, id int64) (*domain.Order, error) {
	return l.transition(ctx, id, (*domain.Order).Complete)
}

// TransitionToCancelled moves a PENDING or PAID order to CANCELLED.
func (l *Ledger) TransitionToCancelled(ctx context.Context, id int64) (*domain.Order, error) {
	return l.transition(ctx, id, (*domain.Order).Cancel)
}

func (l *Ledger) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return l.repo.GetByID(ctx, id)
}

func (l *Ledger) ListOrders(ctx context.Context, filter ports.ListFilter) ([]*domain.Order, error) {
	return l.repo.List(ctx, filter)
}

// ListPending returns open orders oldest first.
func (l *Ledger) ListPending(ctx context.Context) ([]*domain.Order, error) {
	return l.repo.List(ctx, ports.ListFilter{Statuses: []domain.Status{domain.StatusPending}})
}

func (l *Ledger) transition(ctx context.Context, id int64, apply func(*domain.Order, time.Time) error) (*domain.Order, error) {
	order, err := l.repo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(order, l.now()); err != nil {
		return nil, err
	}
	if err := l.repo.UpdateStatus(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}
