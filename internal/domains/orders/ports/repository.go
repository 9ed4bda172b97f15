package ports

import (
	"context"
	"errors"

	"github.com/Apurer/cafe-pos-server/internal/domains/orders/domain"
)

var ErrNotFound = errors.New("order not found")

// ListFilter narrows order listings. Empty fields match everything.
type ListFilter struct {
	Statuses    []domain.Status
	OwnerUserID int64
}

// Repository persists orders with their lines and add-ons.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// GetForUpdate loads the order and holds a row lock until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*domain.Order, error)
	// UpdateStatus persists status and lifecycle timestamps; lines and totals are immutable.
	UpdateStatus(ctx context.Context, order *domain.Order) error
	List(ctx context.Context, filter ListFilter) ([]*domain.Order, error)
}
