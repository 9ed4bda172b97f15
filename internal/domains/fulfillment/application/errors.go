package application

import (
	"context"
	"errors"
	"fmt"

	catalogports "github.com/Apurer/cafe-pos-server/internal/domains/catalog/ports"
	"github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/ports"
	invdomain "github.com/Apurer/cafe-pos-server/internal/domains/inventory/domain"
	invports "github.com/Apurer/cafe-pos-server/internal/domains/inventory/ports"
	orderapp "github.com/Apurer/cafe-pos-server/internal/domains/orders/application"
	orderdomain "github.com/Apurer/cafe-pos-server/internal/domains/orders/domain"
	orderports "github.com/Apurer/cafe-pos-server/internal/domains/orders/ports"
)

var (
	// ErrStorageUnavailable wraps transaction and connectivity failures. Retrying the call is safe.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrInvalidInput signals the request violated an order invariant.
	ErrInvalidInput = orderapp.ErrInvalidInput
)

// mapError keeps business outcomes intact and folds everything else into ErrStorageUnavailable.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, orderapp.ErrInvalidInput),
		errors.Is(err, orderdomain.ErrInvalidTransition),
		errors.Is(err, invdomain.ErrInsufficientStock),
		errors.Is(err, invdomain.ErrNegativeAmount),
		errors.Is(err, orderports.ErrNotFound),
		errors.Is(err, invports.ErrNotFound),
		errors.Is(err, catalogports.ErrNotFound),
		errors.Is(err, ports.ErrIdempotencyConflict),
		errors.Is(err, ErrStorageUnavailable),
		errors.Is(err, context.Canceled):
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}
