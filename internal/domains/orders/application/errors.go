package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/cafe-pos-server/internal/domains/orders/domain"
)

// ErrInvalidInput signals the cart violated an order invariant.
var ErrInvalidInput = errors.New("invalid order input")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyCart) ||
		errors.Is(err, domain.ErrInvalidLine) ||
		errors.Is(err, domain.ErrInvalidOwner) ||
		errors.Is(err, domain.ErrInvalidDiscount) ||
		errors.Is(err, domain.ErrInvalidStatus) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
