package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/cafe-pos-server/internal/domains/inventory/domain"
)

// ErrInvalidInput signals the request violated an inventory invariant.
var ErrInvalidInput = errors.New("invalid ingredient input")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyName) ||
		errors.Is(err, domain.ErrNegativeStock) ||
		errors.Is(err, domain.ErrNegativeAmount) ||
		errors.Is(err, domain.ErrInvalidThreshold) ||
		errors.Is(err, domain.ErrInvalidCost) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
