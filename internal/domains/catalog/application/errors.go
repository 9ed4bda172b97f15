package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/cafe-pos-server/internal/domains/catalog/domain"
)

// ErrInvalidInput signals the request violated a catalog invariant.
var ErrInvalidInput = errors.New("invalid catalog input")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyName) ||
		errors.Is(err, domain.ErrInvalidCategory) ||
		errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, domain.ErrNoSizes) ||
		errors.Is(err, domain.ErrAddonSize) ||
		errors.Is(err, domain.ErrDuplicateSize) ||
		errors.Is(err, domain.ErrInvalidPrice) ||
		errors.Is(err, domain.ErrEmptySizeLabel) ||
		errors.Is(err, domain.ErrUnknownSize) ||
		errors.Is(err, domain.ErrInvalidRecipeTarget) ||
		errors.Is(err, domain.ErrInvalidRecipeLine) ||
		errors.Is(err, domain.ErrDuplicateIngredient) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
