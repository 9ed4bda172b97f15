package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Category classifies menu items on the POS screen.
type Category string

const (
	CategoryCoffee    Category = "COFFEE"
	CategoryNonCoffee Category = "NON_COFFEE"
	CategoryMeal      Category = "MEAL"
	CategoryAddon     Category = "ADDON"
)

// Status controls whether a menu item can be sold.
type Status string

const (
	StatusAvailable   Status = "AVAILABLE"
	StatusUnavailable Status = "UNAVAILABLE"
	StatusHidden      Status = "HIDDEN"
)

// SingleSizeLabel is the synthetic size carried by add-ons.
const SingleSizeLabel = "Single"

var (
	ErrEmptyName       = errors.New("menu item name is required")
	ErrInvalidCategory = errors.New("menu item category is invalid")
	ErrInvalidStatus   = errors.New("menu item status is invalid")
	ErrNoSizes         = errors.New("menu item needs at least one size")
	ErrAddonSize       = errors.New("add-on items carry exactly one size")
	ErrDuplicateSize   = errors.New("size labels must be unique per menu item")
	ErrInvalidPrice    = errors.New("size price must be greater than zero")
	ErrEmptySizeLabel  = errors.New("size label is required")
	ErrUnknownSize     = errors.New("size does not belong to menu item")
)

// SizeVariant is a sellable size of a menu item. The label is display-only.
type SizeVariant struct {
	ID         int64
	MenuItemID int64
	Label      string
	Price      decimal.Decimal
}

// MenuItem is the catalog aggregate.
type MenuItem struct {
	ID       int64
	Name     string
	Category Category
	Status   Status
	ImageRef string
	Sizes    []SizeVariant
}

// NewMenuItem validates and builds a menu item. Add-ons collapse to a single
// "Single" size regardless of the label supplied.
func NewMenuItem(name string, category Category, status Status, imageRef string, sizes []SizeVariant) (*MenuItem, error) {
	item := &MenuItem{
		Name:     strings.TrimSpace(name),
		Category: category,
		Status:   status,
		ImageRef: strings.TrimSpace(imageRef),
	}
	if item.Name == "" {
		return nil, ErrEmptyName
	}
	if !isValidCategory(category) {
		return nil, ErrInvalidCategory
	}
	if item.Status == "" {
		item.Status = StatusAvailable
	}
	if !isValidStatus(item.Status) {
		return nil, ErrInvalidStatus
	}
	if err := item.ReplaceSizes(sizes); err != nil {
		return nil, err
	}
	return item, nil
}

// ReplaceSizes swaps the size set, enforcing label uniqueness and positive prices.
func (m *MenuItem) ReplaceSizes(sizes []SizeVariant) error {
	if len(sizes) == 0 {
		return ErrNoSizes
	}
	if m.Category == CategoryAddon {
		if len(sizes) != 1 {
			return ErrAddonSize
		}
		single := sizes[0]
		single.Label = SingleSizeLabel
		sizes = []SizeVariant{single}
	}
	seen := make(map[string]struct{}, len(sizes))
	next := make([]SizeVariant, 0, len(sizes))
	for _, size := range sizes {
		label := strings.TrimSpace(size.Label)
		if label == "" {
			return ErrEmptySizeLabel
		}
		key := strings.ToLower(label)
		if _, dup := seen[key]; dup {
			return ErrDuplicateSize
		}
		seen[key] = struct{}{}
		if !size.Price.IsPositive() {
			return ErrInvalidPrice
		}
		size.Label = label
		size.MenuItemID = m.ID
		next = append(next, size)
	}
	m.Sizes = next
	return nil
}

// Size returns the size with the given id when it belongs to this item.
func (m *MenuItem) Size(id int64) (SizeVariant, bool) {
	for _, size := range m.Sizes {
		if size.ID == id {
			return size, true
		}
	}
	return SizeVariant{}, false
}

// DefaultSize returns the only size when the item has exactly one.
func (m *MenuItem) DefaultSize() (SizeVariant, bool) {
	if len(m.Sizes) != 1 {
		return SizeVariant{}, false
	}
	return m.Sizes[0], true
}

// ChangePrice updates the price of one size.
func (m *MenuItem) ChangePrice(sizeID int64, price decimal.Decimal) error {
	if !price.IsPositive() {
		return ErrInvalidPrice
	}
	for i := range m.Sizes {
		if m.Sizes[i].ID == sizeID {
			m.Sizes[i].Price = price
			return nil
		}
	}
	return ErrUnknownSize
}

func isValidCategory(category Category) bool {
	switch category {
	case CategoryCoffee, CategoryNonCoffee, CategoryMeal, CategoryAddon:
		return true
	default:
		return false
	}
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusAvailable, StatusUnavailable, StatusHidden:
		return true
	default:
		return false
	}
}
