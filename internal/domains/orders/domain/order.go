package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates order progression.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
	StatusVoid      Status = "VOID"
)

const (
	PaymentCash  = "CASH"
	PaymentGCash = "GCASH"
)

var (
	ErrEmptyCart         = errors.New("order has no lines")
	ErrInvalidLine       = errors.New("order line is invalid")
	ErrInvalidOwner      = errors.New("owner user id must be greater than zero")
	ErrInvalidDiscount   = errors.New("discount must be a non-negative amount with at most 2 decimal places")
	ErrInvalidStatus     = errors.New("order status is invalid")
	ErrInvalidTransition = errors.New("order status transition not allowed")
)

// InvalidLineError pinpoints the offending line of a cart.
type InvalidLineError struct {
	Index  int
	Reason string
}

func (e *InvalidLineError) Error() string {
	return fmt.Sprintf("order line %d is invalid: %s", e.Index, e.Reason)
}

func (e *InvalidLineError) Is(target error) bool { return target == ErrInvalidLine }

// InvalidTransitionError reports a state change attempted from the wrong status.
type InvalidTransitionError struct {
	OrderID int64
	From    Status
	To      Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %d cannot move from %s to %s", e.OrderID, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

var transitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusCompleted, StatusCancelled},
}

// Addon is an add-on item attached to a line with its price snapshot.
type Addon struct {
	MenuItemID int64
	Price      decimal.Decimal
}

// Line is one cart entry. Prices are unit prices captured at creation.
type Line struct {
	ID         int64
	OrderID    int64
	MenuItemID int64
	SizeID     *int64
	Quantity   int32
	Price      decimal.Decimal
	Addons     []Addon
}

// UnitPrice is the line price plus every add-on price.
func (l Line) UnitPrice() decimal.Decimal {
	unit := l.Price
	for _, addon := range l.Addons {
		unit = unit.Add(addon.Price)
	}
	return unit
}

// Subtotal is the unit price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt32(l.Quantity))
}

// IsCents reports whether amount is a whole number of cents. 1.50 and 1.500 qualify; 1.504 does not.
func IsCents(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(2))
}

func (l Line) validate(index int) error {
	switch {
	case l.MenuItemID <= 0:
		return &InvalidLineError{Index: index, Reason: "menu item id must be greater than zero"}
	case l.SizeID != nil && *l.SizeID <= 0:
		return &InvalidLineError{Index: index, Reason: "size id must be greater than zero"}
	case l.Quantity <= 0:
		return &InvalidLineError{Index: index, Reason: "quantity must be at least 1"}
	case !l.Price.IsPositive():
		return &InvalidLineError{Index: index, Reason: "price must be greater than zero"}
	case !IsCents(l.Price):
		return &InvalidLineError{Index: index, Reason: "price must have at most 2 decimal places"}
	}
	for _, addon := range l.Addons {
		if addon.MenuItemID <= 0 {
			return &InvalidLineError{Index: index, Reason: "add-on menu item id must be greater than zero"}
		}
		if addon.Price.IsNegative() {
			return &InvalidLineError{Index: index, Reason: "add-on price cannot be negative"}
		}
		if !IsCents(addon.Price) {
			return &InvalidLineError{Index: index, Reason: "add-on price must have at most 2 decimal places"}
		}
	}
	return nil
}

// Order is the order ledger aggregate.
type Order struct {
	ID            int64
	OwnerUserID   int64
	BaseTotal     decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	Status        Status
	PaymentMethod string
	CreatedAt     time.Time
	PaidAt        *time.Time
	CompletedAt   *time.Time
	CancelledAt   *time.Time
	Lines         []Line
}

// NewOrder builds a PENDING order from a cart snapshot. Totals are computed once here
// and never re-derived from the catalog.
func NewOrder(ownerUserID int64, lines []Line, paymentMethod string, discount decimal.Decimal, now time.Time) (*Order, error) {
	if ownerUserID <= 0 {
		return nil, ErrInvalidOwner
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	if discount.IsNegative() || !IsCents(discount) {
		return nil, ErrInvalidDiscount
	}
	order := &Order{
		OwnerUserID:   ownerUserID,
		Discount:      discount.Round(2),
		Status:        StatusPending,
		PaymentMethod: NormalizePaymentMethod(paymentMethod),
		CreatedAt:     now.UTC(),
		Lines:         make([]Line, 0, len(lines)),
	}
	base := decimal.Zero
	for i, line := range lines {
		if err := line.validate(i); err != nil {
			return nil, err
		}
		line.Addons = append([]Addon(nil), line.Addons...)
		base = base.Add(line.Subtotal())
		order.Lines = append(order.Lines, line)
	}
	order.BaseTotal = base.Round(2)
	order.Total = decimal.Max(order.BaseTotal.Sub(order.Discount), decimal.Zero)
	return order, nil
}

// CanTransition reports whether the state machine allows moving to the target status.
func (o *Order) CanTransition(to Status) bool {
	for _, next := range transitions[o.Status] {
		if next == to {
			return true
		}
	}
	return false
}

// MarkPaid moves a PENDING order to PAID and stamps paidAt once.
func (o *Order) MarkPaid(now time.Time) error {
	if err := o.transition(StatusPaid); err != nil {
		return err
	}
	paidAt := now.UTC()
	o.PaidAt = &paidAt
	return nil
}

// Complete moves a PAID order to COMPLETED.
func (o *Order) Complete(now time.Time) error {
	if err := o.transition(StatusCompleted); err != nil {
		return err
	}
	completedAt := now.UTC()
	o.CompletedAt = &completedAt
	return nil
}

// Cancel moves a PENDING or PAID order to CANCELLED. Consumed stock stays consumed.
func (o *Order) Cancel(now time.Time) error {
	if err := o.transition(StatusCancelled); err != nil {
		return err
	}
	cancelledAt := now.UTC()
	o.CancelledAt = &cancelledAt
	return nil
}

func (o *Order) transition(to Status) error {
	if !o.CanTransition(to) {
		return &InvalidTransitionError{OrderID: o.ID, From: o.Status, To: to}
	}
	o.Status = to
	return nil
}

// Reference is the human-facing order number, e.g. ORD-20240315-000042.
func (o *Order) Reference() string {
	return fmt.Sprintf("ORD-%s-%06d", o.CreatedAt.UTC().Format("20060102"), o.ID)
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.PaidAt = cloneTime(o.PaidAt)
	clone.CompletedAt = cloneTime(o.CompletedAt)
	clone.CancelledAt = cloneTime(o.CancelledAt)
	clone.Lines = make([]Line, len(o.Lines))
	for i, line := range o.Lines {
		if line.SizeID != nil {
			sizeID := *line.SizeID
			line.SizeID = &sizeID
		}
		line.Addons = append([]Addon(nil), line.Addons...)
		clone.Lines[i] = line
	}
	return &clone
}

// ParseStatus accepts a status name in any case.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case StatusPending, StatusPaid, StatusCancelled, StatusCompleted, StatusVoid:
		return status, nil
	default:
		return "", ErrInvalidStatus
	}
}

// NormalizePaymentMethod upper-cases the known labels and keeps free text as typed.
func NormalizePaymentMethod(raw string) string {
	method := strings.TrimSpace(raw)
	switch {
	case method == "":
		return PaymentCash
	case strings.EqualFold(method, PaymentCash):
		return PaymentCash
	case strings.EqualFold(method, PaymentGCash):
		return PaymentGCash
	default:
		return method
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
