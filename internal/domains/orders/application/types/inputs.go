package types

import "github.com/shopspring/decimal"

// AddonInput is an add-on attached to a cart line with the price shown at checkout.
type AddonInput struct {
	MenuItemID int64
	Price      decimal.Decimal
}

// LineInput is one cart line as submitted by the register.
type LineInput struct {
	MenuItemID int64
	SizeID     *int64
	Quantity   int32
	Price      decimal.Decimal
	Addons     []AddonInput
}

// CreateOrderInput is the cart snapshot used to open an order.
type CreateOrderInput struct {
	OwnerUserID   int64
	PaymentMethod string
	Discount      decimal.Decimal
	Lines         []LineInput
}
