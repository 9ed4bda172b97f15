package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	ordertypes "github.com/Apurer/cafe-pos-server/internal/domains/orders/application/types"
	orderdomain "github.com/Apurer/cafe-pos-server/internal/domains/orders/domain"
)

// Addon is the transport shape of a line add-on.
type Addon struct {
	MenuItemID int64           `json:"menuItemId"`
	Price      decimal.Decimal `json:"price"`
}

// Line is the transport shape of an order line.
type Line struct {
	ID         int64           `json:"id,omitempty"`
	MenuItemID int64           `json:"menuItemId"`
	SizeID     *int64          `json:"sizeId,omitempty"`
	Quantity   int32           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Addons     []Addon         `json:"addons,omitempty"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// Order is the transport shape returned by the order endpoints.
type Order struct {
	ID            int64           `json:"id"`
	Reference     string          `json:"reference"`
	OwnerUserID   int64           `json:"ownerUserId"`
	BaseTotal     decimal.Decimal `json:"baseTotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"paymentMethod"`
	CreatedAt     time.Time       `json:"createdAt"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`
	CancelledAt   *time.Time      `json:"cancelledAt,omitempty"`
	Lines         []Line          `json:"lines"`
}

// CreateOrderRequest is the cart payload accepted by POST /api/order.
type CreateOrderRequest struct {
	OwnerUserID   int64            `json:"ownerUserId"`
	PaymentMethod string           `json:"paymentMethod"`
	Discount      *decimal.Decimal `json:"discount,omitempty"`
	Lines         []LineRequest    `json:"lines"`
}

// LineRequest is one cart line in a create request.
type LineRequest struct {
	MenuItemID int64           `json:"menuItemId"`
	SizeID     *int64          `json:"sizeId,omitempty"`
	Quantity   int32           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Addons     []Addon         `json:"addons,omitempty"`
}

// ToCreateOrderInput converts the transport cart into the application input.
func ToCreateOrderInput(req CreateOrderRequest) ordertypes.CreateOrderInput {
	input := ordertypes.CreateOrderInput{
		OwnerUserID:   req.OwnerUserID,
		PaymentMethod: req.PaymentMethod,
		Lines:         make([]ordertypes.LineInput, 0, len(req.Lines)),
	}
	if req.Discount != nil {
		input.Discount = *req.Discount
	}
	for _, line := range req.Lines {
		in := ordertypes.LineInput{
			MenuItemID: line.MenuItemID,
			SizeID:     line.SizeID,
			Quantity:   line.Quantity,
			Price:      line.Price,
		}
		for _, addon := range line.Addons {
			in.Addons = append(in.Addons, ordertypes.AddonInput{MenuItemID: addon.MenuItemID, Price: addon.Price})
		}
		input.Lines = append(input.Lines, in)
	}
	return input
}

// FromDomainOrder converts a domain order to the transport representation.
func FromDomainOrder(order *orderdomain.Order) Order {
	if order == nil {
		return Order{}
	}
	out := Order{
		ID:            order.ID,
		Reference:     order.Reference(),
		OwnerUserID:   order.OwnerUserID,
		BaseTotal:     order.BaseTotal,
		Discount:      order.Discount,
		Total:         order.Total,
		Status:        string(order.Status),
		PaymentMethod: order.PaymentMethod,
		CreatedAt:     order.CreatedAt,
		PaidAt:        order.PaidAt,
		CompletedAt:   order.CompletedAt,
		CancelledAt:   order.CancelledAt,
		Lines:         make([]Line, 0, len(order.Lines)),
	}
	for _, line := range order.Lines {
		l := Line{
			ID:         line.ID,
			MenuItemID: line.MenuItemID,
			SizeID:     line.SizeID,
			Quantity:   line.Quantity,
			Price:      line.Price,
			Subtotal:   line.Subtotal(),
		}
		for _, addon := range line.Addons {
			l.Addons = append(l.Addons, Addon{MenuItemID: addon.MenuItemID, Price: addon.Price})
		}
		out.Lines = append(out.Lines, l)
	}
	return out
}

// FromDomainOrders converts a list of orders.
func FromDomainOrders(orders []*orderdomain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		out = append(out, FromDomainOrder(order))
	}
	return out
}
