package types

import ordertypes "github.com/Apurer/cafe-pos-server/internal/domains/orders/application/types"

// CreateOrderCommand opens an order, optionally deduplicated by a client key.
type CreateOrderCommand struct {
	ordertypes.CreateOrderInput
	IdempotencyKey string
}

// PayOrderInput marks an order paid. A non-empty LoyaltyPhone awards points after commit.
type PayOrderInput struct {
	OrderID      int64
	LoyaltyPhone string
}
