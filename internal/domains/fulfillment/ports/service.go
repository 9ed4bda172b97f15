package ports

import (
	"context"

	fulfilltypes "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/application/types"
	orderdomain "github.com/Apurer/cafe-pos-server/internal/domains/orders/domain"
	orderports "github.com/Apurer/cafe-pos-server/internal/domains/orders/ports"
)

// Service exposes order fulfillment use cases to adapters.
type Service interface {
	CreateOrder(ctx context.Context, cmd fulfilltypes.CreateOrderCommand) (*orderdomain.Order, error)
	PayOrder(ctx context.Context, input fulfilltypes.PayOrderInput) (*orderdomain.Order, error)
	CompleteOrder(ctx context.Context, orderID int64) (*orderdomain.Order, error)
	CancelOrder(ctx context.Context, orderID int64) (*orderdomain.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*orderdomain.Order, error)
	ListOrders(ctx context.Context, filter orderports.ListFilter) ([]*orderdomain.Order, error)
	ListPending(ctx context.Context) ([]*orderdomain.Order, error)
}
