package ports

import (
	"context"

	invports "github.com/Apurer/cafe-pos-server/internal/domains/inventory/ports"
	orderports "github.com/Apurer/cafe-pos-server/internal/domains/orders/ports"
)

// TxRepositories are the collaborators bound to one storage transaction.
type TxRepositories struct {
	Orders      orderports.Repository
	Stock       invports.StockLedger
	Idempotency IdempotencyStore
}

// UnitOfWork runs fn inside one storage transaction. A non-nil error from fn, or
// the transaction deadline passing, discards every mutation made through repos.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}
