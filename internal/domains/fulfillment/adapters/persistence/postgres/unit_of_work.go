package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/ports"
	invpostgres "github.com/Apurer/cafe-pos-server/internal/domains/inventory/adapters/persistence/postgres"
	orderpostgres "github.com/Apurer/cafe-pos-server/internal/domains/orders/adapters/persistence/postgres"
	platformpostgres "github.com/Apurer/cafe-pos-server/internal/platform/postgres"
)

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// DefaultTxTimeout bounds a fulfillment transaction when no timeout is configured.
const DefaultTxTimeout = 5 * time.Second

// maxAttempts caps replays of a unit that lost a deadlock or serialization race.
const maxAttempts = 3

// UnitOfWork runs each unit inside one PostgreSQL transaction with a deadline.
// Units that fail with a retryable SQLSTATE are replayed from the start within the same deadline.
type UnitOfWork struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewUnitOfWork wires a transaction runner. A non-positive timeout uses DefaultTxTimeout.
func NewUnitOfWork(db *gorm.DB, timeout time.Duration) *UnitOfWork {
	if timeout <= 0 {
		timeout = DefaultTxTimeout
	}
	return &UnitOfWork{db: db, timeout: timeout}
}

func (u *UnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, repos ports.TxRepositories) error) error {
	if u == nil || u.db == nil {
		return errors.New("postgres unit of work not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	for attempt := 1; ; attempt++ {
		err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(ctx, ports.TxRepositories{
				Orders:      orderpostgres.NewRepository(tx),
				Stock:       invpostgres.NewStore(tx),
				Idempotency: NewIdempotencyStore(tx),
			})
		})
		if err == nil || attempt == maxAttempts || ctx.Err() != nil || !platformpostgres.IsRetryable(err) {
			return err
		}
	}
}
