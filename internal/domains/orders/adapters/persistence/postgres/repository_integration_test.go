//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Apurer/cafe-pos-server/internal/domains/orders/domain"
	"github.com/Apurer/cafe-pos-server/internal/domains/orders/ports"
	"github.com/Apurer/cafe-pos-server/internal/platform/postgres/postgrestest"
)

func newOrder(t *testing.T, owner int64) *domain.Order {
	t.Helper()
	size := int64(2)
	order, err := domain.NewOrder(owner, []domain.Line{
		{MenuItemID: 1, SizeID: &size, Quantity: 2, Price: decimal.RequireFromString("140.00"),
			Addons: []domain.Addon{{MenuItemID: 9, Price: decimal.RequireFromString("25.00")}}},
		{MenuItemID: 3, Quantity: 1, Price: decimal.RequireFromString("99.50")},
	}, "CASH", decimal.Zero, time.Now())
	require.NoError(t, err)
	return order
}

func TestRepository_CreateAndGet(t *testing.T) {
	db := postgrestest.Start(t, Models()...)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newOrder(t, 5))
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, fetched.Status)
	assert.True(t, fetched.Total.Equal(decimal.RequireFromString("429.50")), fetched.Total.String())
	require.Len(t, fetched.Lines, 2)
	assert.Equal(t, int64(1), fetched.Lines[0].MenuItemID)
	require.NotNil(t, fetched.Lines[0].SizeID)
	require.Len(t, fetched.Lines[0].Addons, 1)
	assert.True(t, fetched.Lines[0].Addons[0].Price.Equal(decimal.RequireFromString("25")))
	assert.Nil(t, fetched.Lines[1].SizeID)

	_, err = repo.GetByID(ctx, created.ID+100)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_UpdateStatusAndList(t *testing.T) {
	db := postgrestest.Start(t, Models()...)
	repo := NewRepository(db)
	ctx := context.Background()

	first, err := repo.Create(ctx, newOrder(t, 1))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newOrder(t, 2))
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		txRepo := NewRepository(tx)
		locked, err := txRepo.GetForUpdate(ctx, first.ID)
		if err != nil {
			return err
		}
		if err := locked.MarkPaid(time.Now()); err != nil {
			return err
		}
		return txRepo.UpdateStatus(ctx, locked)
	})
	require.NoError(t, err)

	paid, err := repo.List(ctx, ports.ListFilter{Statuses: []domain.Status{domain.StatusPaid}})
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, first.ID, paid[0].ID)
	assert.NotNil(t, paid[0].PaidAt)
	assert.Len(t, paid[0].Lines, 2)

	owned, err := repo.List(ctx, ports.ListFilter{OwnerUserID: 2})
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, domain.StatusPending, owned[0].Status)

	missing := &domain.Order{ID: 999, Status: domain.StatusPaid}
	assert.ErrorIs(t, repo.UpdateStatus(ctx, missing), ports.ErrNotFound)
}
