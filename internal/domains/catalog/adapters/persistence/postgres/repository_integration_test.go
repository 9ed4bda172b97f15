//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/cafe-pos-server/internal/domains/catalog/domain"
	"github.com/Apurer/cafe-pos-server/internal/domains/catalog/ports"
	"github.com/Apurer/cafe-pos-server/internal/platform/postgres/postgrestest"
)

func seedLatte(t *testing.T, repo *Repository) *domain.MenuItem {
	t.Helper()
	item, err := domain.NewMenuItem("Latte", domain.CategoryCoffee, domain.StatusAvailable, "", []domain.SizeVariant{
		{Label: "Small", Price: decimal.RequireFromString("120.00")},
		{Label: "Medium", Price: decimal.RequireFromString("140.00")},
	})
	require.NoError(t, err)
	saved, err := repo.SaveMenuItem(context.Background(), item)
	require.NoError(t, err)
	return saved
}

func TestRepository_SaveAndGetMenuItem(t *testing.T) {
	db := postgrestest.Start(t, Models()...)
	repo := NewRepository(db)
	ctx := context.Background()

	saved := seedLatte(t, repo)
	require.NotZero(t, saved.ID)
	require.Len(t, saved.Sizes, 2)
	assert.Equal(t, "Small", saved.Sizes[0].Label)
	assert.True(t, saved.Sizes[1].Price.Equal(decimal.RequireFromString("140")))

	list, err := repo.ListMenuItems(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.GetMenuItem(ctx, saved.ID+100)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_ReplaceRecipe(t *testing.T) {
	db := postgrestest.Start(t, Models()...)
	repo := NewRepository(db)
	ctx := context.Background()

	item := seedLatte(t, repo)
	medium := item.Sizes[1]

	_, err := repo.GetRecipe(ctx, item.ID, medium.ID)
	assert.ErrorIs(t, err, ports.ErrRecipeNotFound)

	first, err := domain.NewRecipe(item.ID, medium.ID, []domain.RecipeLine{
		{IngredientID: 1, QuantityNeeded: decimal.NewFromInt(10)},
		{IngredientID: 2, QuantityNeeded: decimal.NewFromInt(200)},
	})
	require.NoError(t, err)
	_, err = repo.ReplaceRecipe(ctx, first)
	require.NoError(t, err)

	second, err := domain.NewRecipe(item.ID, medium.ID, []domain.RecipeLine{
		{IngredientID: 3, QuantityNeeded: decimal.RequireFromString("0.5")},
	})
	require.NoError(t, err)
	stored, err := repo.ReplaceRecipe(ctx, second)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, int64(3), stored.Lines[0].IngredientID)

	var lineCount int64
	require.NoError(t, db.Model(&recipeLineRecord{}).Count(&lineCount).Error)
	assert.Equal(t, int64(1), lineCount)

	foreign, err := domain.NewRecipe(item.ID, medium.ID+100, nil)
	require.NoError(t, err)
	_, err = repo.ReplaceRecipe(ctx, foreign)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_UpdateSizePrice(t *testing.T) {
	db := postgrestest.Start(t, Models()...)
	repo := NewRepository(db)
	ctx := context.Background()

	item := seedLatte(t, repo)
	require.NoError(t, repo.UpdateSizePrice(ctx, item.ID, item.Sizes[0].ID, decimal.RequireFromString("125.50")))

	reloaded, err := repo.GetMenuItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Sizes[0].Price.Equal(decimal.RequireFromString("125.50")))

	err = repo.UpdateSizePrice(ctx, item.ID, item.Sizes[0].ID+100, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ports.ErrNotFound)
}
