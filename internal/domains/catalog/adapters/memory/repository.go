package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Apurer/cafe-pos-server/internal/domains/catalog/domain"
	"github.com/Apurer/cafe-pos-server/internal/domains/catalog/ports"
)

var _ ports.Repository = (*Repository)(nil)

type recipeKey struct {
	menuItemID int64
	sizeID     int64
}

// Repository is an in-memory catalog persistence adapter.
type Repository struct {
	mu           sync.RWMutex
	items        map[int64]*domain.MenuItem
	recipes      map[recipeKey]*domain.Recipe
	nextItemID   int64
	nextSizeID   int64
	nextRecipeID int64
}

func NewRepository() *Repository {
	return &Repository{
		items:   map[int64]*domain.MenuItem{},
		recipes: map[recipeKey]*domain.Recipe{},
	}
}

func (r *Repository) SaveMenuItem(_ context.Context, item *domain.MenuItem) (*domain.MenuItem, error) {
	if item == nil {
		return nil, errors.New("menu item is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := cloneItem(item)
	if clone.ID == 0 {
		r.nextItemID++
		clone.ID = r.nextItemID
	} else if clone.ID > r.nextItemID {
		r.nextItemID = clone.ID
	}
	for i := range clone.Sizes {
		clone.Sizes[i].MenuItemID = clone.ID
		if clone.Sizes[i].ID == 0 {
			r.nextSizeID++
			clone.Sizes[i].ID = r.nextSizeID
		} else if clone.Sizes[i].ID > r.nextSizeID {
			r.nextSizeID = clone.Sizes[i].ID
		}
	}
	r.items[clone.ID] = clone
	return cloneItem(clone), nil
}

func (r *Repository) GetMenuItem(_ context.Context, id int64) (*domain.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneItem(item), nil
}

func (r *Repository) ListMenuItems(_ context.Context) ([]*domain.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.MenuItem, 0, len(r.items))
	for _, item := range r.items {
		list = append(list, cloneItem(item))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *Repository) UpdateSizePrice(_ context.Context, menuItemID, sizeID int64, price decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[menuItemID]
	if !ok {
		return ports.ErrNotFound
	}
	return item.ChangePrice(sizeID, price)
}

func (r *Repository) GetRecipe(_ context.Context, menuItemID, sizeID int64) (*domain.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recipe, ok := r.recipes[recipeKey{menuItemID: menuItemID, sizeID: sizeID}]
	if !ok {
		return nil, ports.ErrRecipeNotFound
	}
	return cloneRecipe(recipe), nil
}

func (r *Repository) ReplaceRecipe(_ context.Context, recipe *domain.Recipe) (*domain.Recipe, error) {
	if recipe == nil {
		return nil, errors.New("recipe is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[recipe.MenuItemID]; !ok {
		return nil, ports.ErrNotFound
	}
	clone := cloneRecipe(recipe)
	r.nextRecipeID++
	clone.ID = r.nextRecipeID
	r.recipes[recipeKey{menuItemID: clone.MenuItemID, sizeID: clone.SizeID}] = clone
	return cloneRecipe(clone), nil
}

func cloneItem(item *domain.MenuItem) *domain.MenuItem {
	clone := *item
	clone.Sizes = append([]domain.SizeVariant(nil), item.Sizes...)
	return &clone
}

func cloneRecipe(recipe *domain.Recipe) *domain.Recipe {
	clone := *recipe
	clone.Lines = recipe.CloneLines()
	return &clone
}
