package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Apurer/cafe-pos-server/internal/domains/catalog/domain"
	"github.com/Apurer/cafe-pos-server/internal/domains/catalog/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists the catalog in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed catalog repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Models lists the tables owned by this adapter for migrations.
func Models() []any {
	return []any{&menuItemRecord{}, &sizeVariantRecord{}, &recipeRecord{}, &recipeLineRecord{}}
}

type menuItemRecord struct {
	ID        int64               `gorm:"primaryKey;column:id"`
	Name      string              `gorm:"column:name;not null"`
	Category  string              `gorm:"column:category;type:varchar(16);index"`
	Status    string              `gorm:"column:status;type:varchar(16);index"`
	ImageRef  string              `gorm:"column:image_ref"`
	Sizes     []sizeVariantRecord `gorm:"foreignKey:MenuItemID"`
	CreatedAt time.Time           `gorm:"column:created_at"`
	UpdatedAt time.Time           `gorm:"column:updated_at"`
}

func (menuItemRecord) TableName() string { return "menu_items" }

type sizeVariantRecord struct {
	ID         int64           `gorm:"primaryKey;column:id"`
	MenuItemID int64           `gorm:"column:menu_item_id;index;not null"`
	Label      string          `gorm:"column:label;not null"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
}

func (sizeVariantRecord) TableName() string { return "menu_item_sizes" }

type recipeRecord struct {
	ID         int64              `gorm:"primaryKey;column:id"`
	MenuItemID int64              `gorm:"column:menu_item_id;uniqueIndex:idx_recipes_item_size;not null"`
	SizeID     int64              `gorm:"column:size_id;uniqueIndex:idx_recipes_item_size;not null"`
	Lines      []recipeLineRecord `gorm:"foreignKey:RecipeID"`
	CreatedAt  time.Time          `gorm:"column:created_at"`
}

func (recipeRecord) TableName() string { return "recipes" }

type recipeLineRecord struct {
	ID             int64           `gorm:"primaryKey;column:id"`
	RecipeID       int64           `gorm:"column:recipe_id;index;not null"`
	Position       int             `gorm:"column:position"`
	IngredientID   int64           `gorm:"column:ingredient_id;index;not null"`
	QuantityNeeded decimal.Decimal `gorm:"column:quantity_needed;type:numeric(14,3);not null"`
}

func (recipeLineRecord) TableName() string { return "recipe_lines" }

// SaveMenuItem inserts a new menu item together with its sizes.
func (r *Repository) SaveMenuItem(ctx context.Context, item *domain.MenuItem) (*domain.MenuItem, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.New("menu item is nil")
	}
	record := toMenuItemRecord(item)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetMenuItem(ctx, record.ID)
}

// GetMenuItem loads a menu item and its sizes.
func (r *Repository) GetMenuItem(ctx context.Context, id int64) (*domain.MenuItem, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record menuItemRecord
	err := r.db.WithContext(ctx).
		Preload("Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// ListMenuItems returns all menu items ordered by id.
func (r *Repository) ListMenuItems(ctx context.Context) ([]*domain.MenuItem, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []menuItemRecord
	err := r.db.WithContext(ctx).
		Preload("Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	items := make([]*domain.MenuItem, 0, len(records))
	for i := range records {
		items = append(items, records[i].toDomain())
	}
	return items, nil
}

// UpdateSizePrice reprices a size of a menu item.
func (r *Repository) UpdateSizePrice(ctx context.Context, menuItemID, sizeID int64, price decimal.Decimal) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&sizeVariantRecord{}).
		Where("id = ? AND menu_item_id = ?", sizeID, menuItemID).
		Update("price", price)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// GetRecipe loads the recipe of a (menu item, size) pair.
func (r *Repository) GetRecipe(ctx context.Context, menuItemID, sizeID int64) (*domain.Recipe, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record recipeRecord
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&record, "menu_item_id = ? AND size_id = ?", menuItemID, sizeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrRecipeNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// ReplaceRecipe deletes the existing recipe and its lines, then inserts the new one.
func (r *Repository) ReplaceRecipe(ctx context.Context, recipe *domain.Recipe) (*domain.Recipe, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, errors.New("recipe is nil")
	}
	record := toRecipeRecord(recipe)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sizes int64
		if err := tx.Model(&sizeVariantRecord{}).
			Where("id = ? AND menu_item_id = ?", recipe.SizeID, recipe.MenuItemID).
			Count(&sizes).Error; err != nil {
			return err
		}
		if sizes == 0 {
			return ports.ErrNotFound
		}
		var existing []int64
		if err := tx.Model(&recipeRecord{}).
			Where("menu_item_id = ? AND size_id = ?", recipe.MenuItemID, recipe.SizeID).
			Pluck("id", &existing).Error; err != nil {
			return err
		}
		if len(existing) > 0 {
			if err := tx.Where("recipe_id = ANY(?)", pq.Array(existing)).Delete(&recipeLineRecord{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id = ANY(?)", pq.Array(existing)).Delete(&recipeRecord{}).Error; err != nil {
				return err
			}
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetRecipe(ctx, recipe.MenuItemID, recipe.SizeID)
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres catalog repository not configured")
	}
	return nil
}

func toMenuItemRecord(item *domain.MenuItem) menuItemRecord {
	record := menuItemRecord{
		ID:       item.ID,
		Name:     item.Name,
		Category: string(item.Category),
		Status:   string(item.Status),
		ImageRef: item.ImageRef,
	}
	for _, size := range item.Sizes {
		record.Sizes = append(record.Sizes, sizeVariantRecord{
			ID:    size.ID,
			Label: size.Label,
			Price: size.Price,
		})
	}
	return record
}

func (r menuItemRecord) toDomain() *domain.MenuItem {
	item := &domain.MenuItem{
		ID:       r.ID,
		Name:     r.Name,
		Category: domain.Category(r.Category),
		Status:   domain.Status(r.Status),
		ImageRef: r.ImageRef,
		Sizes:    make([]domain.SizeVariant, 0, len(r.Sizes)),
	}
	for _, size := range r.Sizes {
		item.Sizes = append(item.Sizes, domain.SizeVariant{
			ID:         size.ID,
			MenuItemID: size.MenuItemID,
			Label:      size.Label,
			Price:      size.Price,
		})
	}
	return item
}

func toRecipeRecord(recipe *domain.Recipe) recipeRecord {
	record := recipeRecord{MenuItemID: recipe.MenuItemID, SizeID: recipe.SizeID}
	for i, line := range recipe.Lines {
		record.Lines = append(record.Lines, recipeLineRecord{
			Position:       i,
			IngredientID:   line.IngredientID,
			QuantityNeeded: line.QuantityNeeded,
		})
	}
	return record
}

func (r recipeRecord) toDomain() *domain.Recipe {
	recipe := &domain.Recipe{
		ID:         r.ID,
		MenuItemID: r.MenuItemID,
		SizeID:     r.SizeID,
		Lines:      make([]domain.RecipeLine, 0, len(r.Lines)),
	}
	for _, line := range r.Lines {
		recipe.Lines = append(recipe.Lines, domain.RecipeLine{
			IngredientID:   line.IngredientID,
			QuantityNeeded: line.QuantityNeeded,
		})
	}
	return recipe
}
