package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/cafe-pos-server/internal/domains/inventory/domain"
	"github.com/Apurer/cafe-pos-server/internal/domains/inventory/ports"
)

var (
	_ ports.Repository  = (*Store)(nil)
	_ ports.StockLedger = (*Store)(nil)
)

// Store persists ingredients and applies conditional stock updates in PostgreSQL.
// Bind it to a transaction handle to join an outer unit of work.
type Store struct {
	db *gorm.DB
}

// NewStore wires a PostgreSQL-backed stock store. Caller manages DB lifecycle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Models lists the tables owned by this adapter for migrations.
func Models() []any {
	return []any{&ingredientRecord{}, &movementRecord{}}
}

type ingredientRecord struct {
	ID           int64           `gorm:"primaryKey;column:id"`
	Name         string          `gorm:"column:name;not null"`
	Category     string          `gorm:"column:category"`
	Stock        decimal.Decimal `gorm:"column:stock;type:numeric(14,3);not null;check:chk_ingredients_stock_non_negative,stock >= 0"`
	Threshold    decimal.Decimal `gorm:"column:threshold;type:numeric(14,3);not null"`
	SupplierID   *int64          `gorm:"column:supplier_id"`
	UnitID       *int64          `gorm:"column:unit_id"`
	PackagePrice decimal.Decimal `gorm:"column:package_price;type:numeric(12,2)"`
	QtyPerPack   decimal.Decimal `gorm:"column:qty_per_pack;type:numeric(14,3)"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at"`
}

func (ingredientRecord) TableName() string { return "ingredients" }

type movementRecord struct {
	ID           int64           `gorm:"primaryKey;column:id"`
	IngredientID int64           `gorm:"column:ingredient_id;index:idx_stock_movements_ingredient;not null"`
	Delta        decimal.Decimal `gorm:"column:delta;type:numeric(14,3);not null"`
	Balance      decimal.Decimal `gorm:"column:balance;type:numeric(14,3);not null"`
	Reason       string          `gorm:"column:reason;type:varchar(16)"`
	Reference    string          `gorm:"column:reference;index"`
	CreatedAt    time.Time       `gorm:"column:created_at;index"`
}

func (movementRecord) TableName() string { return "stock_movements" }

// Create inserts a new ingredient.
func (s *Store) Create(ctx context.Context, ingredient *domain.Ingredient) (*domain.Ingredient, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	if ingredient == nil {
		return nil, errors.New("ingredient is nil")
	}
	record := toRecord(ingredient)
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

// GetByID fetches an ingredient by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Ingredient, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record ingredientRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// List returns all ingredients ordered by id.
func (s *Store) List(ctx context.Context) ([]*domain.Ingredient, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	return s.find(ctx, s.db)
}

// ListLowStock returns ingredients at or below their reorder threshold.
func (s *Store) ListLowStock(ctx context.Context) ([]*domain.Ingredient, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	return s.find(ctx, s.db.Where("stock <= threshold"))
}

// ListMovements returns the newest movements of an ingredient first.
func (s *Store) ListMovements(ctx context.Context, ingredientID int64, limit int) ([]domain.Movement, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).
		Where("ingredient_id = ?", ingredientID).
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []movementRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Movement, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.toDomain())
	}
	return out, nil
}

// Decrement subtracts amount only when enough stock remains.
func (s *Store) Decrement(ctx context.Context, ingredientID int64, amount decimal.Decimal, reference string) (decimal.Decimal, error) {
	if err := s.ensureDB(); err != nil {
		return decimal.Zero, err
	}
	if amount.IsNegative() {
		return decimal.Zero, domain.ErrNegativeAmount
	}
	var balance decimal.Decimal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req := domain.Requirement{IngredientID: ingredientID, Amount: amount}
		next, ok, err := decrementRow(tx, req)
		if err != nil {
			return err
		}
		if !ok {
			return shortagesFor(tx, []domain.Requirement{req})
		}
		balance = next
		return insertMovement(tx, ingredientID, amount.Neg(), next, domain.ReasonSale, reference)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// Increment adds a non-negative amount and records the movement.
func (s *Store) Increment(ctx context.Context, ingredientID int64, amount decimal.Decimal, reason domain.MovementReason, reference string) (decimal.Decimal, error) {
	if err := s.ensureDB(); err != nil {
		return decimal.Zero, err
	}
	if amount.IsNegative() {
		return decimal.Zero, domain.ErrNegativeAmount
	}
	var balance decimal.Decimal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []ingredientRecord
		result := tx.Model(&rows).
			Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}, {Name: "stock"}}}).
			Where("id = ?", ingredientID).
			Update("stock", gorm.Expr("stock + ?", amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 || len(rows) == 0 {
			return ports.ErrNotFound
		}
		balance = rows[0].Stock
		return insertMovement(tx, ingredientID, amount, balance, reason, reference)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// BatchDecrement runs one conditional update per ingredient in ascending id order.
// If any row is short the savepoint rolls back and every shortage is reported.
func (s *Store) BatchDecrement(ctx context.Context, requirements []domain.Requirement, reference string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	for _, req := range requirements {
		if req.Amount.IsNegative() {
			return domain.ErrNegativeAmount
		}
	}
	sorted := domain.MergeRequirements(requirements)
	if len(sorted) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var short []domain.Requirement
		balances := make(map[int64]decimal.Decimal, len(sorted))
		for _, req := range sorted {
			next, ok, err := decrementRow(tx, req)
			if err != nil {
				return err
			}
			if !ok {
				short = append(short, req)
				continue
			}
			balances[req.IngredientID] = next
		}
		if len(short) > 0 {
			return shortagesFor(tx, short)
		}
		for _, req := range sorted {
			if err := insertMovement(tx, req.IngredientID, req.Amount.Neg(), balances[req.IngredientID], domain.ReasonSale, reference); err != nil {
				return err
			}
		}
		return nil
	})
}

func decrementRow(tx *gorm.DB, req domain.Requirement) (decimal.Decimal, bool, error) {
	var rows []ingredientRecord
	result := tx.Model(&rows).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}, {Name: "stock"}}}).
		Where("id = ? AND stock >= ?", req.IngredientID, req.Amount).
		Update("stock", gorm.Expr("stock - ?", req.Amount))
	if result.Error != nil {
		return decimal.Zero, false, result.Error
	}
	if result.RowsAffected == 0 || len(rows) == 0 {
		return decimal.Zero, false, nil
	}
	return rows[0].Stock, true, nil
}

func shortagesFor(tx *gorm.DB, short []domain.Requirement) error {
	ids := make([]int64, 0, len(short))
	for _, req := range short {
		ids = append(ids, req.IngredientID)
	}
	var records []ingredientRecord
	if err := tx.Select("id", "name", "stock").
		Where("id = ANY(?)", pq.Array(ids)).
		Find(&records).Error; err != nil {
		return err
	}
	byID := make(map[int64]ingredientRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}
	shortages := make([]domain.Shortage, 0, len(short))
	for _, req := range short {
		shortage := domain.Shortage{IngredientID: req.IngredientID, Required: req.Amount, Available: decimal.Zero}
		if rec, ok := byID[req.IngredientID]; ok {
			shortage.Name = rec.Name
			shortage.Available = rec.Stock
		}
		shortages = append(shortages, shortage)
	}
	return &domain.InsufficientStockError{Shortages: shortages}
}

func insertMovement(tx *gorm.DB, ingredientID int64, delta, balance decimal.Decimal, reason domain.MovementReason, reference string) error {
	rec := movementRecord{
		IngredientID: ingredientID,
		Delta:        delta,
		Balance:      balance,
		Reason:       string(reason),
		Reference:    reference,
	}
	return tx.Create(&rec).Error
}

func (s *Store) find(ctx context.Context, query *gorm.DB) ([]*domain.Ingredient, error) {
	var records []ingredientRecord
	if err := query.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Ingredient, 0, len(records))
	for i := range records {
		out = append(out, records[i].toDomain())
	}
	return out, nil
}

func (s *Store) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres stock store not configured")
	}
	return nil
}

func toRecord(ing *domain.Ingredient) ingredientRecord {
	return ingredientRecord{
		ID:           ing.ID,
		Name:         ing.Name,
		Category:     ing.Category,
		Stock:        ing.Stock,
		Threshold:    ing.Threshold,
		SupplierID:   ing.SupplierID,
		UnitID:       ing.UnitID,
		PackagePrice: ing.PackagePrice,
		QtyPerPack:   ing.QtyPerPack,
	}
}

func (r ingredientRecord) toDomain() *domain.Ingredient {
	return &domain.Ingredient{
		ID:           r.ID,
		Name:         r.Name,
		Category:     r.Category,
		Stock:        r.Stock,
		Threshold:    r.Threshold,
		SupplierID:   r.SupplierID,
		UnitID:       r.UnitID,
		PackagePrice: r.PackagePrice,
		QtyPerPack:   r.QtyPerPack,
	}
}

func (r movementRecord) toDomain() domain.Movement {
	return domain.Movement{
		ID:           r.ID,
		IngredientID: r.IngredientID,
		Delta:        r.Delta,
		Balance:      r.Balance,
		Reason:       domain.MovementReason(r.Reason),
		Reference:    r.Reference,
		CreatedAt:    r.CreatedAt,
	}
}
