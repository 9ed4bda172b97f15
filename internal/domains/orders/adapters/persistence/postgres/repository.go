package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/cafe-pos-server/internal/domains/orders/domain"
	"github.com/Apurer/cafe-pos-server/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Models lists the tables owned by this adapter for migrations.
func Models() []any {
	return []any{&orderRecord{}, &orderLineRecord{}}
}

// orderRecord maps the order aggregate to a relational table.
type orderRecord struct {
	ID            int64           `gorm:"primaryKey;column:id"`
	OwnerUserID   int64           `gorm:"column:owner_user_id;index:idx_orders_owner_status"`
	BaseTotal     decimal.Decimal `gorm:"column:base_total;type:numeric(12,2);not null"`
	Discount      decimal.Decimal `gorm:"column:discount;type:numeric(12,2);not null"`
	Total         decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	Status        string          `gorm:"column:status;type:varchar(16);index:idx_orders_owner_status;index"`
	PaymentMethod string          `gorm:"column:payment_method"`
	CreatedAt     time.Time       `gorm:"column:created_at;index"`
	PaidAt        *time.Time      `gorm:"column:paid_at"`
	CompletedAt   *time.Time      `gorm:"column:completed_at"`
	CancelledAt   *time.Time      `gorm:"column:cancelled_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type orderLineRecord struct {
	ID         int64           `gorm:"primaryKey;column:id"`
	OrderID    int64           `gorm:"column:order_id;index;not null"`
	Position   int             `gorm:"column:position"`
	MenuItemID int64           `gorm:"column:menu_item_id;not null"`
	SizeID     *int64          `gorm:"column:size_id"`
	Quantity   int32           `gorm:"column:quantity;not null"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Addons     []addonRecord   `gorm:"column:addons;serializer:json"`
}

func (orderLineRecord) TableName() string { return "order_lines" }

type addonRecord struct {
	MenuItemID int64           `json:"menuItemId"`
	Price      decimal.Decimal `json:"price"`
}

// Create inserts the order header and its lines.
func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record, lines := toRecords(order)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].OrderID = record.ID
		}
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
	if err != nil {
		return nil, err
	}
	return toDomain(record, lines), nil
}

// GetByID fetches an order and its lines.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return r.get(ctx, id, false)
}

// GetForUpdate fetches an order with SELECT ... FOR UPDATE. Call it on a transaction handle.
func (r *Repository) GetForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return r.get(ctx, id, true)
}

// UpdateStatus writes status and lifecycle timestamps.
func (r *Repository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if order == nil {
		return errors.New("order is nil")
	}
	result := r.db.WithContext(ctx).
		Model(&orderRecord{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"status":       string(order.Status),
			"paid_at":      order.PaidAt,
			"completed_at": order.CompletedAt,
			"cancelled_at": order.CancelledAt,
			"updated_at":   gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// List returns orders matching the filter, oldest first.
func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).Model(&orderRecord{})
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, string(status))
		}
		query = query.Where("status = ANY(?)", pq.Array(statuses))
	}
	if filter.OwnerUserID > 0 {
		query = query.Where("owner_user_id = ?", filter.OwnerUserID)
	}
	var records []orderRecord
	if err := query.Order("created_at, id").Find(&records).Error; err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []*domain.Order{}, nil
	}

	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	var lines []orderLineRecord
	if err := r.db.WithContext(ctx).
		Where("order_id = ANY(?)", pq.Array(ids)).
		Order("order_id, position").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	byOrder := make(map[int64][]orderLineRecord, len(records))
	for _, line := range lines {
		byOrder[line.OrderID] = append(byOrder[line.OrderID], line)
	}
	orders := make([]*domain.Order, 0, len(records))
	for _, rec := range records {
		orders = append(orders, toDomain(rec, byOrder[rec.ID]))
	}
	return orders, nil
}

func (r *Repository) get(ctx context.Context, id int64, lock bool) (*domain.Order, error) {
	query := r.db.WithContext(ctx)
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var record orderRecord
	if err := query.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	var lines []orderLineRecord
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Order("position").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return toDomain(record, lines), nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecords(order *domain.Order) (orderRecord, []orderLineRecord) {
	record := orderRecord{
		ID:            order.ID,
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
	}
	lines := make([]orderLineRecord, 0, len(order.Lines))
	for i, line := range order.Lines {
		rec := orderLineRecord{
			ID:         line.ID,
			Position:   i,
			MenuItemID: line.MenuItemID,
			SizeID:     line.SizeID,
			Quantity:   line.Quantity,
			Price:      line.Price,
			Addons:     make([]addonRecord, 0, len(line.Addons)),
		}
		for _, addon := range line.Addons {
			rec.Addons = append(rec.Addons, addonRecord{MenuItemID: addon.MenuItemID, Price: addon.Price})
		}
		lines = append(lines, rec)
	}
	return record, lines
}

func toDomain(record orderRecord, lines []orderLineRecord) *domain.Order {
	order := &domain.Order{
		ID:            record.ID,
		OwnerUserID:   record.OwnerUserID,
		BaseTotal:     record.BaseTotal,
		Discount:      record.Discount,
		Total:         record.Total,
		Status:        domain.Status(record.Status),
		PaymentMethod: record.PaymentMethod,
		CreatedAt:     record.CreatedAt.UTC(),
		PaidAt:        record.PaidAt,
		CompletedAt:   record.CompletedAt,
		CancelledAt:   record.CancelledAt,
		Lines:         make([]domain.Line, 0, len(lines)),
	}
	for _, rec := range lines {
		line := domain.Line{
			ID:         rec.ID,
			OrderID:    rec.OrderID,
			MenuItemID: rec.MenuItemID,
			SizeID:     rec.SizeID,
			Quantity:   rec.Quantity,
			Price:      rec.Price,
		}
		for _, addon := range rec.Addons {
			line.Addons = append(line.Addons, domain.Addon{MenuItemID: addon.MenuItemID, Price: addon.Price})
		}
		order.Lines = append(order.Lines, line)
	}
	return order
}
