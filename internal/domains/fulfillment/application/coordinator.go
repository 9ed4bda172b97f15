package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	catalogports "github.com/Apurer/cafe-pos-server/internal/domains/catalog/ports"
	fulfilltypes "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/application/types"
	"github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/ports"
	invdomain "github.com/Apurer/cafe-pos-server/internal/domains/inventory/domain"
	orderapp "github.com/Apurer/cafe-pos-server/internal/domains/orders/application"
	orderdomain "github.com/Apurer/cafe-pos-server/internal/domains/orders/domain"
	orderports "github.com/Apurer/cafe-pos-server/internal/domains/orders/ports"
)

// errReplayed aborts a create whose idempotency key was claimed concurrently; the
// stored order is returned instead.
var errReplayed = errors.New("idempotent create replayed")

// Coordinator runs create, pay, complete, and cancel as single units of work.
type Coordinator struct {
	uow     ports.UnitOfWork
	recipes catalogports.RecipeResolver
	orders  orderports.Repository
	loyalty ports.LoyaltyDispatcher
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Coordinator)

// WithLogger sets the logger used for loyalty and replay notices.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLoyaltyDispatcher enables post-payment loyalty awards.
func WithLoyaltyDispatcher(d ports.LoyaltyDispatcher) Option {
	return func(c *Coordinator) {
		c.loyalty = d
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCoordinator wires the fulfillment flow. orders serves reads outside a transaction.
func NewCoordinator(uow ports.UnitOfWork, recipes catalogports.RecipeResolver, orders orderports.Repository, opts ...Option) *Coordinator {
	c := &Coordinator{
		uow:     uow,
		recipes: recipes,
		orders:  orders,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// CreateOrder snapshots the cart into a PENDING order. A repeated idempotency key with the
// same cart returns the original order; with a different cart it fails with ErrIdempotencyConflict.
func (c *Coordinator) CreateOrder(ctx context.Context, cmd fulfilltypes.CreateOrderCommand) (*orderdomain.Order, error) {
	key := strings.TrimSpace(cmd.IdempotencyKey)
	var hash string
	if key != "" {
		var err error
		if hash, err = FingerprintCart(cmd.CreateOrderInput); err != nil {
			return nil, err
		}
	}

	var result *orderdomain.Order
	err := c.uow.Within(ctx, func(ctx context.Context, repos ports.TxRepositories) error {
		if key != "" {
			existing, err := repos.Idempotency.Get(ctx, key)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.RequestHash != hash {
					return ports.ErrIdempotencyConflict
				}
				result, err = repos.Orders.GetByID(ctx, existing.OrderID)
				return err
			}
		}

		order, err := c.ledger(repos).CreateOrder(ctx, cmd.CreateOrderInput)
		if err != nil {
			return err
		}
		result = order
		if key == "" {
			return nil
		}

		stored, err := repos.Idempotency.Save(ctx, ports.IdempotencyRecord{Key: key, RequestHash: hash, OrderID: order.ID})
		if err != nil {
			return err
		}
		if stored.OrderID != order.ID {
			result, err = repos.Orders.GetByID(ctx, stored.OrderID)
			if err != nil {
				return err
			}
			return errReplayed
		}
		return nil
	})
	if errors.Is(err, errReplayed) {
		c.logger.LogAttrs(ctx, slog.LevelInfo, "create order replayed concurrent idempotency key",
			slog.Int64("order.id", result.ID))
		return result, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

// PayOrder locks the order, consumes every recipe ingredient, and marks it PAID in one
// transaction. Loyalty points are dispatched only after commit and never fail the payment.
// Recipes are read through the catalog outside that transaction.
func (c *Coordinator) PayOrder(ctx context.Context, input fulfilltypes.PayOrderInput) (*orderdomain.Order, error) {
	var paid *orderdomain.Order
	err := c.uow.Within(ctx, func(ctx context.Context, repos ports.TxRepositories) error {
		ledger := c.ledger(repos)
		order, err := ledger.Lock(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status != orderdomain.StatusPending {
			return &orderdomain.InvalidTransitionError{OrderID: order.ID, From: order.Status, To: orderdomain.StatusPaid}
		}

		requirements, err := c.requirements(ctx, order)
		if err != nil {
			return err
		}
		if err := repos.Stock.BatchDecrement(ctx, requirements.Sorted(), saleReference(order.ID)); err != nil {
			return err
		}

		paid, err = ledger.TransitionToPaid(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}

	if phone := strings.TrimSpace(input.LoyaltyPhone); phone != "" {
		c.dispatchLoyalty(ctx, paid, phone)
	}
	return paid, nil
}

// CompleteOrder moves a PAID order to COMPLETED.
func (c *Coordinator) CompleteOrder(ctx context.Context, orderID int64) (*orderdomain.Order, error) {
	return c.transition(ctx, orderID, (*orderapp.Ledger).TransitionToCompleted)
}

// CancelOrder moves a PENDING or PAID order to CANCELLED. Stock consumed by a paid
// order is not restored.
func (c *Coordinator) CancelOrder(ctx context.Context, orderID int64) (*orderdomain.Order, error) {
	return c.transition(ctx, orderID, (*orderapp.Ledger).TransitionToCancelled)
}

// GetOrder returns one order with its line snapshots.
func (c *Coordinator) GetOrder(ctx context.Context, orderID int64) (*orderdomain.Order, error) {
	order, err := c.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	return order, nil
}

// ListOrders returns orders matching filter.
func (c *Coordinator) ListOrders(ctx context.Context, filter orderports.ListFilter) ([]*orderdomain.Order, error) {
	orders, err := c.orders.List(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

// ListPending returns the PENDING queue, oldest first.
func (c *Coordinator) ListPending(ctx context.Context) ([]*orderdomain.Order, error) {
	return c.ListOrders(ctx, orderports.ListFilter{Statuses: []orderdomain.Status{orderdomain.StatusPending}})
}

func (c *Coordinator) transition(ctx context.Context, orderID int64, apply func(*orderapp.Ledger, context.Context, int64) (*orderdomain.Order, error)) (*orderdomain.Order, error) {
	var result *orderdomain.Order
	err := c.uow.Within(ctx, func(ctx context.Context, repos ports.TxRepositories) error {
		order, err := apply(c.ledger(repos), ctx, orderID)
		result = order
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

type recipeKey struct {
	menuItemID int64
	sizeID     int64
}

// requirements aggregates ingredient amounts over every line and add-on. Add-ons resolve
// through their single size and scale with the line quantity.
func (c *Coordinator) requirements(ctx context.Context, order *orderdomain.Order) (invdomain.Requirements, error) {
	requirements := invdomain.Requirements{}
	cache := map[recipeKey][]recipeAmount{}
	resolve := func(menuItemID int64, sizeID *int64) ([]recipeAmount, error) {
		key := recipeKey{menuItemID: menuItemID}
		if sizeID != nil {
			key.sizeID = *sizeID
		}
		if lines, ok := cache[key]; ok {
			return lines, nil
		}
		recipe, err := c.recipes.GetRecipe(ctx, menuItemID, sizeID)
		if err != nil {
			return nil, fmt.Errorf("resolve recipe for menu item %d: %w", menuItemID, err)
		}
		lines := make([]recipeAmount, 0, len(recipe))
		for _, rl := range recipe {
			lines = append(lines, recipeAmount{ingredientID: rl.IngredientID, perUnit: rl.QuantityNeeded})
		}
		cache[key] = lines
		return lines, nil
	}

	for _, line := range order.Lines {
		qty := decimal.NewFromInt32(line.Quantity)
		recipe, err := resolve(line.MenuItemID, line.SizeID)
		if err != nil {
			return nil, err
		}
		for _, rl := range recipe {
			requirements.Add(rl.ingredientID, rl.perUnit.Mul(qty))
		}
		for _, addon := range line.Addons {
			addonRecipe, err := resolve(addon.MenuItemID, nil)
			if err != nil {
				return nil, err
			}
			for _, rl := range addonRecipe {
				requirements.Add(rl.ingredientID, rl.perUnit.Mul(qty))
			}
		}
	}
	return requirements, nil
}

type recipeAmount struct {
	ingredientID int64
	perUnit      decimal.Decimal
}

func (c *Coordinator) dispatchLoyalty(ctx context.Context, order *orderdomain.Order, phone string) {
	if c.loyalty == nil {
		c.logger.LogAttrs(ctx, slog.LevelInfo, "loyalty not configured; skipping award", slog.Int64("order.id", order.ID))
		return
	}
	award := ports.LoyaltyAward{
		OrderID:     order.ID,
		OrderRef:    order.Reference(),
		Phone:       phone,
		TotalAmount: order.Total,
		Items:       make([]ports.LoyaltyItem, 0, len(order.Lines)),
	}
	for _, line := range order.Lines {
		award.Items = append(award.Items, ports.LoyaltyItem{
			MenuItemID: line.MenuItemID,
			SizeID:     line.SizeID,
			Quantity:   line.Quantity,
			Price:      line.UnitPrice(),
		})
	}
	if err := c.loyalty.DispatchAward(ctx, award); err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "loyalty award failed; order stays paid",
			slog.Int64("order.id", order.ID),
			slog.String("order.ref", award.OrderRef),
			slog.String("error", err.Error()))
	}
}

func (c *Coordinator) ledger(repos ports.TxRepositories) *orderapp.Ledger {
	return orderapp.NewLedger(repos.Orders, orderapp.WithClock(c.now))
}

func saleReference(orderID int64) string {
	return fmt.Sprintf("order:%d", orderID)
}

var _ ports.Service = (*Coordinator)(nil)
