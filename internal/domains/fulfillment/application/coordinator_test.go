package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogmemory "github.com/Apurer/cafe-pos-server/internal/domains/catalog/adapters/memory"
	catalogapp "github.com/Apurer/cafe-pos-server/internal/domains/catalog/application"
	catalogtypes "github.com/Apurer/cafe-pos-server/internal/domains/catalog/application/types"
	catalogdomain "github.com/Apurer/cafe-pos-server/internal/domains/catalog/domain"
	fulfillmemory "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/adapters/memory"
	fulfilltypes "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/application/types"
	"github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/ports"
	invmemory "github.com/Apurer/cafe-pos-server/internal/domains/inventory/adapters/memory"
	invdomain "github.com/Apurer/cafe-pos-server/internal/domains/inventory/domain"
	ordermemory "github.com/Apurer/cafe-pos-server/internal/domains/orders/adapters/memory"
	ordertypes "github.com/Apurer/cafe-pos-server/internal/domains/orders/application/types"
	orderdomain "github.com/Apurer/cafe-pos-server/internal/domains/orders/domain"
	orderports "github.com/Apurer/cafe-pos-server/internal/domains/orders/ports"
)

type harness struct {
	t       *testing.T
	catalog *catalogapp.Service
	stock   *invmemory.Store
	orders  *ordermemory.Repository
	uow     ports.UnitOfWork
	loyalty *fakeDispatcher
	coord   *Coordinator
}

type fakeDispatcher struct {
	mu     sync.Mutex
	awards []ports.LoyaltyAward
	err    error
}

func (f *fakeDispatcher) DispatchAward(_ context.Context, award ports.LoyaltyAward) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.awards = append(f.awards, award)
	return f.err
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:       t,
		catalog: catalogapp.NewService(catalogmemory.NewRepository()),
		stock:   invmemory.NewStore(),
		orders:  ordermemory.NewRepository(),
		loyalty: &fakeDispatcher{},
	}
	h.uow = fulfillmemory.NewUnitOfWork(h.orders, h.stock, fulfillmemory.NewIdempotencyStore(), 5*time.Second)
	h.rebuild()
	return h
}

func (h *harness) rebuild() {
	h.coord = NewCoordinator(h.uow, h.catalog, h.orders, WithLoyaltyDispatcher(h.loyalty))
}

func (h *harness) ingredient(name string, stock int64) int64 {
	h.t.Helper()
	ing, err := invdomain.NewIngredient(name, "", decimal.NewFromInt(stock), decimal.Zero, decimal.Zero, decimal.Zero, nil, nil)
	require.NoError(h.t, err)
	saved, err := h.stock.Create(context.Background(), ing)
	require.NoError(h.t, err)
	return saved.ID
}

func (h *harness) menuItem(name string, category catalogdomain.Category, sizes ...string) *catalogdomain.MenuItem {
	h.t.Helper()
	input := catalogtypes.CreateMenuItemInput{Name: name, Category: string(category)}
	for _, label := range sizes {
		input.Sizes = append(input.Sizes, catalogtypes.SizeInput{Label: label, Price: decimal.NewFromInt(100)})
	}
	item, err := h.catalog.CreateMenuItem(context.Background(), input)
	require.NoError(h.t, err)
	return item
}

func (h *harness) recipe(item *catalogdomain.MenuItem, sizeIdx int, lines map[int64]string) {
	h.t.Helper()
	input := catalogtypes.ReplaceRecipeInput{MenuItemID: item.ID, SizeID: item.Sizes[sizeIdx].ID}
	for id, qty := range lines {
		input.Lines = append(input.Lines, catalogtypes.RecipeLineInput{IngredientID: id, QuantityNeeded: decimal.RequireFromString(qty)})
	}
	_, err := h.catalog.ReplaceRecipe(context.Background(), input)
	require.NoError(h.t, err)
}

func (h *harness) stockOf(id int64) decimal.Decimal {
	h.t.Helper()
	ing, err := h.stock.GetByID(context.Background(), id)
	require.NoError(h.t, err)
	return ing.Stock
}

func (h *harness) order(lines ...ordertypes.LineInput) *orderdomain.Order {
	h.t.Helper()
	order, err := h.coord.CreateOrder(context.Background(), fulfilltypes.CreateOrderCommand{
		CreateOrderInput: ordertypes.CreateOrderInput{OwnerUserID: 1, PaymentMethod: "CASH", Lines: lines},
	})
	require.NoError(h.t, err)
	return order
}

func line(item *catalogdomain.MenuItem, sizeIdx int, qty int32, addons ...*catalogdomain.MenuItem) ordertypes.LineInput {
	in := ordertypes.LineInput{MenuItemID: item.ID, Quantity: qty, Price: item.Sizes[sizeIdx].Price}
	sizeID := item.Sizes[sizeIdx].ID
	in.SizeID = &sizeID
	for _, addon := range addons {
		in.Addons = append(in.Addons, ordertypes.AddonInput{MenuItemID: addon.ID, Price: addon.Sizes[0].Price})
	}
	return in
}

func pay(h *harness, id int64) (*orderdomain.Order, error) {
	return h.coord.PayOrder(context.Background(), fulfilltypes.PayOrderInput{OrderID: id})
}

// latteScenario seeds a Medium latte needing 10 coffee per cup.
func latteScenario(t *testing.T, coffeeStock int64) (*harness, *catalogdomain.MenuItem, int64) {
	h := newHarness(t)
	coffee := h.ingredient("Coffee", coffeeStock)
	latte := h.menuItem("Latte", catalogdomain.CategoryCoffee, "Small", "Medium")
	h.recipe(latte, 0, map[int64]string{coffee: "7"})
	h.recipe(latte, 1, map[int64]string{coffee: "10"})
	return h, latte, coffee
}

func TestPayOrder_DecrementsRecipeStock(t *testing.T) {
	h, latte, coffee := latteScenario(t, 100)
	order := h.order(line(latte, 1, 2))

	paid, err := pay(h, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, h.stockOf(coffee).Equal(decimal.NewFromInt(80)))

	movements, err := h.stock.ListMovements(context.Background(), coffee, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, invdomain.ReasonSale, movements[0].Reason)
	assert.True(t, movements[0].Delta.Equal(decimal.NewFromInt(-20)))
}

func TestPayOrder_InsufficientStockLeavesOrderPending(t *testing.T) {
	h, latte, coffee := latteScenario(t, 15)
	order := h.order(line(latte, 1, 2))

	_, err := pay(h, order.ID)
	var shortErr *invdomain.InsufficientStockError
	require.ErrorAs(t, err, &shortErr)
	require.Len(t, shortErr.Shortages, 1)
	assert.Equal(t, coffee, shortErr.Shortages[0].IngredientID)
	assert.True(t, shortErr.Shortages[0].Required.Equal(decimal.NewFromInt(20)))
	assert.True(t, shortErr.Shortages[0].Available.Equal(decimal.NewFromInt(15)))

	stored, err := h.coord.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusPending, stored.Status)
	assert.Nil(t, stored.PaidAt)
	assert.True(t, h.stockOf(coffee).Equal(decimal.NewFromInt(15)))
}

func TestPayOrder_AddonWithoutRecipeOnlyConsumesDrink(t *testing.T) {
	h, latte, coffee := latteScenario(t, 100)
	syrup := h.menuItem("Vanilla syrup", catalogdomain.CategoryAddon, "any")
	cookie := h.menuItem("Cookie", catalogdomain.CategoryAddon, "any")

	order := h.order(
		line(cookie, 0, 1),
		line(latte, 0, 1, syrup),
	)
	_, err := pay(h, order.ID)
	require.NoError(t, err)
	assert.True(t, h.stockOf(coffee).Equal(decimal.NewFromInt(93)))
}

func TestPayOrder_AddonRecipeScalesWithLineQuantity(t *testing.T) {
	h, latte, coffee := latteScenario(t, 100)
	vanilla := h.ingredient("Vanilla", 50)
	shot := h.menuItem("Extra shot", catalogdomain.CategoryAddon, "any")
	syrup := h.menuItem("Vanilla syrup", catalogdomain.CategoryAddon, "any")
	h.recipe(shot, 0, map[int64]string{coffee: "8"})
	h.recipe(syrup, 0, map[int64]string{vanilla: "2.5"})

	order := h.order(
		line(latte, 1, 3, shot, syrup),
		line(latte, 0, 1),
	)
	_, err := pay(h, order.ID)
	require.NoError(t, err)
	// 3 x (10 + 8) + 1 x 7 = 61 coffee; 3 x 2.5 = 7.5 vanilla.
	assert.True(t, h.stockOf(coffee).Equal(decimal.NewFromInt(39)), h.stockOf(coffee).String())
	assert.True(t, h.stockOf(vanilla).Equal(decimal.RequireFromString("42.5")), h.stockOf(vanilla).String())

	movements, err := h.stock.ListMovements(context.Background(), coffee, 0)
	require.NoError(t, err)
	assert.Len(t, movements, 1, "same ingredient across lines is aggregated into one decrement")
}

func TestPayOrder_AfterCompleteIsRejected(t *testing.T) {
	h, latte, coffee := latteScenario(t, 100)
	order := h.order(line(latte, 1, 1))

	_, err := pay(h, order.ID)
	require.NoError(t, err)
	completed, err := h.coord.CompleteOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusCompleted, completed.Status)

	_, err = pay(h, order.ID)
	var transErr *orderdomain.InvalidTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, orderdomain.StatusCompleted, transErr.From)
	assert.True(t, h.stockOf(coffee).Equal(decimal.NewFromInt(90)))
}

func TestCancelOrder_PendingLeavesStock(t *testing.T) {
	h, latte, coffee := latteScenario(t, 100)
	order := h.order(line(latte, 1, 1))

	cancelled, err := h.coord.CancelOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.True(t, h.stockOf(coffee).Equal(decimal.NewFromInt(100)))

	_, err = pay(h, order.ID)
	assert.ErrorIs(t, err, orderdomain.ErrInvalidTransition)
}

func TestCancelOrder_PaidDoesNotRestoreStock(t *testing.T) {
	h, latte, coffee := latteScenario(t, 100)
	order := h.order(line(latte, 1, 1))
	_, err := pay(h, order.ID)
	require.NoError(t, err)

	_, err = h.coord.CancelOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, h.stockOf(coffee).Equal(decimal.NewFromInt(90)))
}

func TestPayOrder_TwiceDecrementsOnce(t *testing.T) {
	h, latte, coffee := latteScenario(t, 100)
	order := h.order(line(latte, 1, 2))

	_, err := pay(h, order.ID)
	require.NoError(t, err)
	_, err = pay(h, order.ID)
	assert.ErrorIs(t, err, orderdomain.ErrInvalidTransition)
	assert.True(t, h.stockOf(coffee).Equal(decimal.NewFromInt(80)))
}

func TestPayOrder_ConcurrentSameOrder(t *testing.T) {
	h, latte, coffee := latteScenario(t, 100)
	order := h.order(line(latte, 1, 1))

	errs := payConcurrently(h, order.ID, order.ID)
	assert.ElementsMatch(t, []string{"ok", "transition"}, classify(errs))
	assert.True(t, h.stockOf(coffee).Equal(decimal.NewFromInt(90)))
}

func TestPayOrder_ConcurrentOrdersShareIngredient(t *testing.T) {
	h := newHarness(t)
	beans := h.ingredient("Beans", 7)
	espresso := h.menuItem("Espresso", catalogdomain.CategoryCoffee, "Single")
	h.recipe(espresso, 0, map[int64]string{beans: "5"})

	first := h.order(line(espresso, 0, 1))
	second := h.order(line(espresso, 0, 1))

	errs := payConcurrently(h, first.ID, second.ID)
	assert.ElementsMatch(t, []string{"ok", "stock"}, classify(errs))
	assert.True(t, h.stockOf(beans).Equal(decimal.NewFromInt(2)))

	pending, err := h.coord.ListPending(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestPayOrder_StockNeverNegativeAcrossSequence(t *testing.T) {
	h, latte, coffee := latteScenario(t, 35)
	for i := 0; i < 5; i++ {
		order := h.order(line(latte, 1, 1))
		_, _ = pay(h, order.ID)
		if i%2 == 0 {
			_, _ = h.coord.CancelOrder(context.Background(), order.ID)
		}
		assert.False(t, h.stockOf(coffee).IsNegative())
	}
	assert.True(t, h.stockOf(coffee).Equal(decimal.NewFromInt(5)))
}

func TestCreateOrder_TotalsIgnoreLaterPriceChanges(t *testing.T) {
	h, latte, _ := latteScenario(t, 100)
	order := h.order(line(latte, 1, 2))
	require.True(t, order.Total.Equal(decimal.NewFromInt(200)))

	_, err := h.catalog.ChangeSizePrice(context.Background(), catalogtypes.ChangeSizePriceInput{
		MenuItemID: latte.ID, SizeID: latte.Sizes[1].ID, Price: decimal.NewFromInt(180),
	})
	require.NoError(t, err)

	paid, err := pay(h, order.ID)
	require.NoError(t, err)
	assert.True(t, paid.Total.Equal(decimal.NewFromInt(200)))
	assert.True(t, paid.Lines[0].Price.Equal(decimal.NewFromInt(100)))
}

func TestCreateOrder_ValidationErrors(t *testing.T) {
	h := newHarness(t)
	_, err := h.coord.CreateOrder(context.Background(), fulfilltypes.CreateOrderCommand{
		CreateOrderInput: ordertypes.CreateOrderInput{OwnerUserID: 1},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, orderdomain.ErrEmptyCart)
	assert.NotErrorIs(t, err, ErrStorageUnavailable)
}

func TestCreateOrder_IdempotencyKey(t *testing.T) {
	h, latte, _ := latteScenario(t, 100)
	cmd := fulfilltypes.CreateOrderCommand{
		CreateOrderInput: ordertypes.CreateOrderInput{OwnerUserID: 1, PaymentMethod: "CASH", Lines: []ordertypes.LineInput{line(latte, 1, 1)}},
		IdempotencyKey:   "register-1-cart-9",
	}
	first, err := h.coord.CreateOrder(context.Background(), cmd)
	require.NoError(t, err)
	second, err := h.coord.CreateOrder(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all, err := h.coord.ListOrders(context.Background(), orderports.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	cmd.Lines[0].Quantity = 3
	_, err = h.coord.CreateOrder(context.Background(), cmd)
	assert.ErrorIs(t, err, ports.ErrIdempotencyConflict)
}

func TestPayOrder_LoyaltyFailureKeepsOrderPaid(t *testing.T) {
	h, latte, _ := latteScenario(t, 100)
	h.loyalty.err = errors.New("loyalty service down")
	order := h.order(line(latte, 1, 2))

	paid, err := h.coord.PayOrder(context.Background(), fulfilltypes.PayOrderInput{OrderID: order.ID, LoyaltyPhone: "09171234567"})
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusPaid, paid.Status)

	require.Len(t, h.loyalty.awards, 1)
	award := h.loyalty.awards[0]
	assert.Equal(t, order.Reference(), award.OrderRef)
	assert.Equal(t, "09171234567", award.Phone)
	assert.True(t, award.TotalAmount.Equal(decimal.NewFromInt(200)))
	require.Len(t, award.Items, 1)
	assert.Equal(t, int32(2), award.Items[0].Quantity)
}

func TestPayOrder_NoLoyaltyWithoutPhone(t *testing.T) {
	h, latte, _ := latteScenario(t, 100)
	order := h.order(line(latte, 1, 1))
	_, err := pay(h, order.ID)
	require.NoError(t, err)
	assert.Empty(t, h.loyalty.awards)
}

func TestPayOrder_UnknownOrder(t *testing.T) {
	h := newHarness(t)
	_, err := pay(h, 404)
	assert.ErrorIs(t, err, orderports.ErrNotFound)
}

// failingStatusUoW fails the status write after stock has already been decremented.
type failingStatusUoW struct {
	inner ports.UnitOfWork
}

type failingOrders struct {
	orderports.Repository
}

func (failingOrders) UpdateStatus(context.Context, *orderdomain.Order) error {
	return errors.New("connection reset by peer")
}

func (u failingStatusUoW) Within(ctx context.Context, fn func(ctx context.Context, repos ports.TxRepositories) error) error {
	return u.inner.Within(ctx, func(ctx context.Context, repos ports.TxRepositories) error {
		repos.Orders = failingOrders{Repository: repos.Orders}
		return fn(ctx, repos)
	})
}

func TestPayOrder_RollsBackStockWhenTransitionFails(t *testing.T) {
	h, latte, coffee := latteScenario(t, 100)
	order := h.order(line(latte, 1, 2))

	h.uow = failingStatusUoW{inner: h.uow}
	h.rebuild()

	_, err := pay(h, order.ID)
	require.ErrorIs(t, err, ErrStorageUnavailable)
	assert.True(t, h.stockOf(coffee).Equal(decimal.NewFromInt(100)))

	stored, err := h.coord.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusPending, stored.Status)
}

func TestFingerprintCart_NormalizesDecimals(t *testing.T) {
	a := ordertypes.CreateOrderInput{OwnerUserID: 1, PaymentMethod: "cash", Lines: []ordertypes.LineInput{{MenuItemID: 1, Quantity: 1, Price: decimal.RequireFromString("140")}}}
	b := ordertypes.CreateOrderInput{OwnerUserID: 1, PaymentMethod: "CASH", Lines: []ordertypes.LineInput{{MenuItemID: 1, Quantity: 1, Price: decimal.RequireFromString("140.00")}}}
	ha, err := FingerprintCart(a)
	require.NoError(t, err)
	hb, err := FingerprintCart(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	b.Lines[0].Quantity = 2
	hc, err := FingerprintCart(b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}

func TestFingerprintCart_KeepsSubCentDigits(t *testing.T) {
	cart := func(price string) ordertypes.CreateOrderInput {
		return ordertypes.CreateOrderInput{OwnerUserID: 1, PaymentMethod: "CASH", Lines: []ordertypes.LineInput{{MenuItemID: 1, Quantity: 1000, Price: decimal.RequireFromString(price)}}}
	}
	over, err := FingerprintCart(cart("1.004"))
	require.NoError(t, err)
	under, err := FingerprintCart(cart("0.996"))
	require.NoError(t, err)
	even, err := FingerprintCart(cart("1.00"))
	require.NoError(t, err)
	assert.NotEqual(t, over, under)
	assert.NotEqual(t, over, even)
}

func TestCreateOrder_SubCentPriceIsRejectedNotReplayed(t *testing.T) {
	h, latte, _ := latteScenario(t, 100)
	cmd := fulfilltypes.CreateOrderCommand{
		CreateOrderInput: ordertypes.CreateOrderInput{OwnerUserID: 1, PaymentMethod: "CASH", Lines: []ordertypes.LineInput{line(latte, 1, 1)}},
		IdempotencyKey:   "register-2-cart-4",
	}
	cmd.Lines[0].Price = decimal.RequireFromString("1.00")
	_, err := h.coord.CreateOrder(context.Background(), cmd)
	require.NoError(t, err)

	cmd.Lines[0].Price = decimal.RequireFromString("1.004")
	_, err = h.coord.CreateOrder(context.Background(), cmd)
	assert.ErrorIs(t, err, ports.ErrIdempotencyConflict)

	cmd.IdempotencyKey = ""
	_, err = h.coord.CreateOrder(context.Background(), cmd)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, orderdomain.ErrInvalidLine)
}

func payConcurrently(h *harness, ids ...int64) []error {
	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	start := make(chan struct{})
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			<-start
			_, errs[i] = pay(h, id)
		}(i, id)
	}
	close(start)
	wg.Wait()
	return errs
}

func classify(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		switch {
		case err == nil:
			out = append(out, "ok")
		case errors.Is(err, orderdomain.ErrInvalidTransition):
			out = append(out, "transition")
		case errors.Is(err, invdomain.ErrInsufficientStock):
			out = append(out, "stock")
		default:
			out = append(out, err.Error())
		}
	}
	return out
}
