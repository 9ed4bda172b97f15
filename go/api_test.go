package posserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogmemory "github.com/Apurer/cafe-pos-server/internal/domains/catalog/adapters/memory"
	catalogmapper "github.com/Apurer/cafe-pos-server/internal/domains/catalog/adapters/http/mapper"
	catalogapp "github.com/Apurer/cafe-pos-server/internal/domains/catalog/application"
	fulfillmemory "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/adapters/memory"
	fulfillapp "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/application"
	fulfillports "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/ports"
	invmapper "github.com/Apurer/cafe-pos-server/internal/domains/inventory/adapters/http/mapper"
	invmemory "github.com/Apurer/cafe-pos-server/internal/domains/inventory/adapters/memory"
	invapp "github.com/Apurer/cafe-pos-server/internal/domains/inventory/application"
	orderhttpmapper "github.com/Apurer/cafe-pos-server/internal/domains/orders/adapters/http/mapper"
	ordermemory "github.com/Apurer/cafe-pos-server/internal/domains/orders/adapters/memory"
	apierrors "github.com/Apurer/cafe-pos-server/internal/shared/errors"
)

type fakeAccounts struct {
	balance *fulfillports.LoyaltyBalance
	err     error
	redeems []fulfillports.RedeemRequest
}

func (f *fakeAccounts) Balance(_ context.Context, phone string) (*fulfillports.LoyaltyBalance, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.balance
	out.Phone = phone
	return &out, nil
}

func (f *fakeAccounts) Redeem(_ context.Context, req fulfillports.RedeemRequest) (*fulfillports.RedeemResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.redeems = append(f.redeems, req)
	return &fulfillports.RedeemResult{Success: true, RemainingPoints: f.balance.Points - 10}, nil
}

func newTestRouter(t *testing.T, accounts fulfillports.LoyaltyAccounts) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog := catalogapp.NewService(catalogmemory.NewRepository())
	stock := invmemory.NewStore()
	orders := ordermemory.NewRepository()
	uow := fulfillmemory.NewUnitOfWork(orders, stock, fulfillmemory.NewIdempotencyStore(), 5*time.Second)

	return NewRouterWithGinEngine(gin.New(), ApiHandleFunctions{
		OrderAPI:     NewOrderAPI(fulfillapp.NewCoordinator(uow, catalog, orders)),
		MenuAPI:      NewMenuAPI(catalog),
		InventoryAPI: NewInventoryAPI(invapp.NewService(stock, stock)),
		LoyaltyAPI:   NewLoyaltyAPI(accounts),
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// seedLatte creates coffee stock and a single-size latte that needs 10 coffee per cup.
func seedLatte(t *testing.T, router http.Handler, coffee string) (catalogmapper.MenuItem, invmapper.Ingredient) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/ingredients", invmapper.CreateIngredientRequest{
		Name:      "Coffee",
		Stock:     decimal.RequireFromString(coffee),
		Threshold: decimal.NewFromInt(5),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ing := decode[invmapper.Ingredient](t, rec)

	rec = doJSON(t, router, http.MethodPost, "/api/menu", catalogmapper.MenuItem{
		Name:     "Latte",
		Category: "COFFEE",
		Sizes:    []catalogmapper.Size{{Label: "Medium", Price: decimal.NewFromInt(140)}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decode[catalogmapper.MenuItem](t, rec)
	require.Len(t, item.Sizes, 1)

	path := fmt.Sprintf("/api/menu/%d/sizes/%d/recipe", item.ID, item.Sizes[0].ID)
	rec = doJSON(t, router, http.MethodPut, path, catalogmapper.ReplaceRecipeRequest{
		Lines: []catalogmapper.RecipeLine{{IngredientID: ing.ID, QuantityNeeded: decimal.NewFromInt(10)}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return item, ing
}

func cart(item catalogmapper.MenuItem, qty int32) orderhttpmapper.CreateOrderRequest {
	sizeID := item.Sizes[0].ID
	return orderhttpmapper.CreateOrderRequest{
		OwnerUserID:   7,
		PaymentMethod: "cash",
		Lines: []orderhttpmapper.LineRequest{{
			MenuItemID: item.ID,
			SizeID:     &sizeID,
			Quantity:   qty,
			Price:      item.Sizes[0].Price,
		}},
	}
}

func TestOrderAPI_CreateAndPay(t *testing.T) {
	router := newTestRouter(t, nil)
	item, coffee := seedLatte(t, router, "100")

	rec := doJSON(t, router, http.MethodPost, "/api/order", cart(item, 2))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[orderhttpmapper.Order](t, rec)
	assert.Equal(t, "PENDING", order.Status)
	assert.Equal(t, "CASH", order.PaymentMethod)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(280)), order.Total.String())

	rec = doJSON(t, router, http.MethodPost, "/api/order/pay", PayOrderRequest{OrderID: order.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	paid := decode[orderhttpmapper.Order](t, rec)
	assert.Equal(t, "PAID", paid.Status)
	assert.NotNil(t, paid.PaidAt)

	rec = doJSON(t, router, http.MethodGet, "/api/ingredients", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ingredients := decode[[]invmapper.Ingredient](t, rec)
	require.Len(t, ingredients, 1)
	assert.True(t, ingredients[0].Stock.Equal(decimal.NewFromInt(80)), ingredients[0].Stock.String())

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/ingredients/%d/movements?limit=10", coffee.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	movements := decode[[]invmapper.Movement](t, rec)
	require.Len(t, movements, 1)
	assert.Equal(t, "SALE", movements[0].Reason)
	assert.True(t, movements[0].Delta.Equal(decimal.NewFromInt(-20)))

	rec = doJSON(t, router, http.MethodPost, "/api/order/complete", OrderIDRequest{OrderID: order.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "COMPLETED", decode[orderhttpmapper.Order](t, rec).Status)
}

func TestOrderAPI_PayWithoutStockReportsShortages(t *testing.T) {
	router := newTestRouter(t, nil)
	item, coffee := seedLatte(t, router, "15")

	rec := doJSON(t, router, http.MethodPost, "/api/order", cart(item, 2))
	require.Equal(t, http.StatusCreated, rec.Code)
	order := decode[orderhttpmapper.Order](t, rec)

	rec = doJSON(t, router, http.MethodPost, "/api/order/pay", PayOrderRequest{OrderID: order.ID})
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))

	var problem struct {
		apierrors.ProblemDetail
		Extensions struct {
			Shortages []Shortage `json:"shortages"`
		} `json:"extensions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, apierrors.TypeInsufficientStock, problem.Type)
	require.Len(t, problem.Extensions.Shortages, 1)
	assert.Equal(t, coffee.ID, problem.Extensions.Shortages[0].IngredientID)
	assert.Equal(t, "20", problem.Extensions.Shortages[0].Required)
	assert.Equal(t, "15", problem.Extensions.Shortages[0].Available)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/order/%d", order.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PENDING", decode[orderhttpmapper.Order](t, rec).Status)

	rec = doJSON(t, router, http.MethodGet, "/api/order/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]orderhttpmapper.Order](t, rec), 1)
}

func TestOrderAPI_InvalidTransitions(t *testing.T) {
	router := newTestRouter(t, nil)
	item, _ := seedLatte(t, router, "100")

	rec := doJSON(t, router, http.MethodPost, "/api/order", cart(item, 1))
	order := decode[orderhttpmapper.Order](t, rec)

	rec = doJSON(t, router, http.MethodPost, "/api/order/complete", OrderIDRequest{OrderID: order.ID})
	require.Equal(t, http.StatusConflict, rec.Code)
	problem := decode[apierrors.ProblemDetail](t, rec)
	assert.Equal(t, apierrors.TypeInvalidTransition, problem.Type)
	assert.Equal(t, "PENDING", problem.Extensions["from"])

	rec = doJSON(t, router, http.MethodPost, "/api/order/cancel", OrderIDRequest{OrderID: order.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", decode[orderhttpmapper.Order](t, rec).Status)

	rec = doJSON(t, router, http.MethodPost, "/api/order/pay", PayOrderRequest{OrderID: order.ID})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestOrderAPI_IdempotencyKey(t *testing.T) {
	router := newTestRouter(t, nil)
	item, _ := seedLatte(t, router, "100")

	first := doJSON(t, router, http.MethodPost, "/api/order", cart(item, 1), IdempotencyKeyHeader, "till-1-0042")
	require.Equal(t, http.StatusCreated, first.Code)
	second := doJSON(t, router, http.MethodPost, "/api/order", cart(item, 1), IdempotencyKeyHeader, "till-1-0042")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, decode[orderhttpmapper.Order](t, first).ID, decode[orderhttpmapper.Order](t, second).ID)

	conflict := doJSON(t, router, http.MethodPost, "/api/order", cart(item, 3), IdempotencyKeyHeader, "till-1-0042")
	require.Equal(t, http.StatusConflict, conflict.Code)
	assert.Equal(t, apierrors.TypeConflict, decode[apierrors.ProblemDetail](t, conflict).Type)

	rec := doJSON(t, router, http.MethodGet, "/api/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]orderhttpmapper.Order](t, rec), 1)
}

func TestOrderAPI_RequestValidation(t *testing.T) {
	router := newTestRouter(t, nil)
	item, _ := seedLatte(t, router, "100")

	empty := cart(item, 1)
	empty.Lines = nil
	rec := doJSON(t, router, http.MethodPost, "/api/order", empty)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	zeroQty := cart(item, 0)
	rec = doJSON(t, router, http.MethodPost, "/api/order", zeroQty)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decode[apierrors.ProblemDetail](t, rec)
	assert.Equal(t, apierrors.TypeValidation, problem.Type)
	assert.EqualValues(t, 0, problem.Extensions["lineIndex"])

	rec = doJSON(t, router, http.MethodPost, "/api/order/pay", map[string]any{"orderId": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/order/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/order/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/orders?status=LOST", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderAPI_ListOrdersFilters(t *testing.T) {
	router := newTestRouter(t, nil)
	item, _ := seedLatte(t, router, "100")

	var ids []int64
	for i := 0; i < 3; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/order", cart(item, 1))
		require.Equal(t, http.StatusCreated, rec.Code)
		ids = append(ids, decode[orderhttpmapper.Order](t, rec).ID)
	}
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/api/order/pay", PayOrderRequest{OrderID: ids[0]}).Code)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/api/order/cancel", OrderIDRequest{OrderID: ids[1]}).Code)

	rec := doJSON(t, router, http.MethodGet, "/api/orders?status=paid,cancelled", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]orderhttpmapper.Order](t, rec), 2)

	rec = doJSON(t, router, http.MethodGet, "/api/orders?status=PENDING&ownerUserId=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decode[[]orderhttpmapper.Order](t, rec)
	require.Len(t, pending, 1)
	assert.Equal(t, ids[2], pending[0].ID)

	rec = doJSON(t, router, http.MethodGet, "/api/orders?ownerUserId=8", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]orderhttpmapper.Order](t, rec))
}

func TestMenuAPI_RepriceKeepsPlacedOrders(t *testing.T) {
	router := newTestRouter(t, nil)
	item, _ := seedLatte(t, router, "100")

	rec := doJSON(t, router, http.MethodPost, "/api/order", cart(item, 1))
	order := decode[orderhttpmapper.Order](t, rec)

	path := fmt.Sprintf("/api/menu/%d/sizes/%d", item.ID, item.Sizes[0].ID)
	rec = doJSON(t, router, http.MethodPatch, path, catalogmapper.ChangePriceRequest{Price: decimal.NewFromInt(200)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[catalogmapper.MenuItem](t, rec).Sizes[0].Price.Equal(decimal.NewFromInt(200)))

	rec = doJSON(t, router, http.MethodPost, "/api/order/pay", PayOrderRequest{OrderID: order.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[orderhttpmapper.Order](t, rec).Total.Equal(decimal.NewFromInt(140)))
}

func TestMenuAPI_Lookups(t *testing.T) {
	router := newTestRouter(t, nil)
	item, coffee := seedLatte(t, router, "100")

	rec := doJSON(t, router, http.MethodGet, "/api/menu", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]catalogmapper.MenuItem](t, rec), 1)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/menu/%d", item.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Latte", decode[catalogmapper.MenuItem](t, rec).Name)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/menu/%d/sizes/%d/recipe", item.ID, item.Sizes[0].ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	recipe := decode[catalogmapper.Recipe](t, rec)
	require.Len(t, recipe.Lines, 1)
	assert.Equal(t, coffee.ID, recipe.Lines[0].IngredientID)

	rec = doJSON(t, router, http.MethodGet, "/api/menu/404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/menu", catalogmapper.MenuItem{Name: "Mocha", Category: "COFFEE"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInventoryAPI_RestockAndLowStock(t *testing.T) {
	router := newTestRouter(t, nil)
	_, coffee := seedLatte(t, router, "3")

	rec := doJSON(t, router, http.MethodGet, "/api/ingredients/low-stock", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	low := decode[[]invmapper.Ingredient](t, rec)
	require.Len(t, low, 1)
	assert.True(t, low[0].LowStock)

	path := fmt.Sprintf("/api/ingredients/%d/restock", coffee.ID)
	rec = doJSON(t, router, http.MethodPost, path, invmapper.RestockRequest{Amount: decimal.NewFromInt(-1)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, path, invmapper.RestockRequest{Amount: decimal.NewFromInt(50), Reference: "delivery-12"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[invmapper.Ingredient](t, rec).Stock.Equal(decimal.NewFromInt(53)))

	rec = doJSON(t, router, http.MethodGet, "/api/ingredients/low-stock", nil)
	assert.Empty(t, decode[[]invmapper.Ingredient](t, rec))

	rec = doJSON(t, router, http.MethodPost, "/api/ingredients/999/restock", invmapper.RestockRequest{Amount: decimal.NewFromInt(1)})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/ingredients/%d/movements?limit=-2", coffee.ID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoyaltyAPI(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		router := newTestRouter(t, nil)
		rec := doJSON(t, router, http.MethodGet, "/api/loyalty/balance/5551234", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("balance and redeem", func(t *testing.T) {
		accounts := &fakeAccounts{balance: &fulfillports.LoyaltyBalance{Points: 42}}
		router := newTestRouter(t, accounts)

		rec := doJSON(t, router, http.MethodGet, "/api/loyalty/balance/5551234", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		balance := decode[fulfillports.LoyaltyBalance](t, rec)
		assert.Equal(t, "5551234", balance.Phone)
		assert.EqualValues(t, 42, balance.Points)

		rec = doJSON(t, router, http.MethodPost, "/api/loyalty/redeem", fulfillports.RedeemRequest{Phone: "5551234"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = doJSON(t, router, http.MethodPost, "/api/loyalty/redeem", fulfillports.RedeemRequest{Phone: "5551234", RewardID: "free-latte"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 32, decode[fulfillports.RedeemResult](t, rec).RemainingPoints)
		require.Len(t, accounts.redeems, 1)
	})

	t.Run("upstream failure", func(t *testing.T) {
		router := newTestRouter(t, &fakeAccounts{err: fulfillports.ErrLoyaltyNotFound})
		rec := doJSON(t, router, http.MethodGet, "/api/loyalty/balance/5550000", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		router = newTestRouter(t, &fakeAccounts{err: fulfillports.ErrLoyaltyUnavailable})
		rec = doJSON(t, router, http.MethodGet, "/api/loyalty/balance/5550000", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
