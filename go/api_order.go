package posserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	fulfilltypes "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/application/types"
	fulfillports "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/ports"
	orderhttpmapper "github.com/Apurer/cafe-pos-server/internal/domains/orders/adapters/http/mapper"
	orderdomain "github.com/Apurer/cafe-pos-server/internal/domains/orders/domain"
	orderports "github.com/Apurer/cafe-pos-server/internal/domains/orders/ports"
)

// IdempotencyKeyHeader lets a register retry a cart submission without opening a second order.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderAPI wires HTTP transport with the fulfillment coordinator.
type OrderAPI struct {
	service fulfillports.Service
}

// NewOrderAPI creates an OrderAPI backed by the provided service.
func NewOrderAPI(service fulfillports.Service) OrderAPI {
	return OrderAPI{service: service}
}

// OrderIDRequest is the body of the complete and cancel endpoints.
type OrderIDRequest struct {
	OrderID int64 `json:"orderId"`
}

// LoyaltyRequest asks for points to be awarded after payment.
type LoyaltyRequest struct {
	Phone string `json:"phone"`
}

// PayOrderRequest is the body of POST /api/order/pay.
type PayOrderRequest struct {
	OrderID int64           `json:"orderId"`
	Loyalty *LoyaltyRequest `json:"loyalty,omitempty"`
}

// Post /api/order
// Opens a PENDING order from a cart snapshot
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	var payload orderhttpmapper.CreateOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	cmd := fulfilltypes.CreateOrderCommand{
		CreateOrderInput: orderhttpmapper.ToCreateOrderInput(payload),
		IdempotencyKey:   strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)),
	}
	order, err := api.service.CreateOrder(c.Request.Context(), cmd)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderhttpmapper.FromDomainOrder(order))
}

// Post /api/order/pay
// Consumes recipe stock and marks the order PAID
func (api *OrderAPI) PayOrder(c *gin.Context) {
	var payload PayOrderRequest
	if !bindOrderID(c, &payload, &payload.OrderID) {
		return
	}
	input := fulfilltypes.PayOrderInput{OrderID: payload.OrderID}
	if payload.Loyalty != nil {
		input.LoyaltyPhone = strings.TrimSpace(payload.Loyalty.Phone)
	}
	order, err := api.service.PayOrder(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

// Post /api/order/complete
// Marks a PAID order as served
func (api *OrderAPI) CompleteOrder(c *gin.Context) {
	var payload OrderIDRequest
	if !bindOrderID(c, &payload, &payload.OrderID) {
		return
	}
	order, err := api.service.CompleteOrder(c.Request.Context(), payload.OrderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

// Post /api/order/cancel
// Cancels a PENDING or PAID order
func (api *OrderAPI) CancelOrder(c *gin.Context) {
	var payload OrderIDRequest
	if !bindOrderID(c, &payload, &payload.OrderID) {
		return
	}
	order, err := api.service.CancelOrder(c.Request.Context(), payload.OrderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

// Get /api/order/pending
func (api *OrderAPI) ListPendingOrders(c *gin.Context) {
	orders, err := api.service.ListPending(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrders(orders))
}

// Get /api/orders
// Lists orders, optionally filtered by status and owner
func (api *OrderAPI) ListOrders(c *gin.Context) {
	var filter orderports.ListFilter
	for _, raw := range c.QueryArray("status") {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			status, err := orderdomain.ParseStatus(part)
			if err != nil {
				respondBadRequest(c, err)
				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if raw := strings.TrimSpace(c.Query("ownerUserId")); raw != "" {
		owner, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondBadRequest(c, errors.New("ownerUserId must be an integer"))
			return
		}
		filter.OwnerUserID = owner
	}
	orders, err := api.service.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrders(orders))
}

// Get /api/order/:orderId
func (api *OrderAPI) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

func bindOrderID(c *gin.Context, payload any, orderID *int64) bool {
	if err := c.ShouldBindJSON(payload); err != nil {
		respondBadRequest(c, err)
		return false
	}
	if *orderID <= 0 {
		respondBadRequest(c, errors.New("orderId must be a positive integer"))
		return false
	}
	return true
}
