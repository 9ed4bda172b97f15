package posserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine installs the request id middleware and adds the routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	router.Use(RequestID())
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		router.Handle(route.Method, route.Pattern, route.HandlerFunc)
	}
	return router
}

// DefaultHandleFunc is the default handler for unimplemented routes.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

type ApiHandleFunctions struct {
	// Routes for the OrderAPI part of the API
	OrderAPI OrderAPI
	// Routes for the MenuAPI part of the API
	MenuAPI MenuAPI
	// Routes for the InventoryAPI part of the API
	InventoryAPI InventoryAPI
	// Routes for the LoyaltyAPI part of the API
	LoyaltyAPI LoyaltyAPI
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{"CreateOrder", http.MethodPost, "/api/order", handleFunctions.OrderAPI.CreateOrder},
		{"PayOrder", http.MethodPost, "/api/order/pay", handleFunctions.OrderAPI.PayOrder},
		{"CompleteOrder", http.MethodPost, "/api/order/complete", handleFunctions.OrderAPI.CompleteOrder},
		{"CancelOrder", http.MethodPost, "/api/order/cancel", handleFunctions.OrderAPI.CancelOrder},
		{"ListPendingOrders", http.MethodGet, "/api/order/pending", handleFunctions.OrderAPI.ListPendingOrders},
		{"GetOrder", http.MethodGet, "/api/order/:orderId", handleFunctions.OrderAPI.GetOrder},
		{"ListOrders", http.MethodGet, "/api/orders", handleFunctions.OrderAPI.ListOrders},

		{"CreateMenuItem", http.MethodPost, "/api/menu", handleFunctions.MenuAPI.CreateMenuItem},
		{"ListMenu", http.MethodGet, "/api/menu", handleFunctions.MenuAPI.ListMenu},
		{"GetMenuItem", http.MethodGet, "/api/menu/:menuItemId", handleFunctions.MenuAPI.GetMenuItem},
		{"ChangeSizePrice", http.MethodPatch, "/api/menu/:menuItemId/sizes/:sizeId", handleFunctions.MenuAPI.ChangeSizePrice},
		{"ReplaceRecipe", http.MethodPut, "/api/menu/:menuItemId/sizes/:sizeId/recipe", handleFunctions.MenuAPI.ReplaceRecipe},
		{"GetRecipe", http.MethodGet, "/api/menu/:menuItemId/sizes/:sizeId/recipe", handleFunctions.MenuAPI.GetRecipe},

		{"CreateIngredient", http.MethodPost, "/api/ingredients", handleFunctions.InventoryAPI.CreateIngredient},
		{"ListIngredients", http.MethodGet, "/api/ingredients", handleFunctions.InventoryAPI.ListIngredients},
		{"ListLowStock", http.MethodGet, "/api/ingredients/low-stock", handleFunctions.InventoryAPI.ListLowStock},
		{"Restock", http.MethodPost, "/api/ingredients/:ingredientId/restock", handleFunctions.InventoryAPI.Restock},
		{"ListMovements", http.MethodGet, "/api/ingredients/:ingredientId/movements", handleFunctions.InventoryAPI.ListMovements},

		{"GetLoyaltyBalance", http.MethodGet, "/api/loyalty/balance/:phone", handleFunctions.LoyaltyAPI.GetBalance},
		{"RedeemLoyaltyReward", http.MethodPost, "/api/loyalty/redeem", handleFunctions.LoyaltyAPI.Redeem},
	}
}
