package posserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	invmapper "github.com/Apurer/cafe-pos-server/internal/domains/inventory/adapters/http/mapper"
	invports "github.com/Apurer/cafe-pos-server/internal/domains/inventory/ports"
	apierrors "github.com/Apurer/cafe-pos-server/internal/shared/errors"
)

const defaultMovementLimit = 50

// InventoryAPI exposes ingredient stock to the back office.
type InventoryAPI struct {
	service invports.Service
}

func NewInventoryAPI(service invports.Service) InventoryAPI {
	return InventoryAPI{service: service}
}

// Post /api/ingredients
func (api *InventoryAPI) CreateIngredient(c *gin.Context) {
	var payload invmapper.CreateIngredientRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	ing, err := api.service.CreateIngredient(c.Request.Context(), invmapper.ToCreateIngredientInput(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invmapper.FromDomainIngredient(ing))
}

// Get /api/ingredients
func (api *InventoryAPI) ListIngredients(c *gin.Context) {
	items, err := api.service.ListIngredients(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, invmapper.FromDomainIngredients(items))
}

// Get /api/ingredients/low-stock
// Ingredients at or below their reorder threshold
func (api *InventoryAPI) ListLowStock(c *gin.Context) {
	items, err := api.service.ListLowStock(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, invmapper.FromDomainIngredients(items))
}

// Post /api/ingredients/:ingredientId/restock
func (api *InventoryAPI) Restock(c *gin.Context) {
	id, ok := parseIDParam(c, "ingredientId")
	if !ok {
		return
	}
	var payload invmapper.RestockRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	ing, err := api.service.Restock(c.Request.Context(), invmapper.ToRestockInput(id, payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, invmapper.FromDomainIngredient(ing))
}

// Get /api/ingredients/:ingredientId/movements
func (api *InventoryAPI) ListMovements(c *gin.Context) {
	id, ok := parseIDParam(c, "ingredientId")
	if !ok {
		return
	}
	limit := defaultMovementLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondProblem(c, apierrors.NewFieldProblem("limit", "limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	movements, err := api.service.ListMovements(c.Request.Context(), id, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, invmapper.FromDomainMovements(movements))
}
