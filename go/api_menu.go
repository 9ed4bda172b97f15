package posserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	catalogmapper "github.com/Apurer/cafe-pos-server/internal/domains/catalog/adapters/http/mapper"
	catalogtypes "github.com/Apurer/cafe-pos-server/internal/domains/catalog/application/types"
	catalogports "github.com/Apurer/cafe-pos-server/internal/domains/catalog/ports"
)

// MenuAPI exposes the catalog back office.
type MenuAPI struct {
	service catalogports.Service
}

func NewMenuAPI(service catalogports.Service) MenuAPI {
	return MenuAPI{service: service}
}

// Post /api/menu
func (api *MenuAPI) CreateMenuItem(c *gin.Context) {
	var payload catalogmapper.MenuItem
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	item, err := api.service.CreateMenuItem(c.Request.Context(), catalogmapper.ToCreateMenuItemInput(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, catalogmapper.FromDomainMenuItem(item))
}

// Get /api/menu
func (api *MenuAPI) ListMenu(c *gin.Context) {
	items, err := api.service.ListMenu(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogmapper.FromDomainMenu(items))
}

// Get /api/menu/:menuItemId
func (api *MenuAPI) GetMenuItem(c *gin.Context) {
	id, ok := parseIDParam(c, "menuItemId")
	if !ok {
		return
	}
	item, err := api.service.GetMenuItem(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogmapper.FromDomainMenuItem(item))
}

// Patch /api/menu/:menuItemId/sizes/:sizeId
// Reprices a size. Orders already placed keep the price they were sold at.
func (api *MenuAPI) ChangeSizePrice(c *gin.Context) {
	itemID, ok := parseIDParam(c, "menuItemId")
	if !ok {
		return
	}
	sizeID, ok := parseIDParam(c, "sizeId")
	if !ok {
		return
	}
	var payload catalogmapper.ChangePriceRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	item, err := api.service.ChangeSizePrice(c.Request.Context(), catalogtypes.ChangeSizePriceInput{
		MenuItemID: itemID,
		SizeID:     sizeID,
		Price:      payload.Price,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogmapper.FromDomainMenuItem(item))
}

// Put /api/menu/:menuItemId/sizes/:sizeId/recipe
func (api *MenuAPI) ReplaceRecipe(c *gin.Context) {
	itemID, ok := parseIDParam(c, "menuItemId")
	if !ok {
		return
	}
	sizeID, ok := parseIDParam(c, "sizeId")
	if !ok {
		return
	}
	var payload catalogmapper.ReplaceRecipeRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	recipe, err := api.service.ReplaceRecipe(c.Request.Context(), catalogmapper.ToReplaceRecipeInput(itemID, sizeID, payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogmapper.FromDomainRecipe(recipe))
}

// Get /api/menu/:menuItemId/sizes/:sizeId/recipe
func (api *MenuAPI) GetRecipe(c *gin.Context) {
	itemID, ok := parseIDParam(c, "menuItemId")
	if !ok {
		return
	}
	sizeID, ok := parseIDParam(c, "sizeId")
	if !ok {
		return
	}
	recipe, err := api.service.GetStoredRecipe(c.Request.Context(), itemID, sizeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogmapper.FromDomainRecipe(recipe))
}
