package posserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	fulfillports "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/ports"
	apierrors "github.com/Apurer/cafe-pos-server/internal/shared/errors"
)

// LoyaltyAPI proxies balance and redemption calls to the loyalty service.
type LoyaltyAPI struct {
	accounts fulfillports.LoyaltyAccounts
}

func NewLoyaltyAPI(accounts fulfillports.LoyaltyAccounts) LoyaltyAPI {
	return LoyaltyAPI{accounts: accounts}
}

// Get /api/loyalty/balance/:phone
func (api *LoyaltyAPI) GetBalance(c *gin.Context) {
	if !api.configured(c) {
		return
	}
	phone := strings.TrimSpace(c.Param("phone"))
	if phone == "" {
		respondBadRequest(c, errors.New("phone is required"))
		return
	}
	balance, err := api.accounts.Balance(c.Request.Context(), phone)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

// Post /api/loyalty/redeem
func (api *LoyaltyAPI) Redeem(c *gin.Context) {
	if !api.configured(c) {
		return
	}
	var payload fulfillports.RedeemRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	if strings.TrimSpace(payload.Phone) == "" || strings.TrimSpace(payload.RewardID) == "" {
		respondBadRequest(c, errors.New("phone and rewardId are required"))
		return
	}
	result, err := api.accounts.Redeem(c.Request.Context(), payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (api *LoyaltyAPI) configured(c *gin.Context) bool {
	if api.accounts != nil {
		return true
	}
	respondProblem(c, apierrors.ErrServiceUnavailable.WithDetail("loyalty service not configured"))
	return false
}
