package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrLoyaltyUnavailable wraps transport and server failures of the loyalty service.
	ErrLoyaltyUnavailable = errors.New("loyalty service unavailable")
	ErrLoyaltyNotFound    = errors.New("loyalty customer not found")
)

// LoyaltyItem is one sold line reported to the loyalty service.
type LoyaltyItem struct {
	MenuItemID int64           `json:"menuItemId"`
	SizeID     *int64          `json:"sizeId,omitempty"`
	Quantity   int32           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

// LoyaltyAward is the post-payment points request for a customer.
type LoyaltyAward struct {
	OrderID     int64           `json:"orderId"`
	OrderRef    string          `json:"orderRef"`
	Phone       string          `json:"phone"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Items       []LoyaltyItem   `json:"items"`
}

// LoyaltyBalance is a customer's points balance.
type LoyaltyBalance struct {
	Phone  string `json:"phone"`
	Points int64  `json:"points"`
}

// RedeemRequest spends a reward against an order.
type RedeemRequest struct {
	Phone    string `json:"phone"`
	RewardID string `json:"rewardId"`
	OrderRef string `json:"orderRef"`
}

// RedeemResult is the loyalty service's answer to a redemption.
type RedeemResult struct {
	Success         bool   `json:"success"`
	RemainingPoints int64  `json:"remainingPoints"`
	Message         string `json:"message,omitempty"`
}

// LoyaltyAwarder calls the loyalty microservice to add points.
type LoyaltyAwarder interface {
	AwardPoints(ctx context.Context, award LoyaltyAward) error
}

// LoyaltyDispatcher hands an award off after the payment has committed.
type LoyaltyDispatcher interface {
	DispatchAward(ctx context.Context, award LoyaltyAward) error
}

// LoyaltyAccounts exposes the read and redeem side of the loyalty service.
type LoyaltyAccounts interface {
	Balance(ctx context.Context, phone string) (*LoyaltyBalance, error)
	Redeem(ctx context.Context, req RedeemRequest) (*RedeemResult, error)
}
