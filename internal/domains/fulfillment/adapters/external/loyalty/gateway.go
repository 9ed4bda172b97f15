package loyalty

import (
	"context"
	"errors"
	"fmt"

	loyaltyclient "github.com/Apurer/cafe-pos-server/internal/clients/http/loyalty"
	"github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/ports"
)

var (
	_ ports.LoyaltyAwarder  = (*Gateway)(nil)
	_ ports.LoyaltyAccounts = (*Gateway)(nil)
)

// Gateway adapts the loyalty HTTP client to the fulfillment loyalty ports.
type Gateway struct {
	client *loyaltyclient.Client
}

// NewGateway wires a loyalty HTTP client into the ports.
func NewGateway(client *loyaltyclient.Client) *Gateway {
	return &Gateway{client: client}
}

// AwardPoints reports a paid order to the loyalty service.
func (g *Gateway) AwardPoints(ctx context.Context, award ports.LoyaltyAward) error {
	if g == nil || g.client == nil {
		return errors.New("loyalty gateway not configured")
	}
	_, err := g.client.AddPoints(ctx, ToAddPointsRequest(award))
	return mapError(err)
}

// Balance fetches a customer's points.
func (g *Gateway) Balance(ctx context.Context, phone string) (*ports.LoyaltyBalance, error) {
	if g == nil || g.client == nil {
		return nil, errors.New("loyalty gateway not configured")
	}
	balance, err := g.client.GetBalance(ctx, phone)
	if err != nil {
		return nil, mapError(err)
	}
	return &ports.LoyaltyBalance{Phone: balance.Phone, Points: balance.Points}, nil
}

// Redeem spends a reward.
func (g *Gateway) Redeem(ctx context.Context, req ports.RedeemRequest) (*ports.RedeemResult, error) {
	if g == nil || g.client == nil {
		return nil, errors.New("loyalty gateway not configured")
	}
	resp, err := g.client.RedeemReward(ctx, loyaltyclient.RedeemRequest{
		Phone:    req.Phone,
		RewardId: req.RewardID,
		OrderRef: req.OrderRef,
	})
	if err != nil {
		return nil, mapError(err)
	}
	result := &ports.RedeemResult{Success: resp.Success, RemainingPoints: resp.RemainingPoints}
	if resp.Message != nil {
		result.Message = *resp.Message
	}
	return result, nil
}

// ToAddPointsRequest maps an award onto the loyalty wire format.
func ToAddPointsRequest(award ports.LoyaltyAward) loyaltyclient.AddPointsRequest {
	body := loyaltyclient.AddPointsRequest{
		OrderRef:    award.OrderRef,
		Phone:       award.Phone,
		TotalAmount: award.TotalAmount.InexactFloat64(),
		Items:       make([]loyaltyclient.PointsItem, 0, len(award.Items)),
	}
	for _, item := range award.Items {
		body.Items = append(body.Items, loyaltyclient.PointsItem{
			MenuItemId: item.MenuItemID,
			SizeId:     item.SizeID,
			Quantity:   item.Quantity,
			Price:      item.Price.InexactFloat64(),
		})
	}
	return body
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, loyaltyclient.ErrNotFound) {
		return fmt.Errorf("%w: %w", ports.ErrLoyaltyNotFound, err)
	}
	return fmt.Errorf("%w: %w", ports.ErrLoyaltyUnavailable, err)
}
