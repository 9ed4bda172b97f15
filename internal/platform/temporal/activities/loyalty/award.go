package loyalty

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	fulfillports "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/ports"
)

// AwardPointsActivityName is the registered name of the award activity.
const AwardPointsActivityName = "loyalty.activities.AwardPoints"

// Activities groups activities that talk to the loyalty service.
type Activities struct {
	awarder fulfillports.LoyaltyAwarder
}

// NewActivities wires the loyalty awarder into the Temporal activities bundle.
func NewActivities(awarder fulfillports.LoyaltyAwarder) *Activities {
	return &Activities{awarder: awarder}
}

// AwardPoints pushes a paid order to the loyalty service. Unknown customers are not retried.
func (a *Activities) AwardPoints(ctx context.Context, award fulfillports.LoyaltyAward) error {
	logger := activity.GetLogger(ctx)
	if a == nil {
		logger.Error("loyalty award activity not initialized", "orderRef", award.OrderRef)
		return errors.New("loyalty award activity not initialized")
	}
	if a.awarder == nil {
		logger.Info("loyalty not configured; skipping award", "orderRef", award.OrderRef)
		return nil
	}

	var hb awardHeartbeat
	if activity.HasHeartbeatDetails(ctx) {
		_ = activity.GetHeartbeatDetails(ctx, &hb)
	}
	if hb.Completed {
		logger.Info("AwardPoints already completed in prior attempt; skipping", "orderRef", award.OrderRef)
		return nil
	}

	logger.Info("AwardPoints activity started", "orderRef", award.OrderRef, "orderId", award.OrderID)
	if err := a.awarder.AwardPoints(ctx, award); err != nil {
		logger.Error("AwardPoints activity failed", "orderRef", award.OrderRef, "error", err)
		if errors.Is(err, fulfillports.ErrLoyaltyNotFound) {
			return temporal.NewNonRetryableApplicationError("loyalty customer unknown", "LoyaltyNotFound", err)
		}
		return err
	}
	activity.RecordHeartbeat(ctx, awardHeartbeat{Completed: true})
	logger.Info("AwardPoints activity completed", "orderRef", award.OrderRef)
	return nil
}

type awardHeartbeat struct {
	Completed bool
}
