package loyalty

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	fulfillports "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/ports"
	loyaltyactivities "github.com/Apurer/cafe-pos-server/internal/platform/temporal/activities/loyalty"
)

const (
	// AwardPointsWorkflowName is the public identifier for registering the workflow.
	AwardPointsWorkflowName = "loyalty.workflows.AwardPoints"
	// TaskQueue is the queue consumed by the loyalty worker.
	TaskQueue = "LOYALTY_AWARDS"
)

// AwardPointsWorkflowInput carries the award plus the caller's trace id.
type AwardPointsWorkflowInput struct {
	Award   fulfillports.LoyaltyAward
	TraceID string
}

// AwardPointsWorkflow retries the loyalty call until it lands or the policy gives up.
func AwardPointsWorkflow(ctx workflow.Context, input AwardPointsWorkflowInput) error {
	logger := workflow.GetLogger(ctx)
	ref := input.Award.OrderRef
	logger.Info("AwardPointsWorkflow started", withTraceID(input.TraceID, "orderRef", ref)...)

	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    10,
		},
	}
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, options), loyaltyactivities.AwardPointsActivityName, input.Award).Get(ctx, nil)
	if err != nil {
		logger.Error("AwardPointsWorkflow failed", withTraceID(input.TraceID, "orderRef", ref, "error", err)...)
		return err
	}
	logger.Info("AwardPointsWorkflow completed", withTraceID(input.TraceID, "orderRef", ref)...)
	return nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
