package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/ports"
	loyaltyworkflows "github.com/Apurer/cafe-pos-server/internal/platform/temporal/workflows/loyalty"
)

var (
	_ ports.LoyaltyDispatcher = (*TemporalLoyaltyDispatcher)(nil)
	_ ports.LoyaltyDispatcher = (*InlineLoyaltyDispatcher)(nil)
)

// workflowStarter is the slice of client.Client used to start award workflows.
type workflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// TemporalLoyaltyDispatcher starts one durable award workflow per order and does not wait for it.
type TemporalLoyaltyDispatcher struct {
	client    workflowStarter
	taskQueue string
}

// NewTemporalLoyaltyDispatcher wires a Temporal client into the dispatcher.
func NewTemporalLoyaltyDispatcher(c client.Client) *TemporalLoyaltyDispatcher {
	return &TemporalLoyaltyDispatcher{client: c, taskQueue: loyaltyworkflows.TaskQueue}
}

// DispatchAward starts the award workflow. A workflow already running for the same
// order counts as dispatched.
func (d *TemporalLoyaltyDispatcher) DispatchAward(ctx context.Context, award ports.LoyaltyAward) error {
	if d == nil || d.client == nil {
		return errors.New("temporal loyalty dispatcher not configured")
	}
	ref := strings.TrimSpace(award.OrderRef)
	if ref == "" {
		return errors.New("loyalty award needs an order reference")
	}
	options := client.StartWorkflowOptions{
		ID:        AwardWorkflowID(ref),
		TaskQueue: d.taskQueue,
	}
	_, err := d.client.ExecuteWorkflow(ctx, options, loyaltyworkflows.AwardPointsWorkflowName,
		loyaltyworkflows.AwardPointsWorkflowInput{Award: award, TraceID: workflowTraceID(ctx)})
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			return nil
		}
		return fmt.Errorf("start loyalty award workflow: %w", err)
	}
	return nil
}

// InlineLoyaltyDispatcher calls the loyalty service synchronously, used when Temporal is unavailable.
type InlineLoyaltyDispatcher struct {
	awarder ports.LoyaltyAwarder
}

// NewInlineLoyaltyDispatcher wraps an awarder for synchronous execution.
func NewInlineLoyaltyDispatcher(awarder ports.LoyaltyAwarder) *InlineLoyaltyDispatcher {
	return &InlineLoyaltyDispatcher{awarder: awarder}
}

// DispatchAward delegates straight to the awarder.
func (d *InlineLoyaltyDispatcher) DispatchAward(ctx context.Context, award ports.LoyaltyAward) error {
	if d == nil || d.awarder == nil {
		return errors.New("inline loyalty dispatcher not configured")
	}
	return d.awarder.AwardPoints(ctx, award)
}

// AwardWorkflowID is deterministic per order so repeated dispatches collapse into one award.
func AwardWorkflowID(orderRef string) string {
	return "loyalty-award-" + orderRef
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
