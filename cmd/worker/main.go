package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/cafe-pos-server/internal/app/api"
	loyaltyclient "github.com/Apurer/cafe-pos-server/internal/clients/http/loyalty"
	loyaltygateway "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/adapters/external/loyalty"
	platformobservability "github.com/Apurer/cafe-pos-server/internal/platform/observability"
	platformtemporal "github.com/Apurer/cafe-pos-server/internal/platform/temporal"
	loyaltyactivities "github.com/Apurer/cafe-pos-server/internal/platform/temporal/activities/loyalty"
	loyaltyworkflows "github.com/Apurer/cafe-pos-server/internal/platform/temporal/workflows/loyalty"
)

func main() {
	ctx := context.Background()
	const serviceName = "cafe-pos-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.ConfigFromEnv(serviceName))
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := api.LoadConfig()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.LoyaltyBaseURL == "" {
		logger.Error("LOYALTY_BASE_URL is required by the loyalty worker")
		os.Exit(1)
	}
	client, err := loyaltyclient.NewLoyaltyClient(cfg.LoyaltyBaseURL, &http.Client{Timeout: cfg.LoyaltyTimeout})
	if err != nil {
		logger.Error("failed to configure loyalty client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	awardActivities := loyaltyactivities.NewActivities(loyaltygateway.NewGateway(client))

	temporalClient, err := platformtemporal.Dial(instruments, platformtemporal.Options{
		Address:    cfg.TemporalAddress,
		Namespace:  cfg.TemporalNamespace,
		TracerName: "temporal-worker",
	})
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, loyaltyworkflows.TaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(loyaltyworkflows.AwardPointsWorkflow, workflow.RegisterOptions{Name: loyaltyworkflows.AwardPointsWorkflowName})
	w.RegisterActivityWithOptions(awardActivities.AwardPoints, activity.RegisterOptions{Name: loyaltyactivities.AwardPointsActivityName})

	logger.Info("worker listening", slog.String("taskQueue", loyaltyworkflows.TaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
