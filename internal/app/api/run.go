package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	posserver "github.com/Apurer/cafe-pos-server/go"
	loyaltyclient "github.com/Apurer/cafe-pos-server/internal/clients/http/loyalty"

	catalogmemory "github.com/Apurer/cafe-pos-server/internal/domains/catalog/adapters/memory"
	catalogobs "github.com/Apurer/cafe-pos-server/internal/domains/catalog/adapters/observability"
	catalogpostgres "github.com/Apurer/cafe-pos-server/internal/domains/catalog/adapters/persistence/postgres"
	catalogapp "github.com/Apurer/cafe-pos-server/internal/domains/catalog/application"
	catalogports "github.com/Apurer/cafe-pos-server/internal/domains/catalog/ports"

	loyaltygateway "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/adapters/external/loyalty"
	fulfillmemory "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/adapters/memory"
	fulfillobs "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/adapters/observability"
	fulfillpostgres "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/adapters/persistence/postgres"
	fulfillworkflows "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/adapters/workflows"
	fulfillapp "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/application"
	fulfillports "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/ports"

	invmemory "github.com/Apurer/cafe-pos-server/internal/domains/inventory/adapters/memory"
	invobs "github.com/Apurer/cafe-pos-server/internal/domains/inventory/adapters/observability"
	invpostgres "github.com/Apurer/cafe-pos-server/internal/domains/inventory/adapters/persistence/postgres"
	invapp "github.com/Apurer/cafe-pos-server/internal/domains/inventory/application"
	invports "github.com/Apurer/cafe-pos-server/internal/domains/inventory/ports"

	ordermemory "github.com/Apurer/cafe-pos-server/internal/domains/orders/adapters/memory"
	orderpostgres "github.com/Apurer/cafe-pos-server/internal/domains/orders/adapters/persistence/postgres"
	orderports "github.com/Apurer/cafe-pos-server/internal/domains/orders/ports"

	"github.com/Apurer/cafe-pos-server/internal/platform/migrations"
	platformobservability "github.com/Apurer/cafe-pos-server/internal/platform/observability"
	platformpostgres "github.com/Apurer/cafe-pos-server/internal/platform/postgres"
	platformtemporal "github.com/Apurer/cafe-pos-server/internal/platform/temporal"
)

const serviceName = "cafe-pos-api"

// Run boots the POS HTTP API with observability, storage, and loyalty dispatch wired.
// It returns when ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg Config) error {
	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.ConfigFromEnv(serviceName))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	store, cleanupStore := buildStorage(ctx, cfg, logger)
	defer cleanupStore()

	catalogService := catalogobs.New(
		catalogapp.NewService(store.catalog, catalogapp.WithLogger(logger)),
		catalogobs.WithLogger(logger),
		catalogobs.WithTracer(instruments.Tracer("internal.catalog.application")),
		catalogobs.WithMeter(instruments.Meter("internal.catalog.application")),
	)
	inventoryService := invobs.New(
		invapp.NewService(store.ingredients, store.ledger),
		invobs.WithLogger(logger),
		invobs.WithTracer(instruments.Tracer("internal.inventory.application")),
		invobs.WithMeter(instruments.Meter("internal.inventory.application")),
	)

	var accounts fulfillports.LoyaltyAccounts
	coordinatorOpts := []fulfillapp.Option{fulfillapp.WithLogger(logger)}
	gateway, err := buildLoyaltyGateway(cfg)
	if err != nil {
		return err
	}
	if gateway == nil {
		logger.Warn("LOYALTY_BASE_URL not set, loyalty awards and endpoints disabled")
	} else {
		accounts = gateway
		dispatcher, cleanupDispatcher := buildLoyaltyDispatcher(cfg, instruments, gateway)
		defer cleanupDispatcher()
		coordinatorOpts = append(coordinatorOpts, fulfillapp.WithLoyaltyDispatcher(dispatcher))
	}

	orderService := fulfillobs.New(
		fulfillapp.NewCoordinator(store.uow, catalogService, store.orders, coordinatorOpts...),
		fulfillobs.WithLogger(logger),
		fulfillobs.WithTracer(instruments.Tracer("internal.fulfillment.application")),
		fulfillobs.WithMeter(instruments.Meter("internal.fulfillment.application")),
	)

	handlers := posserver.ApiHandleFunctions{
		OrderAPI:     posserver.NewOrderAPI(orderService),
		MenuAPI:      posserver.NewMenuAPI(catalogService),
		InventoryAPI: posserver.NewInventoryAPI(inventoryService),
		LoyaltyAPI:   posserver.NewLoyaltyAPI(accounts),
	}

	engine := gin.Default()
	engine.Use(otelgin.Middleware(serviceName))
	router := posserver.NewRouterWithGinEngine(engine, handlers)

	server := &http.Server{Addr: cfg.Addr(), Handler: router}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("POS API listening", slog.String("addr", server.Addr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("POS API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}

	logger.Info("POS API shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// storage groups the adapters of one backend so the fulfillment unit of work and the
// read paths always share the same store.
type storage struct {
	catalog     catalogports.Repository
	ingredients invports.Repository
	ledger      invports.StockLedger
	orders      orderports.Repository
	uow         fulfillports.UnitOfWork
}

func buildStorage(ctx context.Context, cfg Config, logger *slog.Logger) (storage, func()) {
	db, cleanup := connectPostgres(ctx, cfg, logger)
	if db == nil {
		orders := ordermemory.NewRepository()
		stock := invmemory.NewStore()
		return storage{
			catalog:     catalogmemory.NewRepository(),
			ingredients: stock,
			ledger:      stock,
			orders:      orders,
			uow:         fulfillmemory.NewUnitOfWork(orders, stock, fulfillmemory.NewIdempotencyStore(), cfg.TxTimeout),
		}, cleanup
	}
	stock := invpostgres.NewStore(db)
	logger.Info("repositories configured with postgres")
	return storage{
		catalog:     catalogpostgres.NewRepository(db),
		ingredients: stock,
		ledger:      stock,
		orders:      orderpostgres.NewRepository(db),
		uow:         fulfillpostgres.NewUnitOfWork(db, cfg.TxTimeout),
	}, cleanup
}

func connectPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*gorm.DB, func()) {
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory repositories")
		return nil, func() {}
	}
	db, closeDB, err := platformpostgres.Open(ctx, cfg.PostgresDSN,
		platformpostgres.WithMaxOpenConns(cfg.PostgresMaxConns),
		platformpostgres.WithLogger(logger),
	)
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to memory", slog.String("error", err.Error()))
		return nil, func() {}
	}
	if err := migrations.Run(db); err != nil {
		closeDB()
		logger.Warn("failed to migrate postgres schema, falling back to memory", slog.String("error", err.Error()))
		return nil, func() {}
	}
	return db, closeDB
}

func buildLoyaltyGateway(cfg Config) (*loyaltygateway.Gateway, error) {
	if cfg.LoyaltyBaseURL == "" {
		return nil, nil
	}
	client, err := loyaltyclient.NewLoyaltyClient(cfg.LoyaltyBaseURL, &http.Client{Timeout: cfg.LoyaltyTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to configure loyalty client: %w", err)
	}
	return loyaltygateway.NewGateway(client), nil
}

// buildLoyaltyDispatcher prefers durable Temporal awards and falls back to calling the
// loyalty service inline after commit.
func buildLoyaltyDispatcher(cfg Config, instruments *platformobservability.Instruments, gateway *loyaltygateway.Gateway) (fulfillports.LoyaltyDispatcher, func()) {
	logger := instruments.Logger
	inline := fulfillworkflows.NewInlineLoyaltyDispatcher(gateway)
	if cfg.TemporalDisabled {
		logger.Warn("Temporal disabled via TEMPORAL_DISABLED, awarding loyalty points inline")
		return inline, func() {}
	}
	temporalClient, err := platformtemporal.Dial(instruments, platformtemporal.Options{
		Address:   cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		logger.Warn("Temporal workflows unavailable, awarding loyalty points inline", slog.String("error", err.Error()))
		return inline, func() {}
	}
	logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	return fulfillworkflows.NewTemporalLoyaltyDispatcher(temporalClient), temporalClient.Close
}
