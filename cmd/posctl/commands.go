package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Apurer/cafe-pos-server/internal/app/api"
	fulfillpostgres "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/adapters/persistence/postgres"
	"github.com/Apurer/cafe-pos-server/internal/platform/migrations"
	platformobservability "github.com/Apurer/cafe-pos-server/internal/platform/observability"
	platformpostgres "github.com/Apurer/cafe-pos-server/internal/platform/postgres"
)

const serviceName = "cafe-pos-ctl"

type rootOptions struct {
	dsn     string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "posctl",
		Short:         "Maintenance commands for the café POS database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "PostgreSQL DSN (defaults to POSTGRES_DSN)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Upper bound for the whole command")

	root.AddCommand(newMigrateCmd(opts), newPurgeIdempotencyCmd(opts))
	return root
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the catalog, inventory, order and idempotency tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd.Context(), opts, func(ctx context.Context, logger *slog.Logger, db *gorm.DB, _ api.Config) error {
				if err := migrations.Run(db.WithContext(ctx)); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				logger.Info("schema migrated", slog.Int("tables", len(migrations.Models())))
				return nil
			})
		},
	}
}

func newPurgeIdempotencyCmd(opts *rootOptions) *cobra.Command {
	var (
		olderThan time.Duration
		dryRun    bool
	)
	cmd := &cobra.Command{
		Use:   "purge-idempotency",
		Short: "Delete Idempotency-Key records older than the retention window",
		Long: `Delete create-order idempotency keys older than the retention window.

The window defaults to IDEMPOTENCY_TTL_HOURS. A register replaying a purged key
gets a fresh order, so keep the window longer than any client retry loop.

Examples:
  posctl purge-idempotency                    # use IDEMPOTENCY_TTL_HOURS
  posctl purge-idempotency --older-than 48h   # explicit window
  posctl purge-idempotency --dry-run          # count only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("older-than") && olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			return withDatabase(cmd.Context(), opts, func(ctx context.Context, logger *slog.Logger, db *gorm.DB, cfg api.Config) error {
				window := cfg.IdempotencyTTL
				if olderThan > 0 {
					window = olderThan
				}
				cutoff := time.Now().Add(-window)
				store := fulfillpostgres.NewIdempotencyStore(db)
				if dryRun {
					count, err := store.CountOlderThan(ctx, cutoff)
					if err != nil {
						return fmt.Errorf("count idempotency keys: %w", err)
					}
					logger.Info("idempotency purge dry run", slog.Int64("expired", count), slog.Time("cutoff", cutoff))
					return nil
				}
				removed, err := store.PurgeOlderThan(ctx, cutoff)
				if err != nil {
					return fmt.Errorf("purge idempotency keys: %w", err)
				}
				logger.Info("idempotency purge completed", slog.Int64("removed", removed), slog.Time("cutoff", cutoff))
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Retention window (defaults to IDEMPOTENCY_TTL_HOURS)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report how many keys would be removed")
	return cmd
}

// withDatabase loads configuration, initializes logging, and opens a single-connection pool for fn.
func withDatabase(ctx context.Context, opts *rootOptions, fn func(context.Context, *slog.Logger, *gorm.DB, api.Config) error) error {
	cfg, err := api.LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	dsn := opts.dsn
	if dsn == "" {
		dsn = cfg.PostgresDSN
	}
	if dsn == "" {
		return errors.New("no database configured: pass --dsn or set POSTGRES_DSN")
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.ConfigFromEnv(serviceName))
	if err != nil {
		return fmt.Errorf("initialize observability: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		_ = shutdown(flushCtx)
	}()

	db, closeDB, err := platformpostgres.Open(ctx, dsn,
		platformpostgres.WithMaxOpenConns(1),
		platformpostgres.WithLogger(instruments.Logger),
	)
	if err != nil {
		return err
	}
	defer closeDB()
	return fn(ctx, instruments.Logger, db, cfg)
}
