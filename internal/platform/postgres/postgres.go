// Package postgres opens the shared GORM pool used by the POS storage adapters and
// classifies driver errors that are safe to retry.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// PoolConfig tunes the database/sql pool behind GORM.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
	SlowQuery       time.Duration
	Logger          *slog.Logger
}

// Option customizes a PoolConfig.
type Option func(*PoolConfig)

// WithMaxOpenConns caps concurrent connections. Idle connections follow at half the cap.
func WithMaxOpenConns(n int) Option {
	return func(c *PoolConfig) {
		if n > 0 {
			c.MaxOpenConns = n
			c.MaxIdleConns = max(1, n/2)
		}
	}
}

// WithPingTimeout bounds the connectivity check made by Connect.
func WithPingTimeout(d time.Duration) Option {
	return func(c *PoolConfig) {
		if d > 0 {
			c.PingTimeout = d
		}
	}
}

// WithLogger routes slow queries and driver warnings to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *PoolConfig) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

func defaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		PingTimeout:     5 * time.Second,
		SlowQuery:       200 * time.Millisecond,
		Logger:          slog.Default(),
	}
}

// Connect opens a PostgreSQL pool via GORM, applies pool limits, and verifies connectivity.
func Connect(ctx context.Context, dsn string, opts ...Option) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres DSN is empty")
	}
	cfg := defaultPoolConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(slogWriter{logger: cfg.Logger}, gormlogger.Config{
			SlowThreshold:             cfg.SlowQuery,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Open connects like Connect and also returns a cleanup func that closes the pool.
func Open(ctx context.Context, dsn string, opts ...Option) (*gorm.DB, func(), error) {
	db, err := Connect(ctx, dsn, opts...)
	if err != nil {
		return nil, func() {}, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, func() {}, err
	}
	return db, func() { _ = sqlDB.Close() }, nil
}

// SQLSTATE codes PostgreSQL raises when a transaction lost a race and may be replayed.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// IsRetryable reports whether err is a transaction conflict that a fresh attempt can resolve.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	}
	return false
}

// slogWriter adapts slog to the Printf sink GORM's logger expects.
type slogWriter struct {
	logger *slog.Logger
}

func (w slogWriter) Printf(format string, args ...any) {
	w.logger.LogAttrs(context.Background(), slog.LevelWarn, "gorm",
		slog.String("component", "postgres"),
		slog.String("detail", fmt.Sprintf(format, args...)),
	)
}
