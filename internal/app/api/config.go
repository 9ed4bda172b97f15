package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"
)

const (
	defaultTxTimeout      = 5 * time.Second
	defaultLoyaltyTimeout = 5 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultPostgresConns  = 10
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port              string
	PostgresDSN       string
	PostgresMaxConns  int
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	// LoyaltyBaseURL is optional; without it payments skip points and the loyalty endpoints answer 503.
	LoyaltyBaseURL string
	LoyaltyTimeout time.Duration
	TxTimeout      time.Duration
	IdempotencyTTL time.Duration
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		LoyaltyBaseURL:    strings.TrimRight(strings.TrimSpace(os.Getenv("LOYALTY_BASE_URL")), "/"),
	}
	var err error
	if cfg.PostgresMaxConns, err = positiveInt("POSTGRES_MAX_CONNS", defaultPostgresConns); err != nil {
		return Config{}, err
	}
	if cfg.LoyaltyTimeout, err = positiveDuration("LOYALTY_TIMEOUT_SECONDS", time.Second, defaultLoyaltyTimeout); err != nil {
		return Config{}, err
	}
	if cfg.TxTimeout, err = positiveDuration("TX_TIMEOUT_SECONDS", time.Second, defaultTxTimeout); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = positiveDuration("IDEMPOTENCY_TTL_HOURS", time.Hour, defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func positiveDuration(key string, unit, fallback time.Duration) (time.Duration, error) {
	n, err := positiveInt(key, 0)
	if err != nil || n == 0 {
		return fallback, err
	}
	return time.Duration(n) * unit, nil
}

// positiveInt returns fallback when key is unset.
func positiveInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
