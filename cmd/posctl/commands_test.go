package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	return root.Execute()
}

func TestPurgeIdempotency_RequiresDatabase(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	err := execute(t, "purge-idempotency", "--dry-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_DSN")
}

func TestPurgeIdempotency_RejectsNonPositiveWindow(t *testing.T) {
	err := execute(t, "purge-idempotency", "--older-than", "0s")
	require.EqualError(t, err, "--older-than must be positive")
}

func TestPurgeIdempotency_RejectsBadConfig(t *testing.T) {
	t.Setenv("IDEMPOTENCY_TTL_HOURS", "never")
	err := execute(t, "purge-idempotency", "--dsn", "postgres://localhost/cafe")
	require.ErrorContains(t, err, "IDEMPOTENCY_TTL_HOURS")
}

func TestMigrate_RejectsArgs(t *testing.T) {
	err := execute(t, "migrate", "extra")
	require.Error(t, err)
}
