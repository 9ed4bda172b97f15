//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "cafe-pos-api"
	ConsumerName = "pos-register"

	StateMenuStocked   = "a latte is on the menu and coffee is in stock"
	StatePendingOrder  = "order 1 is pending and coffee is in stock"
	StateShortOrder    = "order 1 is pending and coffee is running low"
	StateOrderMissing  = "no order with id 999"
	StateLowStockAlert = "coffee is at its reorder threshold"
)

// The provider seeds a fresh in-memory stack per state, so every entity gets id 1.
const (
	LatteMenuItemID int64 = 1
	LatteSizeID     int64 = 1
	CoffeeID        int64 = 1
	ExistingOrderID int64 = 1
	MissingOrderID  int64 = 999
	OwnerUserID     int64 = 7
)

const (
	LattePrice           = "140"
	CoffeePerLatte       = "18"
	CoffeeStockPlenty    = "1000"
	CoffeeStockShort     = "10"
	CoffeeReorderAt      = "10"
	LoyaltyPhone         = "09171234567"
	ExampleIdempotencyID = "register-1-000042"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the register consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleCartPayload is a one-latte cart as the register submits it.
func ExampleCartPayload() map[string]any {
	return map[string]any{
		"ownerUserId":   OwnerUserID,
		"paymentMethod": "CASH",
		"lines": []map[string]any{{
			"menuItemId": LatteMenuItemID,
			"sizeId":     LatteSizeID,
			"quantity":   1,
			"price":      LattePrice,
		}},
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
