package testsupport

import (
	"testing"

	"scriptbook/internal/config"
	"scriptbook/internal/ledger"
)

// MustOpenLedger opens a ledger store for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
