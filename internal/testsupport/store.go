package testsupport

import (
	"testing"

	"scrivener/internal/config"
	"scrivener/internal/jobs"
)

// MustOpenJobs opens a jobs.Store for tests and registers cleanup.
func MustOpenJobs(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
