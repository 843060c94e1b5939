package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/docksort/internal/config"
	"github.com/blackwell-systems/docksort/internal/organizer"
	"github.com/blackwell-systems/docksort/internal/store"
)

// setupTestStore creates an in-memory SQLite store for tests and registers
// cleanup with t.Cleanup so callers don't need explicit defer.
func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("setupTestStore: open: %v", err)
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		t.Fatalf("setupTestStore: schema: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// setupTestConfig creates a docking station, organized root and state dir
// under a temp dir with a zero stability wait.
func setupTestConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Config{
		DockingStationPath:  filepath.Join(root, "DockingStation"),
		OrganizedPath:       filepath.Join(root, "Organized"),
		StateDir:            filepath.Join(root, "state"),
		TransientSuffixes:   config.DefaultTransientSuffixes,
		ScanIntervalSeconds: 1,
	}
	if _, err := config.EnsureDirs(cfg); err != nil {
		t.Fatalf("setupTestConfig: %v", err)
	}
	return cfg
}

func newTestWatcher(t *testing.T, cfg config.Config, opts Options) (*Watcher, *store.Store) {
	t.Helper()
	st := setupTestStore(t)
	if opts.Mode == "" {
		opts.Mode = organizer.ModeOrganize
	}
	if opts.Interval == 0 {
		opts.Interval = time.Hour
	}
	w, err := New(organizer.New(cfg, zerolog.Nop()), st, opts, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { w.Stop() })
	return w, st
}

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}
