package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/blackwell-systems/docksort/internal/organizer"
)

func TestNew(t *testing.T) {
	cfg := setupTestConfig(t)
	st := setupTestStore(t)
	engine := organizer.New(cfg, zerolog.Nop())

	w, err := New(engine, st, Options{Mode: organizer.ModeOrganize, Interval: time.Second}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v, want nil", err)
	}
	if w.store != st {
		t.Error("watcher store not set correctly")
	}
	if w.opts.Debounce != DefaultDebounce {
		t.Errorf("Debounce = %v, want default %v", w.opts.Debounce, DefaultDebounce)
	}
	if w.lock != nil {
		t.Error("lock should be nil without LockPath")
	}
}

func TestNew_InvalidArguments(t *testing.T) {
	cfg := setupTestConfig(t)
	st := setupTestStore(t)
	engine := organizer.New(cfg, zerolog.Nop())
	valid := Options{Mode: organizer.ModeOrganize, Interval: time.Second}

	tests := []struct {
		name   string
		engine *organizer.Engine
		opts   Options
		nilSt  bool
	}{
		{"nil engine", nil, valid, false},
		{"nil store", engine, valid, true},
		{"unknown mode", engine, Options{Mode: "tidy", Interval: time.Second}, false},
		{"zero interval", engine, Options{Mode: organizer.ModeReorganize}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := st
			if tt.nilSt {
				s = nil
			}
			if _, err := New(tt.engine, s, tt.opts, zerolog.Nop()); err == nil {
				t.Error("New() expected error, got nil")
			}
		})
	}
}

func TestRunOnce_OrganizesAndRecords(t *testing.T) {
	cfg := setupTestConfig(t)
	w, st := newTestWatcher(t, cfg, Options{})
	writeFile(t, filepath.Join(cfg.DockingStationPath, "notes.txt"), "hello")

	report, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v, want nil", err)
	}
	if moved, _, _ := report.Counts(); moved != 1 {
		t.Errorf("RunOnce() moved = %d, want 1", moved)
	}

	last, err := st.LastPass()
	if err != nil {
		t.Fatalf("LastPass() error = %v", err)
	}
	if last == nil || last.ID != report.Plan.ID || last.Moved != 1 {
		t.Errorf("LastPass() = %+v, want recorded pass %s", last, report.Plan.ID)
	}

	passes, latest := w.Passes()
	if passes != 1 || latest != report {
		t.Errorf("Passes() = %d, %p; want 1, %p", passes, latest, report)
	}
}

func TestRunOnce_EmptyPassNotRecorded(t *testing.T) {
	cfg := setupTestConfig(t)
	w, st := newTestWatcher(t, cfg, Options{})

	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	last, err := st.LastPass()
	if err != nil {
		t.Fatalf("LastPass() error = %v", err)
	}
	if last != nil {
		t.Errorf("LastPass() = %+v, want nil for empty pass", last)
	}
}

func TestRunOnce_Cancelled(t *testing.T) {
	cfg := setupTestConfig(t)
	w, _ := newTestWatcher(t, cfg, Options{})
	writeFile(t, filepath.Join(cfg.DockingStationPath, "a.pdf"), "%PDF-1.4")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := w.RunOnce(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("RunOnce() error = %v, want %v", err, context.Canceled)
	}
	if _, err := os.Stat(filepath.Join(cfg.DockingStationPath, "a.pdf")); err != nil {
		t.Errorf("item moved despite cancellation: %v", err)
	}
}

func TestStart_RunsFirstPassImmediately(t *testing.T) {
	cfg := setupTestConfig(t)
	w, _ := newTestWatcher(t, cfg, Options{Interval: time.Hour})
	src := filepath.Join(cfg.DockingStationPath, "song.mp3")
	writeFile(t, src, "x")

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := w.Start(); err == nil {
		t.Error("second Start() expected error, got nil")
	}

	ok := waitFor(t, 5*time.Second, func() bool {
		_, err := os.Stat(src)
		return os.IsNotExist(err)
	})
	if !ok {
		t.Fatal("first pass did not move the item")
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestStart_LockHeldByAnotherInstance(t *testing.T) {
	cfg := setupTestConfig(t)
	lockPath := filepath.Join(cfg.StateDir, "docksort.lock")

	other := flock.New(lockPath)
	locked, err := other.TryLock()
	if err != nil || !locked {
		t.Fatalf("TryLock() = %v, %v", locked, err)
	}

	w, _ := newTestWatcher(t, cfg, Options{LockPath: lockPath})
	if err := w.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("Start() error = %v, want %v", err, ErrAlreadyRunning)
	}

	if err := other.Unlock(); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() after unlock error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	// Stop released the lock.
	locked, err = other.TryLock()
	if err != nil || !locked {
		t.Errorf("TryLock() after Stop = %v, %v; want lock acquired", locked, err)
	}
	_ = other.Unlock()
}

func TestStart_InboxEventTriggersPass(t *testing.T) {
	cfg := setupTestConfig(t)
	w, _ := newTestWatcher(t, cfg, Options{
		Interval: time.Hour,
		Inbox:    cfg.DockingStationPath,
		Debounce: 50 * time.Millisecond,
	})

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if w.events == nil {
		t.Skip("filesystem events unavailable on this platform")
	}
	if !waitFor(t, 5*time.Second, func() bool { n, _ := w.Passes(); return n >= 1 }) {
		t.Fatal("initial pass did not run")
	}

	src := filepath.Join(cfg.DockingStationPath, "clip.mp4")
	writeFile(t, src, "frames")

	ok := waitFor(t, 10*time.Second, func() bool {
		_, err := os.Stat(src)
		return os.IsNotExist(err)
	})
	if !ok {
		t.Error("new arrival was not organized before the next interval")
	}
}

func TestStart_ReorganizeModeIgnoresInboxEvents(t *testing.T) {
	cfg := setupTestConfig(t)
	w, _ := newTestWatcher(t, cfg, Options{
		Mode:     organizer.ModeReorganize,
		Interval: time.Hour,
		Inbox:    cfg.DockingStationPath,
	})

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if w.events != nil {
		t.Error("reorganize mode should not watch the inbox")
	}
}

func TestStop_BeforeStartAndTwice(t *testing.T) {
	cfg := setupTestConfig(t)
	w, _ := newTestWatcher(t, cfg, Options{})

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() before Start() error = %v, want nil", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v, want nil", err)
	}
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Rename}, true},
		{fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Remove}, false},
		{fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "/in/.DS_Store", Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		if got := relevant(tt.ev); got != tt.want {
			t.Errorf("relevant(%v) = %v, want %v", tt.ev, got, tt.want)
		}
	}
}

func TestInboxEvents_Debounce(t *testing.T) {
	dir := t.TempDir()
	fired := make(chan struct{}, 10)
	e, err := watchInbox(dir, 100*time.Millisecond, func() { fired <- struct{}{} }, zerolog.Nop())
	if err != nil {
		t.Skipf("filesystem events unavailable: %v", err)
	}
	defer e.Close()

	for i := 0; i < 5; i++ {
		writeFile(t, filepath.Join(dir, "burst.bin"), "chunk")
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("debounced trigger never fired")
	}

	select {
	case <-fired:
		t.Error("burst of events fired more than once")
	case <-time.After(300 * time.Millisecond):
	}
}
