package organizer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestProbeIsStable_UnchangedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "done.pdf")
	writeFile(t, path, pdfMagic)

	p := NewProbe(10*time.Millisecond, zerolog.Nop())
	if !p.IsStable(context.Background(), path) {
		t.Error("IsStable() = false, want true for a file that does not change")
	}
}

func TestProbeIsStable_GrowingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "download.iso")
	writeFile(t, path, []byte("chunk-1"))

	p := NewProbe(time.Second, zerolog.Nop())
	p.sleep = func(context.Context, time.Duration) error {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
		if err != nil {
			t.Fatalf("failed to open %s: %v", path, err)
		}
		defer f.Close()
		_, err = f.Write([]byte("chunk-2"))
		return err
	}

	if p.IsStable(context.Background(), path) {
		t.Error("IsStable() = true, want false for a file that grew during the wait")
	}
}

func TestProbeIsStable_VanishedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.zip")
	writeFile(t, path, []byte("zip"))

	p := NewProbe(time.Second, zerolog.Nop())
	p.sleep = func(context.Context, time.Duration) error {
		return os.Remove(path)
	}

	if p.IsStable(context.Background(), path) {
		t.Error("IsStable() = true, want false for a file removed during the wait")
	}
}

func TestProbeIsStable_MissingFile(t *testing.T) {
	p := NewProbe(0, zerolog.Nop())
	if p.IsStable(context.Background(), filepath.Join(t.TempDir(), "missing")) {
		t.Error("IsStable() = true, want false for a missing file")
	}
}

func TestProbeIsStable_Cancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slow.mkv")
	writeFile(t, path, []byte("x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProbe(time.Hour, zerolog.Nop())
	start := time.Now()
	if p.IsStable(ctx, path) {
		t.Error("IsStable() = true, want false after cancellation")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("IsStable() took %v after cancellation, want prompt return", elapsed)
	}
}

func TestSleepContext(t *testing.T) {
	if err := sleepContext(context.Background(), 0); err != nil {
		t.Errorf("sleepContext(0) error = %v, want nil", err)
	}
	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("sleepContext(1ms) error = %v, want nil", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Hour); err != context.Canceled {
		t.Errorf("sleepContext(cancelled) error = %v, want %v", err, context.Canceled)
	}
}
