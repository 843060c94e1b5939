package organizer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/docksort/internal/config"
)

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	pngMagic  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 'I', 'H', 'D', 'R'}
	pdfMagic  = []byte("%PDF-1.4\n%âãÏÓ\n")

	oggVorbisMagic = oggPage("\x01vorbis")
	oggOpusMagic   = oggPage("OpusHead")
	asfMagic       = []byte{
		0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11,
		0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C,
		0x00, 0x00, 0x00, 0x00,
	}
)

// oggPage returns an Ogg page header whose first packet starts with codec.
func oggPage(codec string) []byte {
	page := append([]byte("OggS\x00\x02"), make([]byte, 22)...)
	page = append(page, codec...)
	return append(page, make([]byte, 16)...)
}

// fixedNow is a Monday; its week bucket is "October 18-24".
var fixedNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.Local)

const fixedWeek = "October 18-24"

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent of %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func mustExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); err != nil {
		t.Errorf("expected %s to exist: %v", path, err)
	}
}

func mustNotExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s to be absent, stat error = %v", path, err)
	}
}

// setupEngine creates a docking station and organized root under a temp
// dir and returns an engine with a zero stability wait and a fixed clock.
func setupEngine(t *testing.T, opts ...Option) (*Engine, config.Config) {
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
		t.Fatalf("setupEngine: %v", err)
	}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(cfg, zerolog.Nop(), opts...), cfg
}
