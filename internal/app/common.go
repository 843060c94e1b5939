package app

import (
	"fmt"
	"io"
	"os"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/blackwell-systems/docksort/internal/config"
	"github.com/blackwell-systems/docksort/internal/logging"
	"github.com/blackwell-systems/docksort/internal/store"
	"github.com/blackwell-systems/docksort/internal/watcher"
)

// session bundles what every state-changing command needs.
type session struct {
	cfg    config.Config
	logger zerolog.Logger
	store  *store.Store
}

// loadConfig reads the config file named by --config, or the default one.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// sessionOptions adjusts logging for one command.
type sessionOptions struct {
	// console receives human-readable logs; io.Discard disables them.
	console io.Writer
	// level replaces the configured level unless --log-level was given.
	level string
	// logFile is used when the config names no log file.
	logFile string
}

// openSession loads the config, builds the logger, creates missing
// directories and opens the move journal.
func openSession(opts sessionOptions) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	level := logLevel
	if level == "" {
		level = opts.level
	}
	if cfg.Log.File == "" {
		cfg.Log.File = opts.logFile
	}
	logger, err := logging.FromConfig(cfg, level, opts.console)
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}

	created, err := config.EnsureDirs(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	for _, dir := range created {
		logger.Info().Str("path", dir).Msg("created directory")
	}

	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	return &session{cfg: cfg, logger: logger, store: st}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// acquireLock takes the single-instance lock for a one-shot pass. It fails
// fast when a watcher holds it.
func acquireLock(cfg config.Config) (*flock.Flock, error) {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", lock.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (stop it with 'docksort watch --stop')", watcher.ErrAlreadyRunning)
	}
	return lock, nil
}

// stdinIsTTY is replaced in tests.
var stdinIsTTY = func() bool {
	return isatty.IsTerminal(os.Stdin.Fd())
}
