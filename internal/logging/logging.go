// Package logging builds the zerolog logger shared by docksort components.
//
// Human-readable console output always goes to the console writer (stderr
// by default). When a file is configured, JSON lines are also written to it
// through lumberjack so long-running daemons rotate their logs.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"

	"github.com/blackwell-systems/docksort/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Console receives the human-readable stream. Nil means stderr; use
	// io.Discard to write only to File.
	Console io.Writer
	// NoColor disables ANSI colors on the console stream.
	NoColor bool
}

// New constructs a logger from opts.
func New(opts Options) (zerolog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var writers []io.Writer
	if console != io.Discard {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: "15:04:05",
			NoColor:    opts.NoColor,
		})
	}
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		})
	}
	if len(writers) == 0 {
		return zerolog.Nop(), nil
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

// FromConfig builds a logger from the [log] section of cfg. A non-empty
// levelOverride (the --log-level flag) wins over the configured level.
func FromConfig(cfg config.Config, levelOverride string, console io.Writer) (zerolog.Logger, error) {
	level := cfg.Log.Level
	if levelOverride != "" {
		level = levelOverride
	}
	return New(Options{
		Level:      level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Console:    console,
	})
}

// ParseLevel maps a level name to a zerolog level. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	if s == "warning" {
		s = "warn"
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("log level: unsupported value %q", s)
	}
	return level, nil
}

// Component returns a child logger tagged with the component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
