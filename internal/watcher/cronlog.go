package watcher

import (
	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// cronLogger routes scheduler logs into zerolog. gocron passes key/value
// pairs in slog style.
type cronLogger struct {
	logger zerolog.Logger
}

var _ gocron.Logger = cronLogger{}

func (l cronLogger) Debug(msg string, args ...any) {
	l.logger.Debug().Fields(args).Msg(msg)
}

func (l cronLogger) Info(msg string, args ...any) {
	// Scheduler lifecycle chatter stays at debug.
	l.logger.Debug().Fields(args).Msg(msg)
}

func (l cronLogger) Warn(msg string, args ...any) {
	l.logger.Warn().Fields(args).Msg(msg)
}

func (l cronLogger) Error(msg string, args ...any) {
	l.logger.Error().Fields(args).Msg(msg)
}
