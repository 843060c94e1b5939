package organizer

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Probe decides whether a file has finished being written by comparing its
// size across a wait interval.
type Probe struct {
	wait   time.Duration
	logger zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewProbe returns a probe that waits wait between the two size reads.
func NewProbe(wait time.Duration, logger zerolog.Logger) *Probe {
	return &Probe{wait: wait, logger: logger, sleep: sleepContext}
}

// IsStable blocks for the probe interval and reports whether path kept the
// same size. Access errors, a vanished path and cancellation all count as
// not stable.
func (p *Probe) IsStable(ctx context.Context, path string) bool {
	before, err := os.Stat(path)
	if err != nil {
		p.logger.Warn().Err(err).Str("path", path).Msg("stability check: cannot read size")
		return false
	}

	if err := p.sleep(ctx, p.wait); err != nil {
		return false
	}

	after, err := os.Stat(path)
	if err != nil {
		p.logger.Warn().Err(err).Str("path", path).Msg("stability check: cannot read size")
		return false
	}

	return before.Size() == after.Size()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
