package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/blackwell-systems/docksort/internal/logging"
	"github.com/blackwell-systems/docksort/internal/organizer"
	"github.com/blackwell-systems/docksort/internal/store"
)

// ErrAlreadyRunning is returned by Start when another process holds the
// instance lock.
var ErrAlreadyRunning = errors.New("another docksort instance is already running")

// DefaultDebounce is how long the inbox must stay quiet before a
// filesystem event triggers an early pass.
const DefaultDebounce = 2 * time.Second

// Options configures a Watcher.
type Options struct {
	Mode     organizer.Mode
	Interval time.Duration
	// LockPath is the instance lock file. Empty disables locking.
	LockPath string
	// Inbox is watched for new entries in organize mode. Empty disables
	// event triggers; the interval still applies.
	Inbox    string
	Debounce time.Duration
}

// Watcher runs one pass per interval until stopped. Passes never overlap:
// a tick that fires while a pass is still running is skipped.
type Watcher struct {
	engine *organizer.Engine
	store  *store.Store
	opts   Options
	logger zerolog.Logger

	lock      *flock.Flock
	scheduler gocron.Scheduler
	job       gocron.Job
	events    *inboxEvents

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
	passes  int
	last    *organizer.Report
}

// New creates a new Watcher instance.
func New(engine *organizer.Engine, st *store.Store, opts Options, logger zerolog.Logger) (*Watcher, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if _, ok := organizer.ParseMode(string(opts.Mode)); !ok {
		return nil, fmt.Errorf("unknown mode %q", opts.Mode)
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %v", opts.Interval)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	w := &Watcher{
		engine: engine,
		store:  st,
		opts:   opts,
		logger: logging.Component(logger, "watcher").With().Str("mode", string(opts.Mode)).Logger(),
	}
	if opts.LockPath != "" {
		w.lock = flock.New(opts.LockPath)
	}
	return w, nil
}

// Start acquires the instance lock and schedules passes. The first pass
// starts immediately.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("watcher already running")
	}

	if w.lock != nil {
		ok, err := w.lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return ErrAlreadyRunning
		}
	}

	if err := w.schedule(); err != nil {
		w.releaseLock()
		return err
	}

	w.running = true
	w.logger.Info().
		Dur("interval", w.opts.Interval).
		Bool("events", w.events != nil).
		Msg("watcher started")
	return nil
}

func (w *Watcher) schedule() error {
	s, err := gocron.NewScheduler(
		gocron.WithLogger(cronLogger{w.logger}),
		gocron.WithStopTimeout(time.Minute),
	)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())
	job, err := s.NewJob(
		gocron.DurationJob(w.opts.Interval),
		gocron.NewTask(w.tick),
		gocron.WithName("docksort-"+string(w.opts.Mode)),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithContext(w.ctx),
	)
	if err != nil {
		w.cancel()
		_ = s.Shutdown()
		return fmt.Errorf("schedule pass: %w", err)
	}

	if w.opts.Mode == organizer.ModeOrganize && w.opts.Inbox != "" {
		events, err := watchInbox(w.opts.Inbox, w.opts.Debounce, w.trigger, w.logger)
		if err != nil {
			// Polling alone still covers the inbox.
			w.logger.Warn().Err(err).Str("inbox", w.opts.Inbox).Msg("filesystem events unavailable")
		} else {
			w.events = events
		}
	}

	w.scheduler = s
	w.job = job
	s.Start()
	return nil
}

// trigger asks the scheduler for an early pass.
func (w *Watcher) trigger() {
	w.mu.Lock()
	job := w.job
	w.mu.Unlock()
	if job == nil {
		return
	}
	if err := job.RunNow(); err != nil {
		w.logger.Debug().Err(err).Msg("early pass not started")
	}
}

func (w *Watcher) tick(ctx context.Context) {
	if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		w.logger.Error().Err(err).Msg("pass failed")
	}
}

// RunOnce plans and applies a single pass and records it in the journal.
// A cancelled ctx abandons the pass before anything moves.
func (w *Watcher) RunOnce(ctx context.Context) (*organizer.Report, error) {
	plan, err := w.engine.Plan(ctx, w.opts.Mode)
	if err != nil {
		return nil, err
	}
	if plan.Empty() {
		w.logger.Debug().Msg("nothing to do")
	}

	report := w.engine.Apply(plan, nil)
	if err := w.store.RecordReport(report); err != nil {
		w.logger.Error().Err(err).Str("plan", plan.ID).Msg("failed to record pass")
	}

	w.mu.Lock()
	w.passes++
	w.last = report
	w.mu.Unlock()
	return report, nil
}

// Passes returns the number of completed passes and the latest report.
func (w *Watcher) Passes() (int, *organizer.Report) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.passes, w.last
}

// Stop waits for a running pass to finish, stops scheduling and releases
// the instance lock. A pass still probing file stability is abandoned.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	events, scheduler := w.events, w.scheduler
	w.events, w.job = nil, nil
	w.mu.Unlock()

	if events != nil {
		events.Close()
	}
	if w.cancel != nil {
		w.cancel()
	}

	var err error
	if scheduler != nil {
		if serr := scheduler.Shutdown(); serr != nil {
			err = fmt.Errorf("shutdown scheduler: %w", serr)
		}
	}
	w.releaseLock()
	w.logger.Info().Msg("watcher stopped")
	return err
}

func (w *Watcher) releaseLock() {
	if w.lock == nil {
		return
	}
	if err := w.lock.Unlock(); err != nil {
		w.logger.Warn().Err(err).Str("lock", w.lock.Path()).Msg("failed to release lock")
	}
}
