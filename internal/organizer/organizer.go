package organizer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/blackwell-systems/docksort/internal/category"
	"github.com/blackwell-systems/docksort/internal/config"
	"github.com/blackwell-systems/docksort/internal/logging"
)

// Engine runs organize and reorganize passes. Every pass is split into
// Plan, which only reads the filesystem, and Apply, which moves items.
type Engine struct {
	cfg        config.Config
	logger     zerolog.Logger
	probe      *Probe
	classifier *Classifier
	mover      *Mover
	now        func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, which decides the week bucket of a plan.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithProbe replaces the stability probe.
func WithProbe(p *Probe) Option {
	return func(e *Engine) { e.probe = p }
}

// New constructs an engine for cfg.
func New(cfg config.Config, logger zerolog.Logger, opts ...Option) *Engine {
	logger = logging.Component(logger, "organizer")
	e := &Engine{
		cfg:        cfg,
		logger:     logger,
		probe:      NewProbe(cfg.StabilityWait(), logger),
		classifier: NewClassifier(logger),
		mover:      NewMover(cfg.CrossDeviceCopy),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Plan builds the plan for mode.
func (e *Engine) Plan(ctx context.Context, mode Mode) (*Plan, error) {
	switch mode {
	case ModeOrganize:
		return e.PlanNew(ctx)
	case ModeReorganize:
		return e.PlanReorganize(ctx)
	}
	return nil, fmt.Errorf("unknown mode %q", mode)
}

// PlanNew scans the docking station and decides where every eligible item
// goes. Dotfiles, the organized root, ignored names and partial downloads
// are skipped; files must pass the stability probe, which blocks for the
// configured wait once per file. Cancelling ctx abandons the plan.
func (e *Engine) PlanNew(ctx context.Context) (*Plan, error) {
	inbox := e.cfg.DockingStationPath
	entries, err := os.ReadDir(inbox)
	if err != nil {
		return nil, fmt.Errorf("list docking station: %w", err)
	}

	var decisions []Decision
	for _, de := range entries {
		name := de.Name()
		path := filepath.Join(inbox, name)

		switch {
		case strings.HasPrefix(name, "."):
			continue
		case path == e.cfg.OrganizedPath:
			continue
		case e.ignored(name):
			e.logger.Info().Str("item", name).Msg("skipping ignored item")
			continue
		case e.transient(name):
			e.logger.Info().Str("item", name).Msg("skipping partial download")
			continue
		}

		item, ok := e.stat(path)
		if !ok {
			continue
		}

		if !item.IsDir && !e.probe.IsStable(ctx, path) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			e.logger.Info().Str("item", name).Msg("file not stable yet, deferring")
			continue
		}

		cat, err := e.classify(ctx, item)
		if err != nil {
			return nil, err
		}
		d := Decision{Item: item, Category: cat}
		e.logger.Info().
			Str("item", name).
			Bool("dir", item.IsDir).
			Str("category", d.Category.String()).
			Msg("queued for organization")
		decisions = append(decisions, d)
	}

	return e.newPlan(ModeOrganize, decisions), nil
}

// PlanReorganize walks the category folders of the organized root and
// queues every immediate child whose current classification no longer
// matches the folder it sits in.
func (e *Engine) PlanReorganize(ctx context.Context) (*Plan, error) {
	root := e.cfg.OrganizedPath
	folders, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("list organized root: %w", err)
	}

	var decisions []Decision
	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		folderPath := filepath.Join(root, folder.Name())
		info, err := os.Stat(folderPath)
		if err != nil || !info.IsDir() {
			continue
		}

		children, err := os.ReadDir(folderPath)
		if err != nil {
			e.logger.Warn().Err(err).Str("folder", folder.Name()).Msg("cannot list category folder")
			continue
		}

		for _, child := range children {
			name := child.Name()
			if e.ignored(name) {
				e.logger.Info().Str("item", name).Msg("skipping ignored item")
				continue
			}

			item, ok := e.stat(filepath.Join(folderPath, name))
			if !ok {
				continue
			}

			cat, err := e.classify(ctx, item)
			if err != nil {
				return nil, err
			}
			if string(cat) == folder.Name() {
				continue
			}
			e.logger.Info().
				Str("item", item.Path).
				Str("from", folder.Name()).
				Str("category", cat.String()).
				Msg("queued for re-organization")
			decisions = append(decisions, Decision{Item: item, Category: cat, From: folder.Name()})
		}
	}

	return e.newPlan(ModeReorganize, decisions), nil
}

// Apply executes every entry of plan in order. A failed move is recorded
// and the pass continues. progress, when non-nil, is called after each
// move.
func (e *Engine) Apply(plan *Plan, progress func(Result)) *Report {
	report := &Report{Plan: plan, Started: e.now()}
	if plan.Empty() {
		report.Finished = report.Started
		return report
	}

	for _, entry := range plan.Entries {
		res := e.mover.Move(entry)
		e.logResult(res)
		report.Results = append(report.Results, res)
		if progress != nil {
			progress(res)
		}
	}

	report.Finished = e.now()
	moved, dups, failed := report.Counts()
	e.logger.Info().
		Str("plan", plan.ID).
		Str("mode", string(plan.Mode)).
		Int("moved", moved).
		Int("duplicates", dups).
		Int("failed", failed).
		Msg("pass complete")
	return report
}

// Run plans and applies one pass.
func (e *Engine) Run(ctx context.Context, mode Mode) (*Report, error) {
	plan, err := e.Plan(ctx, mode)
	if err != nil {
		return nil, err
	}
	if plan.Empty() {
		e.logger.Debug().Str("mode", string(mode)).Msg("nothing to do")
	}
	return e.Apply(plan, nil), nil
}

func (e *Engine) newPlan(mode Mode, decisions []Decision) *Plan {
	plan := &Plan{
		ID:        uuid.NewString(),
		Mode:      mode,
		CreatedAt: e.now(),
	}
	planner := NewPlanner(e.cfg.OrganizedPath)
	for _, d := range decisions {
		target := planner.Resolve(d.Item, d.Category, plan.CreatedAt)
		if target.Duplicate {
			e.logger.Info().
				Str("item", d.Item.Name).
				Str("renamed", target.Name).
				Msg("name collision, redirecting to duplicates")
		}
		plan.Entries = append(plan.Entries, Entry{Decision: d, Target: target})
	}
	return plan
}

func (e *Engine) classify(ctx context.Context, item Item) (category.Category, error) {
	if item.IsDir {
		return e.classifier.ForDir(ctx, item.Path)
	}
	return e.classifier.ForFile(item.Name), nil
}

func (e *Engine) stat(path string) (Item, bool) {
	info, err := os.Stat(path)
	if err != nil {
		e.logger.Warn().Err(err).Str("path", path).Msg("skipping inaccessible item")
		return Item{}, false
	}
	item := Item{Path: path, Name: filepath.Base(path), IsDir: info.IsDir()}
	if !item.IsDir {
		item.Size = info.Size()
	}
	return item, true
}

func (e *Engine) ignored(name string) bool {
	return slices.Contains(e.cfg.Ignore, name)
}

func (e *Engine) transient(name string) bool {
	for _, suffix := range e.cfg.TransientSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func (e *Engine) logResult(res Result) {
	switch res.Outcome {
	case OutcomeFailed:
		e.logger.Error().
			Err(res.Err).
			Str("item", res.Entry.Item.Path).
			Str("target", res.Entry.Target.Path).
			Msg("move failed, leaving item for next pass")
	default:
		e.logger.Info().
			Str("item", res.Entry.Item.Path).
			Str("target", res.Entry.Target.Path).
			Str("outcome", string(res.Outcome)).
			Msg("moved")
	}
}
