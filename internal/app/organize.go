package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/docksort/internal/organizer"
	"github.com/blackwell-systems/docksort/internal/output"
)

var (
	organizeDryRun   bool
	reorganizeDryRun bool

	organizeCmd = &cobra.Command{
		Use:   "organize",
		Short: "File new arrivals from the docking station once",
		Long: `Run a single organize pass over the docking station.

Each top-level entry is checked for stability (its size must not change
over stability_wait_time_seconds), classified, and moved to:

  <organized>/<category>/<Month DD-DD>/<ext>/<name>

Directories are classified by the majority type of the files inside them
and keep no extension folder.

Skipped entries:
  • Hidden files (names starting with ".")
  • Names listed under "ignore" in the config
  • Partial downloads (.crdownload, .part, .tmp, .download)
  • Entries still being written; they are picked up by a later pass

The full plan is printed before anything moves. A failed move never stops
the pass; the item stays in the docking station for the next run.`,
		Example: `  # Preview without moving anything
  docksort organize --dry-run

  # Organize once
  docksort organize`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(cmd, organizer.ModeOrganize, organizeDryRun)
		},
	}

	reorganizeCmd = &cobra.Command{
		Use:   "reorganize",
		Short: "Re-file archive items whose category changed",
		Long: `Run a single reorganize pass over the organized tree.

Every item inside a category folder is classified again. Items whose new
category differs from the folder they are in are moved to the current
week of their new category. Week folders and items that already match are
left in place.`,
		Example: `  # Preview drifted items
  docksort reorganize --dry-run

  # Re-file them
  docksort reorganize`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(cmd, organizer.ModeReorganize, reorganizeDryRun)
		},
	}
)

func init() {
	organizeCmd.Flags().BoolVar(&organizeDryRun, "dry-run", false, "print the plan without moving anything")
	reorganizeCmd.Flags().BoolVar(&reorganizeDryRun, "dry-run", false, "print the plan without moving anything")
}

// runPass plans, prints, applies and records one pass.
func runPass(cmd *cobra.Command, mode organizer.Mode, dryRun bool) error {
	out := cmd.OutOrStdout()

	s, err := openSession(sessionOptions{console: os.Stderr, level: "warn"})
	if err != nil {
		return err
	}
	defer s.Close()

	lock, err := acquireLock(s.cfg)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	// Ctrl+C abandons planning; moves that already started complete.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := organizer.New(s.cfg, s.logger)

	spinner := output.NewSpinner(planMessage(mode)).WithElapsed()
	spinner.SetWriter(out)
	spinner.Start()
	plan, err := engine.Plan(ctx, mode)
	if err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to plan %s pass: %w", mode, err)
	}
	spinner.StopWithMessage(fmt.Sprintf("✓ Planned %d %s", len(plan.Entries), pluralize(len(plan.Entries), "move", "moves")))

	fmt.Fprintln(out)
	fmt.Fprint(out, output.RenderPlan(plan, s.cfg.OrganizedPath))
	if plan.Empty() {
		return nil
	}
	if dryRun {
		fmt.Fprintln(out, "\nDry run: nothing was moved.")
		return nil
	}

	report := applyWithProgress(engine, plan, out)

	if err := s.store.RecordReport(report); err != nil {
		s.logger.Warn().Err(err).Str("pass", plan.ID).Msg("failed to record pass")
	}

	fmt.Fprintln(out)
	fmt.Fprint(out, output.RenderReport(report, s.cfg.OrganizedPath))
	fmt.Fprintln(out, output.RenderSummary(report))

	if _, _, failed := report.Counts(); failed > 0 {
		fmt.Fprintln(out, "\nFailed items were left in place; run 'docksort history --failed' for details.")
	}
	return nil
}

// applyWithProgress applies plan while drawing a progress bar on out.
func applyWithProgress(engine *organizer.Engine, plan *organizer.Plan, out io.Writer) *organizer.Report {
	progress := output.NewProgress(len(plan.Entries))
	progress.SetWriter(out)
	report := engine.Apply(plan, func(res organizer.Result) {
		progress.Advance(res.Entry.Item.Name)
	})
	progress.Finish()
	return report
}

func planMessage(mode organizer.Mode) string {
	if mode == organizer.ModeReorganize {
		return "Scanning the archive"
	}
	return "Checking downloads are complete"
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
