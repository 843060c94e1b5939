// Package output provides terminal output utilities for docksort.
//
// This package includes:
//   - Table rendering for plans, pass reports, pass history and move history
//   - Progress bars for applying a plan
//   - Spinners for indeterminate operations such as stability probing
//   - Human-readable formatting for sizes, dates, and other data
//
// Tables are rendered with go-pretty; outcome labels carry ANSI colors when
// stdout is a terminal and NO_COLOR is unset.
// Progress indicators are thread-safe and can be used from multiple goroutines.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/docksort/internal/organizer"
	"github.com/blackwell-systems/docksort/internal/store"
)

// ANSI color codes for outcome display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

const maxPathWidth = 48

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

func newTable(headers ...any) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row(headers))
	return tw
}

func alignRight(tw table.Writer, columns ...int) {
	configs := make([]table.ColumnConfig, 0, len(columns))
	for _, n := range columns {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
}

// RenderPlan renders the moves of a plan before they are applied.
// Destinations are shown relative to root.
func RenderPlan(plan *organizer.Plan, root string) string {
	if plan.Empty() {
		return "Nothing to organize.\n"
	}

	tw := newTable("Item", "Size", "Category", "Destination", "Note")
	for _, e := range plan.Entries {
		name := e.Item.Name
		size := formatSize(e.Item.Size)
		if e.Item.IsDir {
			name += "/"
			size = "-"
		}

		var notes []string
		if e.From != "" {
			notes = append(notes, "from "+e.From)
		}
		if e.Target.Duplicate {
			notes = append(notes, colorize(colorYellow, "name taken"))
		}

		tw.AppendRow(table.Row{
			truncatePath(name, 32),
			size,
			e.Category.String(),
			truncatePath(relPath(root, e.Target.Path), maxPathWidth),
			strings.Join(notes, ", "),
		})
	}
	alignRight(tw, 2)
	return tw.Render() + "\n"
}

// RenderReport renders the per-item outcome of an applied plan.
func RenderReport(report *organizer.Report, root string) string {
	if report == nil || len(report.Results) == 0 {
		return "Nothing was moved.\n"
	}

	tw := newTable("Item", "Outcome", "Destination")
	for _, res := range report.Results {
		detail := relPath(root, res.Entry.Target.Path)
		if res.Err != nil {
			detail = res.Err.Error()
		}
		tw.AppendRow(table.Row{
			truncatePath(res.Entry.Item.Name, 32),
			formatOutcome(string(res.Outcome)),
			truncatePath(detail, 64),
		})
	}
	return tw.Render() + "\n"
}

// RenderSummary renders a one-line summary of an applied plan.
// Format: "Moved 3 items · 1 duplicate · 0 failed (1.2s)"
func RenderSummary(report *organizer.Report) string {
	moved, dups, failed := report.Counts()
	var elapsed time.Duration
	if report != nil {
		elapsed = report.Finished.Sub(report.Started).Round(100 * time.Millisecond)
	}

	failedStr := fmt.Sprintf("%d failed", failed)
	if failed > 0 {
		failedStr = colorize(colorRed, failedStr)
	}

	return fmt.Sprintf("Moved %d %s · %d %s · %s (%s)",
		moved+dups, plural(moved+dups, "item", "items"),
		dups, plural(dups, "duplicate", "duplicates"),
		failedStr, elapsed)
}

// RenderPassTable renders recorded passes, newest first.
func RenderPassTable(passes []*store.Pass) string {
	if len(passes) == 0 {
		return "No passes recorded.\n"
	}

	tw := newTable("When", "Mode", "Planned", "Moved", "Dups", "Failed", "Took")
	for _, p := range passes {
		failed := fmt.Sprintf("%d", p.Failed)
		if p.Failed > 0 {
			failed = colorize(colorRed, failed)
		}
		tw.AppendRow(table.Row{
			formatRelativeTime(p.StartedAt),
			p.Mode,
			p.Planned,
			p.Moved,
			p.Duplicates,
			failed,
			p.FinishedAt.Sub(p.StartedAt).Round(time.Millisecond).String(),
		})
	}
	alignRight(tw, 3, 4, 5, 6, 7)
	return tw.Render() + "\n"
}

// RenderMoveTable renders journal entries, newest first.
func RenderMoveTable(moves []*store.Move) string {
	if len(moves) == 0 {
		return "No moves recorded.\n"
	}

	tw := newTable("When", "Outcome", "Source", "Destination")
	for _, m := range moves {
		dest := m.Target
		if m.Error != "" {
			dest = m.Error
		}
		tw.AppendRow(table.Row{
			formatRelativeTime(m.RecordedAt),
			formatOutcome(m.Outcome),
			truncatePath(m.Source, maxPathWidth),
			truncatePath(dest, maxPathWidth),
		})
	}
	return tw.Render() + "\n"
}

// formatOutcome returns a colored label for a move outcome.
func formatOutcome(outcome string) string {
	switch outcome {
	case string(organizer.OutcomeMoved):
		return colorize(colorGreen, "moved")
	case string(organizer.OutcomeDuplicate):
		return colorize(colorYellow, "duplicate")
	case string(organizer.OutcomeFailed):
		return colorize(colorRed, "failed")
	default:
		return colorize(colorGray, outcome)
	}
}

// formatSize converts bytes to human-readable format (e.g. "1.5 MiB").
func formatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	if time.Since(t) < time.Minute {
		return "just now"
	}
	return humanize.Time(t)
}

// relPath returns p relative to base when p lies below base.
func relPath(base, p string) string {
	if base == "" {
		return p
	}
	rel, err := filepath.Rel(base, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return p
	}
	return rel
}

// truncatePath shortens s to maxLen runes, keeping the end, which for paths
// is the part that matters.
func truncatePath(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[len(r)-maxLen:])
	}
	return "..." + string(r[len(r)-maxLen+3:])
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
