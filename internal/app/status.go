package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/docksort/internal/config"
	"github.com/blackwell-systems/docksort/internal/store"
	"github.com/blackwell-systems/docksort/internal/watcher"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon state, configured paths and the last pass",
	Long: `Display the current state of docksort.

Shows:
  • Daemon running status and PID
  • Config file, docking station and archive locations
  • Number of entries waiting in the docking station
  • Journal totals and the most recent pass

status never creates or modifies anything.`,
	Example: `  # Check status
  docksort status`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	const label = "%-14s"
	fmt.Fprintln(out)

	pidFile := cfg.PIDPath()
	if pid := watcher.DaemonPID(pidFile); pid > 0 {
		fmt.Fprintf(out, label+"running (since %s, PID %d)\n", "Daemon:", daemonSince(pidFile), pid)
	} else {
		fmt.Fprintf(out, label+"stopped  (run 'docksort watch --daemon')\n", "Daemon:")
	}

	configShown := cfg.File
	if configShown == "" {
		configShown = "(defaults)"
	}
	fmt.Fprintf(out, label+"%s\n", "Config:", configShown)
	fmt.Fprintf(out, label+"%s · %s\n", "Inbox:", cfg.DockingStationPath, pendingSummary(cfg))
	fmt.Fprintf(out, label+"%s\n", "Archive:", cfg.OrganizedPath)

	printJournalStatus(out, cfg, label)

	fmt.Fprintln(out)
	return nil
}

// printJournalStatus prints totals and the last pass without creating the
// journal.
func printJournalStatus(out io.Writer, cfg config.Config, label string) {
	dbPath := cfg.DatabasePath()
	fi, err := os.Stat(dbPath)
	if err != nil {
		fmt.Fprintf(out, label+"no passes recorded yet\n", "Journal:")
		return
	}

	st, err := store.New(dbPath)
	if err != nil {
		fmt.Fprintf(out, label+"unreadable (%v)\n", "Journal:", err)
		return
	}
	defer st.Close()

	totals, err := st.GetTotals()
	if errors.Is(err, store.ErrNotInitialized) || (err == nil && totals.Passes == 0) {
		fmt.Fprintf(out, label+"no passes recorded yet\n", "Journal:")
		return
	}
	if err != nil {
		fmt.Fprintf(out, label+"unreadable (%v)\n", "Journal:", err)
		return
	}

	fmt.Fprintf(out, label+"%d passes · %d moved · %d duplicates · %d failed · %s\n", "Journal:",
		totals.Passes, totals.Moved, totals.Duplicates, totals.Failed, humanize.IBytes(uint64(fi.Size())))

	last, err := st.LastPass()
	if err != nil || last == nil {
		return
	}
	fmt.Fprintf(out, label+"%s %s · %d planned · %d moved · %d duplicates · %d failed\n", "Last pass:",
		last.Mode, humanize.Time(last.StartedAt), last.Planned, last.Moved, last.Duplicates, last.Failed)
}

// pendingSummary counts visible entries waiting in the docking station.
func pendingSummary(cfg config.Config) string {
	entries, err := os.ReadDir(cfg.DockingStationPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "missing (created on first pass)"
		}
		return "unreadable"
	}
	n := 0
	for _, e := range entries {
		if e.Name()[0] == '.' {
			continue
		}
		if filepath.Join(cfg.DockingStationPath, e.Name()) == cfg.OrganizedPath {
			continue
		}
		n++
	}
	return fmt.Sprintf("%d %s waiting", n, pluralize(n, "entry", "entries"))
}

// daemonSince returns a human-readable age of the PID file (proxy for daemon start time).
func daemonSince(pidFile string) string {
	fi, err := os.Stat(pidFile)
	if err != nil {
		return "unknown"
	}
	if time.Since(fi.ModTime()) < 5*time.Second {
		return "just now"
	}
	return humanize.Time(fi.ModTime())
}
