package app

import (
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/docksort/internal/organizer"
	"github.com/blackwell-systems/docksort/internal/output"
	"github.com/blackwell-systems/docksort/internal/watcher"
)

var (
	watchMode        string
	watchDaemon      bool
	watchDaemonChild bool
	watchPIDFile     string
	watchLogFile     string
	watchStop        bool

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Sort continuously, every scan interval",
		Long: `Run passes repeatedly until stopped.

A pass runs immediately and then every scan_interval_seconds. In organize
mode new entries in the docking station also trigger a pass once they have
been quiet for a moment, so downloads are filed without waiting for the
next interval. Passes never overlap.

Watch modes:
  • Foreground (default): Run in current terminal with Ctrl+C to stop
  • Daemon: Run as a background process that logs to a file
  • Stop: Stop a running daemon

Only one docksort instance sorts at a time. While a watcher runs,
'docksort organize' and 'docksort reorganize' refuse to start.`,
		Example: `  # Run in foreground (Ctrl+C to stop)
  docksort watch

  # Re-file drifted archive items continuously
  docksort watch --mode reorganize

  # Run as background daemon
  docksort watch --daemon

  # Stop running daemon
  docksort watch --stop

  # Use custom PID and log files
  docksort watch --daemon --pid-file /tmp/docksort.pid --log-file /tmp/docksort.log`,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().StringVar(&watchMode, "mode", string(organizer.ModeOrganize), "pass to run: organize or reorganize")
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().StringVar(&watchPIDFile, "pid-file", "", "PID file path (default: <state_dir>/watch.pid)")
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "log file path (default: <state_dir>/watch.log)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop running daemon")

	// Hide the internal daemon-child flag from help
	_ = watchCmd.Flags().MarkHidden("daemon-child")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchDaemon && watchStop {
		return fmt.Errorf("--daemon and --stop are mutually exclusive")
	}
	mode, ok := organizer.ParseMode(watchMode)
	if !ok {
		return fmt.Errorf("invalid --mode %q: must be organize or reorganize", watchMode)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if watchPIDFile == "" {
		watchPIDFile = cfg.PIDPath()
	}
	if watchLogFile == "" {
		watchLogFile = cfg.DaemonLogPath()
	}

	if watchStop {
		return stopWatchDaemon(cmd.OutOrStdout())
	}

	// The daemon child logs JSON lines to the rotated log file instead of
	// the console.
	opts := sessionOptions{console: os.Stderr}
	if watchDaemonChild {
		opts = sessionOptions{console: io.Discard, logFile: watchLogFile}
	}

	s, err := openSession(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	w, err := watcher.New(organizer.New(s.cfg, s.logger), s.store, watcher.Options{
		Mode:     mode,
		Interval: s.cfg.ScanInterval(),
		LockPath: s.cfg.LockPath(),
		Inbox:    s.cfg.DockingStationPath,
	}, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if watchDaemon {
		return startWatchDaemon(cmd.OutOrStdout(), w, mode)
	}

	if watchDaemonChild {
		// stdout/stderr go to the output file next to the log file.
		return w.RunDaemon(watchPIDFile)
	}

	return runWatchForeground(cmd.OutOrStdout(), w, mode, s.cfg.DockingStationPath, s.cfg.OrganizedPath)
}

// daemonChildArgs are the flags passed to the re-executed child.
func daemonChildArgs(mode organizer.Mode) []string {
	args := []string{"--mode", string(mode), "--pid-file", watchPIDFile, "--log-file", watchLogFile}
	if configFile != "" {
		args = append(args, "--config", configFile)
	}
	if logLevel != "" {
		args = append(args, "--log-level", logLevel)
	}
	return args
}

func stopWatchDaemon(out io.Writer) error {
	running, err := watcher.IsDaemonRunning(watchPIDFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if !running {
		fmt.Fprintln(out, "Daemon is not running")
		return nil
	}

	spinner := output.NewSpinner("Stopping daemon...")
	spinner.SetWriter(out)
	spinner.Start()
	if err := watcher.StopDaemon(watchPIDFile); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	spinner.StopWithMessage("✓ Daemon stopped")

	return nil
}

func startWatchDaemon(out io.Writer, w *watcher.Watcher, mode organizer.Mode) error {
	spinner := output.NewSpinner("Starting daemon...")
	spinner.SetWriter(out)
	spinner.Start()
	if err := w.StartDaemon(watchPIDFile, watchLogFile, daemonChildArgs(mode)...); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	spinner.StopWithMessage("✓ Daemon started")

	fmt.Fprintf(out, "\nSorting daemon started (%s mode)\n", mode)
	fmt.Fprintf(out, "  PID file: %s\n", watchPIDFile)
	fmt.Fprintf(out, "  Log file: %s\n", watchLogFile)
	fmt.Fprintf(out, "  Output:   %s\n", watcher.OutputPath(watchLogFile))
	fmt.Fprintf(out, "\nTo stop: docksort watch --stop\n")

	return nil
}

func runWatchForeground(out io.Writer, w *watcher.Watcher, mode organizer.Mode, inbox, root string) error {
	switch mode {
	case organizer.ModeReorganize:
		fmt.Fprintf(out, "Reorganizing %s (press Ctrl+C to stop)...\n\n", root)
	default:
		fmt.Fprintf(out, "Organizing %s into %s (press Ctrl+C to stop)...\n\n", inbox, root)
	}

	if err := w.RunUntilSignal(syscall.SIGINT, syscall.SIGTERM); err != nil {
		return err
	}

	passes, last := w.Passes()
	moved, dups, failed := last.Counts()
	fmt.Fprintf(out, "\n✓ Watcher stopped after %d %s\n", passes, pluralize(passes, "pass", "passes"))
	if last != nil {
		fmt.Fprintf(out, "  Last pass: %d moved · %d %s · %d failed\n",
			moved, dups, pluralize(dups, "duplicate", "duplicates"), failed)
	}
	return nil
}
