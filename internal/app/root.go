package app

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/docksort/internal/organizer"
)

var (
	configFile string
	logLevel   string

	// RootCmd is the root command for docksort
	RootCmd = &cobra.Command{
		Use:   "docksort",
		Short: "Sort a downloads inbox into a categorized, week-bucketed archive",
		Long: `docksort watches a "docking station" directory, waits for new downloads to
finish, classifies them by content, and moves them into a categorized archive
bucketed by week (Sunday to Saturday):

  <organized>/<category>/<Month DD-DD>/<ext>/<name>

Name collisions are never overwritten; the newcomer goes to
<organized>/duplicates/ under a numbered name such as "report(1).pdf".

Quick Start:
  1. docksort organize --dry-run   # see what would move
  2. docksort organize             # file everything once
  3. docksort watch --daemon       # keep the docking station tidy

Modes:
  • organize    File new arrivals from the docking station
  • reorganize  Re-file items whose category changed inside the archive

Configuration is read from $XDG_CONFIG_HOME/docksort/config.toml (or
--config) and DOCKSORT_* environment variables.

Examples:
  # Show daemon state and the last pass
  docksort status

  # Re-file drifted items once
  docksort reorganize

  # Show failed moves
  docksort history --failed`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: $XDG_CONFIG_HOME/docksort/config.toml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(organizeCmd)
	RootCmd.AddCommand(reorganizeCmd)
	RootCmd.AddCommand(watchCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(historyCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// runRoot asks for a mode on an interactive terminal and then watches in
// the foreground. Anywhere else it prints tips.
func runRoot(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if !stdinIsTTY() {
		fmt.Fprintln(out, "docksort: sort a downloads inbox into a categorized archive")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Run 'docksort organize --dry-run' to preview a pass.")
		fmt.Fprintln(out, "Run 'docksort watch --daemon' to keep sorting in the background.")
		fmt.Fprintln(out, "Run 'docksort --help' for the full reference.")
		return nil
	}

	mode, err := promptMode(os.Stdin, out)
	if err != nil {
		return err
	}
	watchMode = string(mode)
	return runWatch(cmd, nil)
}

// promptMode reads a mode choice. An empty answer picks organize.
func promptMode(in io.Reader, out io.Writer) (organizer.Mode, error) {
	fmt.Fprintln(out, "Select a mode:")
	fmt.Fprintln(out, "  1) Organize new items in the docking station")
	fmt.Fprintln(out, "  2) Reorganize existing items in the archive")
	fmt.Fprint(out, "Choice [1]: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read choice: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return organizer.ModeOrganize, nil
	}

	mode, ok := organizer.ParseMode(strings.ToLower(line))
	if !ok {
		return "", fmt.Errorf("invalid choice %q: enter 1 or 2", line)
	}
	return mode, nil
}
