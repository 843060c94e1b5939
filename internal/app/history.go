package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/docksort/internal/output"
	"github.com/blackwell-systems/docksort/internal/store"
)

var (
	historyLimit  int
	historyFailed bool
	historyPasses bool

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show recent moves from the journal",
		Long: `Show moves recorded by previous passes, newest first.

Every applied pass is journaled with one record per planned item: where it
came from, where it went, and whether it was moved, diverted to duplicates,
or failed. Failed items stay where they were and are retried by the next
pass.`,
		Example: `  # Last 20 moves
  docksort history

  # Only failures, with their errors
  docksort history --failed

  # One line per pass instead of per move
  docksort history --passes --limit 10`,
		RunE: runHistory,
	}
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of records to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "show only failed moves")
	historyCmd.Flags().BoolVar(&historyPasses, "passes", false, "list passes instead of moves")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyLimit < 0 {
		return fmt.Errorf("--limit must be >= 0, got %d", historyLimit)
	}
	if historyPasses && historyFailed {
		return fmt.Errorf("--failed cannot be combined with --passes")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if _, err := os.Stat(cfg.DatabasePath()); os.IsNotExist(err) {
		fmt.Fprintln(out, "No passes recorded yet. Run 'docksort organize' to get started.")
		return nil
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer st.Close()

	if historyPasses {
		passes, err := st.ListPasses(historyLimit)
		if err != nil {
			return notInitializedHint(err)
		}
		fmt.Fprint(out, output.RenderPassTable(passes))
		return nil
	}

	moves, err := st.ListMoves(historyLimit, historyFailed)
	if err != nil {
		return notInitializedHint(err)
	}
	fmt.Fprint(out, output.RenderMoveTable(moves))
	return nil
}

// notInitializedHint turns an empty journal file into a friendly error.
func notInitializedHint(err error) error {
	if errors.Is(err, store.ErrNotInitialized) {
		return store.ErrNotInitialized
	}
	return fmt.Errorf("failed to read journal: %w", err)
}
