package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/2beens/dailyfit/internal/tracker"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List completed days",
	RunE:  runHistory,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "show only the last n entries (0 = all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	app, err := openTracker(context.Background())
	if err != nil {
		return err
	}
	defer app.Close()

	printHistory(cmd.OutOrStdout(), app.store.State(), historyLimit)
	return nil
}

func printHistory(w io.Writer, state tracker.State, limit int) {
	history := state.CompletionHistory
	if len(history) == 0 {
		fmt.Fprintln(w, "No completed days yet.")
		return
	}
	if limit > 0 && limit < len(history) {
		history = history[len(history)-limit:]
	}

	for _, entry := range history {
		fmt.Fprintf(w, "%-10s  %d/%d\n", entry.Date, entry.Completed, entry.Total)
	}
	fmt.Fprintf(w, "\nStreak: %d\n", state.Streak)
}
