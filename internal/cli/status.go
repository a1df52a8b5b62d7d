package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/2beens/dailyfit/internal/tracker"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's exercises",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, err := openTracker(context.Background())
	if err != nil {
		return err
	}
	defer app.Close()

	printStatus(cmd.OutOrStdout(), app.store.State())
	return nil
}

func printStatus(w io.Writer, state tracker.State) {
	done := 0
	for _, e := range state.Exercises {
		mark := " "
		if e.Completed {
			mark = "x"
			done++
		}
		fmt.Fprintf(w, "[%s] %-3s %-16s %3d x %d  (%s)\n", mark, e.ID, e.Name, e.Reps, e.Sets, e.Category)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Today:  %d/%d (%.0f%%)\n", done, len(state.Exercises), tracker.CompletionRatio(state.Exercises)*100)
	fmt.Fprintf(w, "Streak: %d\n", state.Streak)
	if !state.LastCompletionDate.IsZero() {
		fmt.Fprintf(w, "Last completed day: %s\n", state.LastCompletionDate)
	}
}
