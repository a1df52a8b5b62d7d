package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/2beens/dailyfit/internal/tracker"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show progress statistics",
	Long: `Show progress statistics: overall completion rate, streak,
category breakdown of the exercise list and this week's progress.`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	app, err := openTracker(context.Background())
	if err != nil {
		return err
	}
	defer app.Close()

	printStats(cmd.OutOrStdout(), app.store.State(), app.store.Now())
	return nil
}

func printStats(w io.Writer, state tracker.State, now time.Time) {
	summary := tracker.Summarize(state)

	fmt.Fprintln(w, "Progress")
	fmt.Fprintln(w, strings.Repeat("-", 32))
	fmt.Fprintf(w, "Current streak:      %d\n", summary.CurrentStreak)
	fmt.Fprintf(w, "Completion rate:     %d%%\n", summary.CompletionRate)
	fmt.Fprintf(w, "Exercises completed: %d\n", summary.TotalExercisesCompleted)
	fmt.Fprintf(w, "Days tracked:        %d\n", summary.DaysTracked)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Categories")
	fmt.Fprintln(w, strings.Repeat("-", 32))
	for _, share := range tracker.CategoryBreakdown(state.Exercises) {
		fmt.Fprintf(w, "%-12s %2d  %3d%%\n", share.Category, share.Count, share.Percentage)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "This week")
	fmt.Fprintln(w, strings.Repeat("-", 32))
	for _, d := range tracker.WeeklyProgress(state.CompletionHistory, now) {
		marker := ""
		if d.IsToday {
			marker = "  <- today"
		}
		fmt.Fprintf(w, "%s %-10s %3d%% %s%s\n", d.Day, d.Date, d.Percentage, bar(d.Percentage), marker)
	}
}

func bar(percentage int) string {
	filled := percentage / 10
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", 10-filled) + "]"
}
