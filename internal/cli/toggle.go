package cli

import (
	"context"
	"fmt"

	"github.com/2beens/dailyfit/internal/tracker"

	"github.com/spf13/cobra"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle <exercise-id>",
	Short: "Mark an exercise done, or not done if it already is",
	Args:  cobra.ExactArgs(1),
	RunE:  runToggle,
}

func runToggle(cmd *cobra.Command, args []string) error {
	app, err := openTracker(context.Background())
	if err != nil {
		return err
	}
	defer app.Close()

	id := args[0]
	if !app.store.ToggleExercise(id) {
		return fmt.Errorf("exercise %q not found", id)
	}

	state := app.store.State()
	printStatus(cmd.OutOrStdout(), state)
	if len(state.Exercises) > 0 && tracker.CompletionRatio(state.Exercises) == 1 {
		fmt.Fprintln(cmd.OutOrStdout(), "\nAll done for today!")
	}
	return nil
}
