package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear today's completions (streak and history are kept)",
	RunE:  runReset,
}

func runReset(cmd *cobra.Command, args []string) error {
	app, err := openTracker(context.Background())
	if err != nil {
		return err
	}
	defer app.Close()

	app.store.ResetDaily()

	fmt.Fprintln(cmd.OutOrStdout(), "Today's exercises reset.")
	printStatus(cmd.OutOrStdout(), app.store.State())
	return nil
}
