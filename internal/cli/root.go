package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dailyfit",
	Short: "Daily exercise checklist with streak tracking",
	Long: `dailyfit tracks a fixed list of daily exercises.

Mark exercises done, and once the whole list is complete the day counts
towards your streak. The state is shared with the dailyfit service when both
point at the same storage.`,
	SilenceUsage: true,
}

// Flags
var (
	flagEnv        string
	flagConfigPath string
	flagDataDir    string
	flagLogLevel   string
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", "development", "config environment: dev, development, prod, production")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "./config.toml", "path for the TOML config file (optional)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "file storage directory, overrides the config")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "error", "log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(hashTokenCmd)
}
