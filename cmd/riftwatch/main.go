package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/riftwatch/riftwatch/cmd/riftwatch/commands"
	"github.com/riftwatch/riftwatch/logger"
)

var rootCmd = &cobra.Command{
	Use:   "riftwatch",
	Short: "riftwatch - League of Legends tracker job daemon",
	Long: `riftwatch runs the background jobs behind the tracker: refreshing
tracked players, backfilling match history, scoring likely smurfs, and
sweeping for banned accounts, all against the rate-limited Riot API.

Examples:
  riftwatch daemon                # run the scheduler in the foreground
  riftwatch seed --profile prod   # install or update job configurations
  riftwatch jobs list             # show configured jobs
  riftwatch jobs history          # show recent executions`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON instead of console output")
	rootCmd.AddCommand(commands.DaemonCmd)
	rootCmd.AddCommand(commands.SeedCmd)
	rootCmd.AddCommand(commands.JobsCmd)
	rootCmd.AddCommand(commands.SettingsCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
