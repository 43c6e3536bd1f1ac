package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/riftwatch/riftwatch/config"
	"github.com/riftwatch/riftwatch/errors"
	"github.com/riftwatch/riftwatch/jobs"
	"github.com/riftwatch/riftwatch/logger"
	"github.com/riftwatch/riftwatch/riot"
	"github.com/riftwatch/riftwatch/settings"
	"github.com/riftwatch/riftwatch/store"
)

// DaemonCmd runs the job scheduler in the foreground
var DaemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the job scheduler in the foreground",
	Long: `Start the riftwatch daemon.

The daemon will:
- Apply pending database migrations
- Seed job configurations for the configured profile
- Mark executions orphaned by the previous run as failed
- Schedule every active job and run until interrupted (Ctrl+C)

Shutdown is graceful: in-flight jobs finish, bounded by their own timeout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		skipSeed, _ := cmd.Flags().GetBool("no-seed")
		if !skipSeed {
			if err := jobs.Seed(jobs.NewConfigStore(database), cfg.Jobs.Profile, logger.Logger); err != nil {
				return errors.Wrap(err, "failed to seed job configurations")
			}
		}

		apiKey, err := resolveAPIKey(cfg, settings.NewStore(database))
		if err != nil {
			return err
		}

		client := riot.NewHTTPClient(riot.ClientConfig{
			BaseURL:               cfg.Riot.BaseURL,
			APIKey:                apiKey,
			RequestsPerSecond:     cfg.Riot.RequestsPerSecond,
			RequestsPerTwoMinutes: cfg.Riot.RequestsPerTwoMinutes,
			Timeout:               time.Duration(cfg.Riot.TimeoutSeconds) * time.Second,
		}, logger.Logger)

		deps := jobs.Deps{
			Players: store.NewPlayers(database),
			Riot:    client,
			Logger:  logger.Logger,
		}
		opts := jobs.SchedulerOptions{
			ExecutionRetention: time.Duration(cfg.Jobs.ExecutionRetentionDays) * 24 * time.Hour,
			CleanupInterval:    time.Duration(cfg.Jobs.CleanupIntervalHours) * time.Hour,
		}
		scheduler := jobs.NewScheduler(database, jobs.BuiltinRegistry(), deps, opts, logger.Logger)
		if err := scheduler.Start(); err != nil {
			return errors.Wrap(err, "failed to start scheduler")
		}

		fmt.Println("riftwatch daemon started")
		fmt.Printf("  Database: %s\n", cfg.Database.Path)
		fmt.Printf("  Profile:  %s\n", cfg.Jobs.Profile)
		fmt.Printf("  Region:   %s\n", cfg.Riot.Region)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		logger.Logger.Infow("shutting down", "signal", sig.String())
		scheduler.Shutdown(true)
		return nil
	},
}

// resolveAPIKey prefers the key stored in system_settings over the config
// file so rotation never needs a redeploy
func resolveAPIKey(cfg *config.Config, store *settings.Store) (string, error) {
	key, err := store.Get(settings.KeyRiotAPIKey)
	if err == nil && key != "" {
		return key, nil
	}
	if err != nil && !errors.IsNotFoundError(err) {
		return "", errors.Wrap(err, "failed to read riot api key")
	}
	if cfg.Riot.APIKey == "" {
		return "", errors.New("no riot api key configured; set riot.api_key or run 'riftwatch settings set riot_api_key <key>'")
	}
	return cfg.Riot.APIKey, nil
}

func init() {
	DaemonCmd.Flags().Bool("no-seed", false, "Skip seeding job configurations at startup")
}
