package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riftwatch/riftwatch/config"
	"github.com/riftwatch/riftwatch/errors"
	"github.com/riftwatch/riftwatch/jobs"
	"github.com/riftwatch/riftwatch/logger"
)

// SeedCmd installs or updates the job configurations for a profile
var SeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Install or update job configurations",
	Long: `Seed the job configuration table for a profile.

Seeding is idempotent: existing configurations are updated in place by
name, so switching profiles or re-running never duplicates jobs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}

		profile, _ := cmd.Flags().GetString("profile")
		if profile == "" {
			profile = cfg.Jobs.Profile
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := jobs.Seed(jobs.NewConfigStore(database), profile, logger.Logger); err != nil {
			return err
		}
		fmt.Printf("Seeded %q job configurations\n", profile)
		return nil
	},
}

func init() {
	SeedCmd.Flags().String("profile", "", "Seed profile (dev or prod, defaults to jobs.profile from config)")
}
