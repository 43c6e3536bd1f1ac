package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/riftwatch/riftwatch/config"
	"github.com/riftwatch/riftwatch/errors"
	"github.com/riftwatch/riftwatch/settings"
)

// SettingsCmd groups runtime setting commands
var SettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage runtime settings stored in the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a runtime setting",
	Long: `Set a runtime setting.

The riot_api_key setting is stored as sensitive and masked in listings.
It takes precedence over riot.api_key from the config file.`,
	Args: cobra.ExactArgs(2),
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

		key, value := args[0], args[1]
		sensitive := key == settings.KeyRiotAPIKey
		if err := settings.NewStore(database).Set(key, value, sensitive); err != nil {
			return err
		}
		fmt.Printf("Set %s\n", key)
		return nil
	},
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runtime settings (sensitive values masked)",
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

		all, err := settings.NewStore(database).List()
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Println("No settings stored.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tVALUE\tUPDATED")
		for _, s := range all {
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.Key, s.Value, s.UpdatedAt)
		}
		return w.Flush()
	},
}

func init() {
	SettingsCmd.AddCommand(settingsSetCmd)
	SettingsCmd.AddCommand(settingsListCmd)
}
