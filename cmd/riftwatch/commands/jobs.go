package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/riftwatch/riftwatch/config"
	"github.com/riftwatch/riftwatch/errors"
	"github.com/riftwatch/riftwatch/jobs"
)

// JobsCmd groups job inspection commands
var JobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect job configurations and execution history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured jobs",
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

		configs, err := jobs.NewConfigStore(database).ListConfigs()
		if err != nil {
			return err
		}
		if len(configs) == 0 {
			fmt.Println("No job configurations. Run 'riftwatch seed' first.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTYPE\tSCHEDULE\tACTIVE")
		for _, c := range configs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", c.Name, c.Type, c.Schedule, c.IsActive)
		}
		return w.Flush()
	},
}

var jobsHistoryCmd = &cobra.Command{
	Use:   "history [job-name]",
	Short: "Show recent job executions",
	Args:  cobra.MaximumNArgs(1),
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

		limit, _ := cmd.Flags().GetInt("limit")
		status, _ := cmd.Flags().GetString("status")
		executions := jobs.NewExecutionStore(database)

		var execs []*jobs.Execution
		if len(args) == 1 {
			jobCfg, err := jobs.NewConfigStore(database).GetByName(args[0])
			if err != nil {
				return err
			}
			execs, _, err = executions.ListExecutions(jobCfg.ID, jobs.ExecutionStatus(status), limit, 0)
			if err != nil {
				return err
			}
		} else {
			execs, err = executions.ListRecent(limit)
			if err != nil {
				return err
			}
		}
		if len(execs) == 0 {
			fmt.Println("No executions recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tSTATUS\tSTARTED\tDURATION\tCREATED\tUPDATED\tAPI CALLS\tERROR")
		for _, e := range execs {
			started := "-"
			if e.StartedAt != nil {
				started = e.StartedAt.Format("2006-01-02 15:04:05")
			}
			errMsg := ""
			if e.ErrorMessage != nil {
				errMsg = *e.ErrorMessage
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				e.JobType, e.Status, started, e.Duration().Round(10*time.Millisecond),
				e.Metrics[jobs.MetricRecordsCreated],
				e.Metrics[jobs.MetricRecordsUpdated],
				e.Metrics[jobs.MetricAPIRequestsMade],
				errMsg)
		}
		return w.Flush()
	},
}

func init() {
	jobsHistoryCmd.Flags().Int("limit", 20, "Maximum executions to show")
	jobsHistoryCmd.Flags().String("status", "", "Filter by status (pending, running, success, failed)")
	JobsCmd.AddCommand(jobsListCmd)
	JobsCmd.AddCommand(jobsHistoryCmd)
}
