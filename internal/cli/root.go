package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Work Pulse - project and task reporting",
	Long: `Work Pulse (pulse) turns a snapshot of work items, resources and projects
into dashboard-ready reports: status and priority breakdowns, overdue and
due-soon flags, completion trends, timeline layouts, resource utilization,
and estimate variance.

Records are read from a YAML file (records.yaml by default) and thresholds
from .pulseconfig.yaml in the base directory ($PULSE_HOME or the current
directory).`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pulse %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
