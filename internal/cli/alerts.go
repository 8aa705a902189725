package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/workpulse/internal/observability"
)

var (
	alertsOpts   reportOptions
	alertsJSON   bool
	alertsNotify bool
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show active alerts for the current records",
	Long: `Generate a report and evaluate alert conditions against it.

Alerts fire for overdue items, overloaded resources, too many blocked items,
and low estimate accuracy. Thresholds come from the alerts section of
.pulseconfig.yaml. With --notify, alerts are also sent to the configured
webhook and written to the outbox directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if AlertEngine == nil {
			return fmt.Errorf("alert engine not initialized")
		}
		if alertsNotify && Notifier == nil {
			return fmt.Errorf("notifications not configured (set notifications.enabled and notifications.webhook_url or notifications.outbox_dir)")
		}

		run, err := generateReport(alertsOpts)
		if err != nil {
			return err
		}

		alerts := AlertEngine.Evaluate(run.report)
		if err := run.recorder.RecordAlerts(alerts); err != nil {
			Logger.Warn().Err(err).Str("run_id", run.recorder.RunID()).Msg("event log write failed")
		}

		if alertsNotify {
			if err := Notifier.Notify(commandContext(cmd), alerts); err != nil {
				return fmt.Errorf("sending notifications: %w", err)
			}
		}

		if alertsJSON {
			return writeJSON(cmd, alertsPayload{Alerts: alerts, Count: len(alerts)})
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderAlerts(alerts))
		if alertsNotify && len(alerts) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "\nSent %d alert notification(s).\n", len(alerts))
		}
		return nil
	},
}

type alertsPayload struct {
	Alerts []observability.Alert `json:"alerts"`
	Count  int                   `json:"count"`
}

func init() {
	alertsOpts.bind(alertsCmd)
	alertsCmd.Flags().BoolVar(&alertsJSON, "json", false, "Output alerts as JSON")
	alertsCmd.Flags().BoolVar(&alertsNotify, "notify", false, "Send alerts to the configured webhook and outbox")
	rootCmd.AddCommand(alertsCmd)
}

// commandContext returns the command's context, or a background context when
// the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
