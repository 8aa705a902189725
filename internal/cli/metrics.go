package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/workpulse/internal/observability"
)

var (
	metricsJSON  bool
	metricsSince string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display report run metrics",
	Long: `Display metrics derived from the event log: report runs, records skipped
or coerced during normalization, and alerts raised.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (event log may be unavailable)")
		}

		sinceTime, err := observability.ParseSince(metricsSince, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		if metricsJSON {
			return writeJSON(cmd, metrics)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Fprintf(out, "  %-24s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Fprintf(out, "  %-24s %d\n", "Runs:", metrics.Runs)
		fmt.Fprintf(out, "  %-24s %d\n", "Reports generated:", metrics.ReportsGenerated)
		fmt.Fprintf(out, "  %-24s %d\n", "Items reported:", metrics.ItemsReported)
		fmt.Fprintf(out, "  %-24s %d\n", "Records skipped:", metrics.RecordsSkipped)
		fmt.Fprintf(out, "  %-24s %d\n", "Fields coerced:", metrics.FieldsCoerced)
		fmt.Fprintf(out, "  %-24s %d\n", "Alerts raised:", metrics.AlertsRaised)

		if len(metrics.AlertsByCondition) > 0 {
			fmt.Fprintln(out, "\n  Alerts by condition:")
			conds := make([]string, 0, len(metrics.AlertsByCondition))
			for c := range metrics.AlertsByCondition {
				conds = append(conds, c)
			}
			sort.Strings(conds)
			for _, c := range conds {
				fmt.Fprintf(out, "    %-22s %d\n", c+":", metrics.AlertsByCondition[c])
			}
		}

		if metrics.OldestEvent != nil {
			fmt.Fprintf(out, "\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Fprintf(out, "  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(metricsCmd)
}
