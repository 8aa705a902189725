package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/workpulse/internal/core"
	"github.com/valter-silva-au/workpulse/internal/observability"
	"github.com/valter-silva-au/workpulse/internal/storage"
)

// reportOptions are the flags shared by every command that builds a report.
type reportOptions struct {
	records string
	now     string
	period  string
}

func (o *reportOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.records, "records", "", "Record file to read (defaults to records_file from .pulseconfig)")
	cmd.Flags().StringVar(&o.now, "now", "", "Reference time for due-date flags (RFC3339 or YYYY-MM-DD, defaults to now)")
	cmd.Flags().StringVar(&o.period, "period", "", "Trend bucket width: day, week or month (defaults to report.trend_period)")
}

// reportRun is one report generation, tagged with a run ID in the event log.
type reportRun struct {
	report   *core.Report
	recorder *observability.RunRecorder
	source   string
}

// generateReport loads records, builds a report and records the run.
func generateReport(opts reportOptions) (*reportRun, error) {
	if Reporter == nil {
		return nil, fmt.Errorf("reporter not initialized")
	}

	store := Records
	if opts.records != "" {
		store = storage.NewRecordStore(BasePath, opts.records)
	}
	if store == nil {
		return nil, fmt.Errorf("record store not initialized")
	}

	now, err := parseNow(opts.now)
	if err != nil {
		return nil, fmt.Errorf("parsing --now: %w", err)
	}

	reporter := Reporter
	if opts.period != "" {
		period, err := core.ParsePeriod(strings.ToLower(opts.period))
		if err != nil {
			return nil, fmt.Errorf("parsing --period: %w", err)
		}
		cfg := Reporter.Config()
		cfg.TrendPeriod = string(period)
		reporter = core.NewReporter(cfg, Logger)
	}

	set, err := store.Load()
	if err != nil {
		return nil, err
	}
	rep, err := reporter.Generate(core.InputFromRecords(set), now)
	if err != nil {
		return nil, fmt.Errorf("generating report from %s: %w", store.Path(), err)
	}

	run := &reportRun{
		report:   rep,
		recorder: observability.NewRunRecorder(EventLog, uuid.NewString()),
		source:   store.Path(),
	}
	if err := run.recorder.RecordReport(rep, run.source); err != nil {
		Logger.Warn().Err(err).Str("run_id", run.recorder.RunID()).Msg("event log write failed")
	}
	return run, nil
}

// parseNow parses a reference time, defaulting to the current time.
func parseNow(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Now().UTC(), nil
	}
	t, err := cast.ToTimeE(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", s)
	}
	return t.UTC(), nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting JSON: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

var (
	reportOpts    reportOptions
	reportSection string
	reportJSON    bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a report from the record file",
	Long: `Generate a report over the current record snapshot.

The report covers status, priority, assignee and project breakdowns,
overdue and due-soon items, the created/completed trend, timeline layouts
for work items and projects, resource utilization, and estimate variance.
Records that cannot be used are skipped or coerced and listed as warnings.

Use --section to show a single part of the report:
  ` + strings.Join(core.ReportSections(), ", "),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := generateReport(reportOpts)
		if err != nil {
			return err
		}

		if reportJSON {
			if reportSection == "" {
				return writeJSON(cmd, run.report)
			}
			v, err := run.report.Section(reportSection)
			if err != nil {
				return err
			}
			return writeJSON(cmd, v)
		}

		out, err := renderReport(run.report, reportSection)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render(" Work Pulse "))
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	reportOpts.bind(reportCmd)
	reportCmd.Flags().StringVar(&reportSection, "section", "", "Show a single report section")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Output the report as JSON")
	rootCmd.AddCommand(reportCmd)
}
