package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/valter-silva-au/workpulse/internal/core"
	"github.com/valter-silva-au/workpulse/internal/observability"
	"github.com/valter-silva-au/workpulse/internal/storage"
	"github.com/valter-silva-au/workpulse/pkg/models"
)

// testNow is the reference time passed via --now in command tests.
const testNow = "2025-01-15T12:00:00Z"

const testRecords = `work_items:
  - id: T-1
    title: Design API
    status: done
    priority: high
    assignee: alice
    project: P-1
    created_at: 2025-01-01
    start_date: 2025-01-02
    due_date: 2025-01-10
    completed_at: 2025-01-09
    estimated_hours: 10
    actual_hours: 10
  - id: T-2
    title: Build API
    status: in_progress
    priority: urgent
    assignee: alice
    project: P-1
    created_at: 2025-01-03
    start_date: 2025-01-06
    due_date: 2025-01-12
    estimated_hours: 20
    actual_hours: 30
  - id: T-3
    title: Write docs
    status: blocked
    assignee: bob
    due_date: 2025-01-16
  - id: T-4
    status: todo
resources:
  - id: alice
    name: Alice
    capacity_hours: 40
    allocated_hours: 50
  - id: bob
    name: Bob
    capacity_hours: 40
    allocated_hours: 10
projects:
  - id: P-1
    name: API
    start_date: 2025-01-01
    end_date: 2025-01-31
`

// setupTestEnv wires the package-level services against a temp workspace
// holding testRecords, restoring the previous values on cleanup.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "records.yaml"), []byte(testRecords), 0o600); err != nil {
		t.Fatalf("writing records: %v", err)
	}

	eventLog, err := observability.NewJSONLEventLog(filepath.Join(dir, ".pulse_events.jsonl"))
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}

	origBase, origCfg, origMgr := BasePath, Config, ConfigMgr
	origReporter, origRecords := Reporter, Records
	origLog, origEngine, origCalc, origNotifier := EventLog, AlertEngine, MetricsCalc, Notifier
	t.Cleanup(func() {
		_ = eventLog.Close()
		BasePath, Config, ConfigMgr = origBase, origCfg, origMgr
		Reporter, Records = origReporter, origRecords
		EventLog, AlertEngine, MetricsCalc, Notifier = origLog, origEngine, origCalc, origNotifier
	})

	cfg := core.DefaultConfig()
	BasePath = dir
	Config = cfg
	ConfigMgr = core.NewConfigurationManager(dir)
	Reporter = core.NewReporter(cfg.Report, zerolog.Nop())
	Records = storage.NewRecordStore(dir, cfg.RecordsFile)
	EventLog = eventLog
	AlertEngine = observability.NewAlertEngine(cfg.Alerts)
	MetricsCalc = observability.NewRunMetricsCalculator(eventLog)
	Notifier = nil

	return dir
}

// resetFlags restores the flag-backed package variables to their defaults.
func resetFlags(t *testing.T) {
	t.Helper()
	reset := func() {
		reportOpts = reportOptions{}
		reportSection, reportJSON = "", false
		alertsOpts = reportOptions{}
		alertsJSON, alertsNotify = false, false
		metricsJSON, metricsSince = false, "7d"
		dashboardOpts = reportOptions{}
		initRecords, initSample = "", false
	}
	reset()
	t.Cleanup(reset)
}

// reportWith replaces the shared reporter with one using rc.
func reportWith(t *testing.T, rc models.ReportConfig) {
	t.Helper()
	Reporter = core.NewReporter(rc, zerolog.Nop())
}
