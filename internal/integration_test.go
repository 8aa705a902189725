package internal

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/valter-silva-au/workpulse/internal/core"
	"github.com/valter-silva-au/workpulse/internal/observability"
	"github.com/valter-silva-au/workpulse/internal/storage"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// newTestApp creates a fully wired App in a temporary directory.
// The event log is closed automatically when the test finishes.
func newTestApp(t *testing.T) *App {
	t.Helper()
	return newTestAppWithConfig(t, "")
}

// newTestAppWithConfig creates a fully wired App with a custom .pulseconfig.yaml.
// The event log is closed automatically when the test finishes.
func newTestAppWithConfig(t *testing.T, configYAML string) *App {
	t.Helper()
	dir := t.TempDir()
	if configYAML != "" {
		if err := os.WriteFile(filepath.Join(dir, ".pulseconfig.yaml"), []byte(configYAML), 0o644); err != nil {
			t.Fatalf("writing .pulseconfig.yaml: %v", err)
		}
	}
	app, err := NewApp(dir)
	if err != nil {
		t.Fatalf("creating test app: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

var integrationNow = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

// =========================================================================
// 1. Init -> Report -> Alerts -> Metrics
// =========================================================================

func TestIntegration_InitReportAlertsMetrics(t *testing.T) {
	app := newTestApp(t)

	if _, err := app.ProjectInit.Init(core.InitConfig{BasePath: app.BasePath, Sample: true}); err != nil {
		t.Fatalf("init: %v", err)
	}

	set, err := app.Records.Load()
	if err != nil {
		t.Fatalf("loading records: %v", err)
	}
	rep, err := app.Reporter.Generate(core.InputFromRecords(set), integrationNow)
	if err != nil {
		t.Fatalf("generating report: %v", err)
	}
	if rep.ItemCount != 3 {
		t.Fatalf("ItemCount = %d, want 3", rep.ItemCount)
	}

	rec := observability.NewRunRecorder(app.EventLog, "run-1")
	if err := rec.RecordReport(rep, app.Records.Path()); err != nil {
		t.Fatalf("recording report: %v", err)
	}

	alerts := app.AlertEngine.Evaluate(rep)
	if err := rec.RecordAlerts(alerts); err != nil {
		t.Fatalf("recording alerts: %v", err)
	}

	// Sample data: sam is at 115% of capacity.
	found := false
	for _, a := range alerts {
		if a.ID == "overloaded-sam" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected overloaded-sam alert, got %+v", alerts)
	}

	m, err := app.MetricsCalc.Calculate(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}
	if m.Runs != 1 || m.ReportsGenerated != 1 {
		t.Errorf("Runs/ReportsGenerated = %d/%d, want 1/1", m.Runs, m.ReportsGenerated)
	}
	if m.AlertsRaised != len(alerts) {
		t.Errorf("AlertsRaised = %d, want %d", m.AlertsRaised, len(alerts))
	}
}

// =========================================================================
// 2. Messy records: skipped and coerced records surface as warnings
// =========================================================================

func TestIntegration_MessyRecords(t *testing.T) {
	app := newTestApp(t)

	messy := `work_items:
  - id: A
    title: Good item
    status: Done
    priority: HIGH
    due_date: 2025-01-10
    completed_at: 2025-01-09
    estimated_hours: "8"
    actual_hours: -2
  - id: A
    title: Duplicate id
    status: todo
  - title: No id
    status: todo
  - id: B
    title: Odd status
    status: waiting
    due_date: not a date
  - just a string
resources:
  - id: r1
    name: R1
    capacity_hours: 0
    allocated_hours: 5
projects: {}
`
	if err := os.WriteFile(app.Records.Path(), []byte(messy), 0o600); err != nil {
		t.Fatal(err)
	}

	set, err := app.Records.Load()
	if err != nil {
		t.Fatalf("loading records: %v", err)
	}

	// projects holds a map, which the reporter rejects as a type mismatch.
	_, err = app.Reporter.Generate(core.InputFromRecords(set), integrationNow)
	var mismatch *core.TypeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected type mismatch for projects map, got %v", err)
	}

	set.Projects = []any{}
	rep, err := app.Reporter.Generate(core.InputFromRecords(set), integrationNow)
	if err != nil {
		t.Fatalf("generating report: %v", err)
	}
	if rep.ItemCount != 2 {
		t.Errorf("ItemCount = %d, want 2", rep.ItemCount)
	}

	skipped := 0
	for _, w := range rep.Warnings {
		if w.Skipped {
			skipped++
		}
	}
	if skipped != 3 {
		t.Errorf("skipped = %d, want 3 (duplicate, missing id, non-map)", skipped)
	}
	if len(rep.Warnings) <= skipped {
		t.Error("expected coercion warnings as well")
	}
	if g, ok := rep.ByStatus.Group("other"); !ok || g.Count != 1 {
		t.Errorf("expected one item under other status, got %+v", rep.ByStatus.Groups)
	}
	if r := rep.Utilization.Resources[0]; r.UtilizationPct != 0 {
		t.Errorf("zero-capacity utilization = %v, want 0", r.UtilizationPct)
	}
}

// =========================================================================
// 3. Report JSON is stable across runs with the same input and time
// =========================================================================

func TestIntegration_ReportJSONDeterministic(t *testing.T) {
	app := newTestApp(t)
	if _, err := app.ProjectInit.Init(core.InitConfig{BasePath: app.BasePath, Sample: true}); err != nil {
		t.Fatalf("init: %v", err)
	}

	render := func() string {
		set, err := app.Records.Load()
		if err != nil {
			t.Fatalf("loading records: %v", err)
		}
		rep, err := app.Reporter.Generate(core.InputFromRecords(set), integrationNow)
		if err != nil {
			t.Fatalf("generating report: %v", err)
		}
		data, err := json.Marshal(rep)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return string(data)
	}

	if a, b := render(), render(); a != b {
		t.Error("report JSON differs between identical runs")
	}
}

// =========================================================================
// 4. Record store round trip feeds the reporter
// =========================================================================

func TestIntegration_RecordStoreSaveThenReport(t *testing.T) {
	app := newTestApp(t)

	var items []any
	if err := yaml.Unmarshal([]byte(`
- {id: X-1, title: One, status: in_progress, start_date: 2025-01-01, due_date: 2025-01-20}
- {id: X-2, title: Two, status: todo}
`), &items); err != nil {
		t.Fatal(err)
	}

	store := storage.NewRecordStore(app.BasePath, "out/records.yaml")
	if err := store.Save(&storage.RecordSet{WorkItems: items, Resources: []any{}, Projects: []any{}}); err != nil {
		t.Fatalf("saving records: %v", err)
	}
	set, err := store.Load()
	if err != nil {
		t.Fatalf("loading records: %v", err)
	}

	rep, err := app.Reporter.Generate(core.InputFromRecords(set), integrationNow)
	if err != nil {
		t.Fatalf("generating report: %v", err)
	}
	if len(rep.Timeline.Bars) != 1 {
		t.Errorf("expected 1 timeline bar, got %d", len(rep.Timeline.Bars))
	}
	if len(rep.Timeline.Unscheduled) != 1 || rep.Timeline.Unscheduled[0] != "X-2" {
		t.Errorf("unscheduled = %v, want [X-2]", rep.Timeline.Unscheduled)
	}
}
