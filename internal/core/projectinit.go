package core

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/valter-silva-au/workpulse/internal/storage"
	"github.com/valter-silva-au/workpulse/pkg/models"
	"gopkg.in/yaml.v3"
)

// InitConfig holds the parameters for initializing a pulse workspace.
type InitConfig struct {
	BasePath    string
	RecordsFile string
	// Sample seeds the record file with a small example snapshot.
	Sample bool
}

// InitResult holds a summary of what was created vs. skipped.
type InitResult struct {
	Created []string
	Skipped []string
}

// ProjectInitializer defines the interface for initializing a workspace
// with a .pulseconfig.yaml and a record file.
type ProjectInitializer interface {
	Init(config InitConfig) (*InitResult, error)
}

type projectInitializer struct{}

// NewProjectInitializer creates a new ProjectInitializer.
func NewProjectInitializer() ProjectInitializer {
	return &projectInitializer{}
}

const pulseconfigTemplate = `# Work Pulse configuration.
records_file: {{ printf "%q" .RecordsFile }}

report:
  due_soon_threshold_days: {{ .Config.Report.DueSoonThresholdDays }}
  overload_threshold_pct: {{ .Config.Report.OverloadThresholdPct }}
  busy_threshold_pct: {{ .Config.Report.BusyThresholdPct }}
  variance_tolerance_pct: {{ .Config.Report.VarianceTolerancePct }}
  utilization_cap_pct: {{ .Config.Report.UtilizationCapPct }}
  trend_period: {{ .Config.Report.TrendPeriod }}
  derive_allocation: {{ .Config.Report.DeriveAllocation }}

alerts:
  max_overdue: {{ .Config.Alerts.MaxOverdue }}
  min_accuracy_rate_pct: {{ .Config.Alerts.MinAccuracyRatePct }}
  max_blocked: {{ .Config.Alerts.MaxBlocked }}

notifications:
  enabled: false
  webhook_url: ""
  outbox_dir: ""
`

const sampleRecords = `work_items:
  - id: WI-1
    title: Draft project plan
    status: done
    priority: high
    assignee: alex
    project_id: PRJ-1
    created_at: 2025-01-06
    start_date: 2025-01-06
    due_date: 2025-01-10
    completed_at: 2025-01-09
    estimated_hours: 8
    actual_hours: 7
  - id: WI-2
    title: Build reporting API
    status: in_progress
    priority: urgent
    assignee: sam
    project_id: PRJ-1
    created_at: 2025-01-08
    start_date: 2025-01-13
    due_date: 2025-01-24
    estimated_hours: 24
    actual_hours: 30
  - id: WI-3
    title: Review timeline layout
    status: blocked
    priority: medium
    assignee: alex
    project_id: PRJ-1
    created_at: 2025-01-10
    due_date: 2025-01-17
resources:
  - id: alex
    name: Alex
    capacity_hours: 40
    allocated_hours: 32
  - id: sam
    name: Sam
    capacity_hours: 40
    allocated_hours: 46
projects:
  - id: PRJ-1
    name: Reporting
    start_date: 2025-01-06
    end_date: 2025-01-31
`

// Init writes the workspace configuration and record file. It is safe to run
// on existing workspaces: files that already exist are skipped and not
// overwritten.
func (pi *projectInitializer) Init(config InitConfig) (*InitResult, error) {
	result := &InitResult{}

	defaults := DefaultConfig()
	if config.RecordsFile == "" {
		config.RecordsFile = defaults.RecordsFile
	}

	created, err := ensureDir(config.BasePath)
	if err != nil {
		return nil, fmt.Errorf("initializing workspace: creating directory %s: %w", config.BasePath, err)
	}
	if created {
		result.Created = append(result.Created, config.BasePath)
	}

	configPath := filepath.Join(config.BasePath, ".pulseconfig.yaml")
	if err := pi.writeFileIfNotExists(configPath, func() ([]byte, error) {
		return renderTemplate("pulseconfig", pulseconfigTemplate, struct {
			RecordsFile string
			Config      *models.PulseConfig
		}{config.RecordsFile, defaults})
	}, result); err != nil {
		return nil, err
	}

	store := storage.NewRecordStore(config.BasePath, config.RecordsFile)
	if err := pi.seedRecords(store, config.Sample, result); err != nil {
		return nil, err
	}

	return result, nil
}

// seedRecords writes an empty or sample record set through the record store
// unless the record file already exists.
func (pi *projectInitializer) seedRecords(store storage.RecordStore, sample bool, result *InitResult) error {
	path := store.Path()
	if _, err := os.Stat(path); err == nil {
		result.Skipped = append(result.Skipped, path)
		return nil
	}

	set := &storage.RecordSet{WorkItems: []any{}, Resources: []any{}, Projects: []any{}}
	if sample {
		if err := yaml.Unmarshal([]byte(sampleRecords), set); err != nil {
			return fmt.Errorf("initializing workspace: parsing sample records: %w", err)
		}
	}
	if err := store.Save(set); err != nil {
		return fmt.Errorf("initializing workspace: writing %s: %w", path, err)
	}
	result.Created = append(result.Created, path)
	return nil
}

// ensureDir creates a directory if it does not exist. Returns true if created.
func ensureDir(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return false, err
	}
	return true, nil
}

// writeFileIfNotExists writes content from contentFn if the file does not exist.
// It records created/skipped in the result.
func (pi *projectInitializer) writeFileIfNotExists(path string, contentFn func() ([]byte, error), result *InitResult) error {
	if _, err := os.Stat(path); err == nil {
		result.Skipped = append(result.Skipped, path)
		return nil
	}
	content, err := contentFn()
	if err != nil {
		return fmt.Errorf("initializing workspace: generating content for %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("initializing workspace: writing %s: %w", path, err)
	}
	result.Created = append(result.Created, path)
	return nil
}

// renderTemplate renders tmplContent with text/template using the given data.
func renderTemplate(name, tmplContent string, data any) ([]byte, error) {
	tmpl, err := template.New(name).Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
