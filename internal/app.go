// Package internal provides the App struct that wires all components of
// Work Pulse together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/valter-silva-au/workpulse/internal/cli"
	"github.com/valter-silva-au/workpulse/internal/core"
	"github.com/valter-silva-au/workpulse/internal/observability"
	"github.com/valter-silva-au/workpulse/internal/storage"
	"github.com/valter-silva-au/workpulse/pkg/models"
)

// EventLogFile is the event log location relative to the base path.
const EventLogFile = ".pulse_events.jsonl"

// App holds all service dependencies for Work Pulse.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.PulseConfig
	Logger    zerolog.Logger

	// Core services
	Reporter    *core.Reporter
	ProjectInit core.ProjectInitializer

	// Storage layer
	Records storage.RecordStore

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.RunMetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components of Work Pulse. basePath is the
// directory holding .pulseconfig.yaml, the record file and the event log.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}
	app.Logger = newLogger()

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Storage layer ---
	app.Records = storage.NewRecordStore(basePath, cfg.RecordsFile)

	// --- Core services ---
	app.Reporter = core.NewReporter(cfg.Report, app.Logger)
	app.ProjectInit = core.NewProjectInitializer()

	// --- Observability ---
	app.AlertEngine = observability.NewAlertEngine(cfg.Alerts)
	app.EventLog, err = observability.NewJSONLEventLog(filepath.Join(basePath, EventLogFile))
	if err != nil {
		// Non-fatal: reports still run, but no run metrics are kept.
		app.Logger.Warn().Err(err).Msg("event log disabled")
		app.EventLog = nil
	}
	if app.EventLog != nil {
		app.MetricsCalc = observability.NewRunMetricsCalculator(app.EventLog)
	}
	if cfg.Notifications.Enabled {
		var webhook, outbox observability.Notifier
		if cfg.Notifications.WebhookURL != "" {
			webhook = observability.NewWebhookNotifier(cfg.Notifications.WebhookURL)
		}
		if dir := cfg.Notifications.OutboxDir; dir != "" {
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(basePath, dir)
			}
			outbox, err = observability.NewOutboxNotifier(dir)
			if err != nil {
				return nil, fmt.Errorf("configuring notifications: %w", err)
			}
		}
		app.Notifier = observability.NewMultiNotifier(webhook, outbox)
	}

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = app.Config
	cli.Logger = app.Logger
	cli.ConfigMgr = app.ConfigMgr
	cli.Reporter = app.Reporter
	cli.Records = app.Records
	cli.ProjectInit = app.ProjectInit

	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// newLogger builds the diagnostics logger. It writes human-readable lines to
// stderr at warn level unless PULSE_LOG_LEVEL says otherwise.
func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if s := os.Getenv("PULSE_LOG_LEVEL"); s != "" {
		if l, err := zerolog.ParseLevel(s); err == nil {
			level = l
		}
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// ResolveBasePath determines the Work Pulse base directory. It checks the
// PULSE_HOME env var, then walks up from the current directory looking for
// .pulseconfig.yaml, and falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("PULSE_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	cwd := dir
	for {
		for _, name := range []string{".pulseconfig.yaml", ".pulseconfig"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}
