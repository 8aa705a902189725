package cli

import (
	"github.com/rs/zerolog"
	"github.com/valter-silva-au/workpulse/internal/core"
	"github.com/valter-silva-au/workpulse/internal/observability"
	"github.com/valter-silva-au/workpulse/internal/storage"
	"github.com/valter-silva-au/workpulse/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath string
	Config   *models.PulseConfig
	Logger   = zerolog.Nop()

	ConfigMgr core.ConfigurationManager
	Reporter  *core.Reporter
	Records   storage.RecordStore
)

// Observability service instances. EventLog, MetricsCalc and Notifier may be
// nil when the event log cannot be opened or notifications are disabled.
var (
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.RunMetricsCalculator
	Notifier    observability.Notifier
)
