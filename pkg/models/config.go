package models

// ReportConfig holds the thresholds used by the reporting computations.
type ReportConfig struct {
	DueSoonThresholdDays int     `yaml:"due_soon_threshold_days" mapstructure:"due_soon_threshold_days"`
	OverloadThresholdPct float64 `yaml:"overload_threshold_pct" mapstructure:"overload_threshold_pct"`
	BusyThresholdPct     float64 `yaml:"busy_threshold_pct" mapstructure:"busy_threshold_pct"`
	VarianceTolerancePct float64 `yaml:"variance_tolerance_pct" mapstructure:"variance_tolerance_pct"`
	UtilizationCapPct    float64 `yaml:"utilization_cap_pct" mapstructure:"utilization_cap_pct"`
	TrendPeriod          string  `yaml:"trend_period" mapstructure:"trend_period"`
	DeriveAllocation     bool    `yaml:"derive_allocation" mapstructure:"derive_allocation"`
}

// DefaultReportConfig returns the thresholds most commonly used by dashboards.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		DueSoonThresholdDays: 3,
		OverloadThresholdPct: 100,
		BusyThresholdPct:     80,
		VarianceTolerancePct: 10,
		UtilizationCapPct:    150,
		TrendPeriod:          "week",
		DeriveAllocation:     false,
	}
}

// AlertConfig configures when report alerts should fire.
type AlertConfig struct {
	MaxOverdue         int     `yaml:"max_overdue" mapstructure:"max_overdue"`
	MinAccuracyRatePct float64 `yaml:"min_accuracy_rate_pct" mapstructure:"min_accuracy_rate_pct"`
	MaxBlocked         int     `yaml:"max_blocked" mapstructure:"max_blocked"`
}

// NotificationConfig holds alert notification settings. Alerts go to the
// webhook, the outbox directory, or both.
type NotificationConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
	OutboxDir  string `yaml:"outbox_dir" mapstructure:"outbox_dir"`
}

// PulseConfig holds all settings read from .pulseconfig via Viper.
type PulseConfig struct {
	Report        ReportConfig       `yaml:"report" mapstructure:"report"`
	Alerts        AlertConfig        `yaml:"alerts" mapstructure:"alerts"`
	Notifications NotificationConfig `yaml:"notifications" mapstructure:"notifications"`
	RecordsFile   string             `yaml:"records_file" mapstructure:"records_file"`
}
