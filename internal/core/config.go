// Package core contains the reporting logic for workpulse: record
// normalization, urgency classification, aggregation, timeline layout,
// utilization and variance analysis, and configuration loading.
package core

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/workpulse/pkg/models"
)

// ConfigurationManager defines the interface for loading and validating
// configuration from the .pulseconfig file.
type ConfigurationManager interface {
	LoadConfig() (*models.PulseConfig, error)
	ValidateConfig(cfg *models.PulseConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	// basePath is the directory where .pulseconfig resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultConfig returns a PulseConfig populated with sensible defaults.
func DefaultConfig() *models.PulseConfig {
	return &models.PulseConfig{
		Report: models.DefaultReportConfig(),
		Alerts: models.AlertConfig{
			MaxOverdue:         0,
			MinAccuracyRatePct: 50,
			MaxBlocked:         3,
		},
		RecordsFile: "records.yaml",
	}
}

// LoadConfig reads the .pulseconfig file from the base path using Viper.
// If the file does not exist, defaults are returned.
func (cm *viperConfigManager) LoadConfig() (*models.PulseConfig, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName(".pulseconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("report.due_soon_threshold_days", cfg.Report.DueSoonThresholdDays)
	v.SetDefault("report.overload_threshold_pct", cfg.Report.OverloadThresholdPct)
	v.SetDefault("report.busy_threshold_pct", cfg.Report.BusyThresholdPct)
	v.SetDefault("report.variance_tolerance_pct", cfg.Report.VarianceTolerancePct)
	v.SetDefault("report.utilization_cap_pct", cfg.Report.UtilizationCapPct)
	v.SetDefault("report.trend_period", cfg.Report.TrendPeriod)
	v.SetDefault("report.derive_allocation", cfg.Report.DeriveAllocation)
	v.SetDefault("alerts.max_overdue", cfg.Alerts.MaxOverdue)
	v.SetDefault("alerts.min_accuracy_rate_pct", cfg.Alerts.MinAccuracyRatePct)
	v.SetDefault("alerts.max_blocked", cfg.Alerts.MaxBlocked)
	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.webhook_url", "")
	v.SetDefault("notifications.outbox_dir", "")
	v.SetDefault("records_file", cfg.RecordsFile)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .pulseconfig: %w", err)
	}

	cfg.Report = models.ReportConfig{
		DueSoonThresholdDays: v.GetInt("report.due_soon_threshold_days"),
		OverloadThresholdPct: v.GetFloat64("report.overload_threshold_pct"),
		BusyThresholdPct:     v.GetFloat64("report.busy_threshold_pct"),
		VarianceTolerancePct: v.GetFloat64("report.variance_tolerance_pct"),
		UtilizationCapPct:    v.GetFloat64("report.utilization_cap_pct"),
		TrendPeriod:          strings.ToLower(v.GetString("report.trend_period")),
		DeriveAllocation:     v.GetBool("report.derive_allocation"),
	}
	cfg.Alerts = models.AlertConfig{
		MaxOverdue:         v.GetInt("alerts.max_overdue"),
		MinAccuracyRatePct: v.GetFloat64("alerts.min_accuracy_rate_pct"),
		MaxBlocked:         v.GetInt("alerts.max_blocked"),
	}
	cfg.Notifications = models.NotificationConfig{
		Enabled:    v.GetBool("notifications.enabled"),
		WebhookURL: v.GetString("notifications.webhook_url"),
		OutboxDir:  v.GetString("notifications.outbox_dir"),
	}
	cfg.RecordsFile = v.GetString("records_file")

	return cfg, nil
}

// ValidateConfig checks the configuration for invalid values and returns a
// clear error message listing every problem found.
func (cm *viperConfigManager) ValidateConfig(cfg *models.PulseConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string
	errs = append(errs, validateReportConfig(cfg.Report)...)

	if cfg.Alerts.MaxOverdue < 0 {
		errs = append(errs, fmt.Sprintf("alerts.max_overdue must be non-negative, got %d", cfg.Alerts.MaxOverdue))
	}
	if cfg.Alerts.MaxBlocked < 0 {
		errs = append(errs, fmt.Sprintf("alerts.max_blocked must be non-negative, got %d", cfg.Alerts.MaxBlocked))
	}
	if cfg.Alerts.MinAccuracyRatePct < 0 || cfg.Alerts.MinAccuracyRatePct > 100 {
		errs = append(errs, fmt.Sprintf(
			"alerts.min_accuracy_rate_pct %g is invalid, must be between 0 and 100",
			cfg.Alerts.MinAccuracyRatePct,
		))
	}
	if cfg.Notifications.Enabled && cfg.Notifications.WebhookURL == "" && cfg.Notifications.OutboxDir == "" {
		errs = append(errs, "notifications.webhook_url or notifications.outbox_dir must be set when notifications are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateReportConfig(rc models.ReportConfig) []string {
	var errs []string

	if rc.DueSoonThresholdDays < 0 {
		errs = append(errs, fmt.Sprintf("report.due_soon_threshold_days must be non-negative, got %d", rc.DueSoonThresholdDays))
	}
	if rc.BusyThresholdPct < 0 {
		errs = append(errs, fmt.Sprintf("report.busy_threshold_pct must be non-negative, got %g", rc.BusyThresholdPct))
	}
	if rc.OverloadThresholdPct < rc.BusyThresholdPct {
		errs = append(errs, fmt.Sprintf(
			"report.overload_threshold_pct %g must not be below report.busy_threshold_pct %g",
			rc.OverloadThresholdPct, rc.BusyThresholdPct,
		))
	}
	if rc.VarianceTolerancePct < 0 {
		errs = append(errs, fmt.Sprintf("report.variance_tolerance_pct must be non-negative, got %g", rc.VarianceTolerancePct))
	}
	if rc.UtilizationCapPct <= 0 {
		errs = append(errs, fmt.Sprintf("report.utilization_cap_pct must be positive, got %g", rc.UtilizationCapPct))
	}
	if _, err := ParsePeriod(rc.TrendPeriod); err != nil {
		errs = append(errs, fmt.Sprintf("report.trend_period: %s", err))
	}

	return errs
}
