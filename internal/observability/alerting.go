package observability

import (
	"fmt"
	"sort"
	"time"

	"github.com/valter-silva-au/workpulse/internal/core"
	"github.com/valter-silva-au/workpulse/pkg/models"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

func (s AlertSeverity) rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 2
	}
	return 3
}

// Alert conditions.
const (
	ConditionItemOverdue        = "item_overdue"
	ConditionResourceOverloaded = "resource_overloaded"
	ConditionTooManyBlocked     = "too_many_blocked"
	ConditionLowAccuracy        = "low_estimate_accuracy"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertEngine evaluates alert conditions against a report.
type AlertEngine interface {
	Evaluate(rep *core.Report) []Alert
}

type alertEngine struct {
	thresholds models.AlertConfig
}

// NewAlertEngine creates a new AlertEngine with the given thresholds.
func NewAlertEngine(thresholds models.AlertConfig) AlertEngine {
	return &alertEngine{thresholds: thresholds}
}

// Evaluate checks every alert condition and returns the triggered alerts,
// most severe first. Alerts carry the report's generation time so the
// result is deterministic for a given report.
func (ae *alertEngine) Evaluate(rep *core.Report) []Alert {
	alerts := []Alert{}
	if rep == nil {
		return alerts
	}

	alerts = append(alerts, ae.checkOverdue(rep)...)
	alerts = append(alerts, ae.checkOverloaded(rep)...)
	alerts = append(alerts, ae.checkBlocked(rep)...)
	alerts = append(alerts, ae.checkAccuracy(rep)...)

	sort.SliceStable(alerts, func(i, j int) bool {
		if ri, rj := alerts[i].Severity.rank(), alerts[j].Severity.rank(); ri != rj {
			return ri < rj
		}
		return alerts[i].ID < alerts[j].ID
	})
	return alerts
}

// checkOverdue raises one alert per overdue item once the overdue count
// exceeds the threshold.
func (ae *alertEngine) checkOverdue(rep *core.Report) []Alert {
	if rep.Temporal.Summary.OverdueCount <= ae.thresholds.MaxOverdue {
		return nil
	}

	priorities := make(map[string]models.Priority, len(rep.Items))
	titles := make(map[string]string, len(rep.Items))
	for _, it := range rep.Items {
		priorities[it.ID] = it.Priority
		titles[it.ID] = it.Title
	}

	var alerts []Alert
	for _, f := range rep.Temporal.Items {
		if !f.Overdue {
			continue
		}
		sev := SeverityMedium
		if p := priorities[f.ItemID]; p == models.PriorityHigh || p == models.PriorityUrgent {
			sev = SeverityHigh
		}
		msg := fmt.Sprintf("%s %q is overdue", f.ItemID, titles[f.ItemID])
		if f.DaysUntilDue != nil && *f.DaysUntilDue < 0 {
			msg = fmt.Sprintf("%s %q is %d days overdue", f.ItemID, titles[f.ItemID], -*f.DaysUntilDue)
		}
		alerts = append(alerts, Alert{
			ID:          "overdue-" + f.ItemID,
			Condition:   ConditionItemOverdue,
			Severity:    sev,
			Message:     msg,
			TriggeredAt: rep.GeneratedAt,
		})
	}
	return alerts
}

func (ae *alertEngine) checkOverloaded(rep *core.Report) []Alert {
	var alerts []Alert
	for _, u := range rep.Utilization.Resources {
		if u.Band != core.BandOverloaded {
			continue
		}
		alerts = append(alerts, Alert{
			ID:          "overloaded-" + u.ResourceID,
			Condition:   ConditionResourceOverloaded,
			Severity:    SeverityHigh,
			Message:     fmt.Sprintf("%s is at %.0f%% utilization (%.1fh of %.1fh)", u.ResourceID, u.UtilizationPct, u.AllocatedHours, u.CapacityHours),
			TriggeredAt: rep.GeneratedAt,
		})
	}
	return alerts
}

func (ae *alertEngine) checkBlocked(rep *core.Report) []Alert {
	g, _ := rep.ByStatus.Group(string(models.StatusBlocked))
	if g.Count <= ae.thresholds.MaxBlocked {
		return nil
	}
	return []Alert{{
		ID:          "blocked-count",
		Condition:   ConditionTooManyBlocked,
		Severity:    SeverityMedium,
		Message:     fmt.Sprintf("%d items are blocked, exceeding the maximum of %d", g.Count, ae.thresholds.MaxBlocked),
		TriggeredAt: rep.GeneratedAt,
	}}
}

// checkAccuracy needs at least one analysed item to say anything.
func (ae *alertEngine) checkAccuracy(rep *core.Report) []Alert {
	s := rep.Variance.Summary
	if s.Total == 0 || s.AccuracyRate >= ae.thresholds.MinAccuracyRatePct {
		return nil
	}
	return []Alert{{
		ID:          "estimate-accuracy",
		Condition:   ConditionLowAccuracy,
		Severity:    SeverityLow,
		Message:     fmt.Sprintf("estimate accuracy is %.0f%% (%d of %d items), below %.0f%%", s.AccuracyRate, s.AccurateCount, s.Total, ae.thresholds.MinAccuracyRatePct),
		TriggeredAt: rep.GeneratedAt,
	}}
}
