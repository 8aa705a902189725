package observability

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// RunMetrics holds counters derived from the event log.
type RunMetrics struct {
	Runs              int            `json:"runs"`
	ReportsGenerated  int            `json:"reports_generated"`
	RecordsSkipped    int            `json:"records_skipped"`
	FieldsCoerced     int            `json:"fields_coerced"`
	AlertsRaised      int            `json:"alerts_raised"`
	AlertsByCondition map[string]int `json:"alerts_by_condition"`
	ItemsReported     int            `json:"items_reported"`
	EventCount        int            `json:"event_count"`
	OldestEvent       *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent       *time.Time     `json:"newest_event,omitempty"`
}

// RunMetricsCalculator derives run metrics from the event log.
type RunMetricsCalculator interface {
	Calculate(since time.Time) (*RunMetrics, error)
}

type runMetricsCalculator struct {
	eventLog EventLog
}

// NewRunMetricsCalculator creates a RunMetricsCalculator that reads from the given EventLog.
func NewRunMetricsCalculator(eventLog EventLog) RunMetricsCalculator {
	return &runMetricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them.
// Event data round-trips through JSON, so numeric fields are coerced.
func (mc *runMetricsCalculator) Calculate(since time.Time) (*RunMetrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &RunMetrics{
		AlertsByCondition: make(map[string]int),
		EventCount:        len(events),
	}
	runs := make(map[string]struct{})

	for _, event := range events {
		t := event.Time
		if m.OldestEvent == nil || t.Before(*m.OldestEvent) {
			m.OldestEvent = &t
		}
		if m.NewestEvent == nil || t.After(*m.NewestEvent) {
			nt := t
			m.NewestEvent = &nt
		}
		if event.RunID != "" {
			runs[event.RunID] = struct{}{}
		}

		switch event.Type {
		case EventReportGenerated:
			m.ReportsGenerated++
			m.ItemsReported += cast.ToInt(event.Data["items"])
		case EventRecordSkipped:
			m.RecordsSkipped++
		case EventRecordCoerced:
			m.FieldsCoerced++
		case EventAlertsEvaluated:
			m.AlertsRaised += cast.ToInt(event.Data["count"])
			for cond, n := range cast.ToStringMap(event.Data["by_condition"]) {
				m.AlertsByCondition[cond] += cast.ToInt(n)
			}
		}
	}
	m.Runs = len(runs)

	return m, nil
}

// ParseSince parses a look-back window like "7d", "30d" or "24h" into the
// corresponding time before now. An empty window means seven days.
func ParseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}

	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return time.Time{}, fmt.Errorf("invalid duration %q (use e.g. 7d, 30d, 24h)", s)
	}
	switch s[len(s)-1] {
	case 'd':
		return now.AddDate(0, 0, -n), nil
	case 'h':
		return now.Add(-time.Duration(n) * time.Hour), nil
	}
	return time.Time{}, fmt.Errorf("unsupported duration suffix in %q (use d or h)", s)
}
