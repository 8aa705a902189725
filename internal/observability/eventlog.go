package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/valter-silva-au/workpulse/internal/core"
)

// Event types written by report runs.
const (
	EventReportGenerated = "report.generated"
	EventRecordSkipped   = "record.skipped"
	EventRecordCoerced   = "record.coerced"
	EventAlertsEvaluated = "alerts.evaluated"
)

// Event represents a single observable event in the system.
type Event struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"` // INFO, WARN, ERROR
	Type    string         `json:"type"`  // e.g. "report.generated", "record.skipped"
	RunID   string         `json:"run_id,omitempty"`
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// EventFilter specifies criteria for reading events.
type EventFilter struct {
	Since *time.Time
	Until *time.Time
	Type  string
	Level string
	RunID string
}

// EventLog defines the interface for writing and reading events.
type EventLog interface {
	Write(event Event) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

// jsonlEventLog implements EventLog using an append-only JSONL file.
type jsonlEventLog struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewJSONLEventLog creates a new EventLog backed by a JSONL file at the given path.
func NewJSONLEventLog(path string) (EventLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &jsonlEventLog{path: path, file: f}, nil
}

// Write appends a JSON-encoded event followed by a newline.
func (l *jsonlEventLog) Write(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	data = append(data, '\n')

	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// Read scans the log line by line and returns the events matching filter.
// Malformed lines are skipped.
func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		if filter.matches(event) {
			events = append(events, event)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}
	return events, nil
}

// Close closes the underlying log file.
func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}

func (f EventFilter) matches(event Event) bool {
	if f.Since != nil && event.Time.Before(*f.Since) {
		return false
	}
	if f.Until != nil && event.Time.After(*f.Until) {
		return false
	}
	if f.Type != "" && event.Type != f.Type {
		return false
	}
	if f.Level != "" && event.Level != f.Level {
		return false
	}
	if f.RunID != "" && event.RunID != f.RunID {
		return false
	}
	return true
}

// RunRecorder writes the events of one report run, all tagged with the
// same run ID.
type RunRecorder struct {
	log   EventLog
	runID string
	clock func() time.Time
}

// NewRunRecorder creates a RunRecorder. A nil log discards every event.
func NewRunRecorder(log EventLog, runID string) *RunRecorder {
	return &RunRecorder{
		log:   log,
		runID: runID,
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// RunID returns the identifier the recorder tags events with.
func (r *RunRecorder) RunID() string {
	return r.runID
}

func (r *RunRecorder) write(level, typ, msg string, data map[string]any) error {
	if r.log == nil {
		return nil
	}
	return r.log.Write(Event{
		Time:    r.clock(),
		Level:   level,
		Type:    typ,
		RunID:   r.runID,
		Message: msg,
		Data:    data,
	})
}

// RecordReport writes one record.skipped or record.coerced event per report
// warning, then a report.generated summary event.
func (r *RunRecorder) RecordReport(rep *core.Report, source string) error {
	for _, w := range rep.Warnings {
		typ := EventRecordCoerced
		if w.Skipped {
			typ = EventRecordSkipped
		}
		data := map[string]any{
			"kind":  string(w.Kind),
			"index": w.Index,
		}
		if w.RecordID != "" {
			data["record_id"] = w.RecordID
		}
		if w.Field != "" {
			data["field"] = w.Field
		}
		if err := r.write("WARN", typ, w.Message, data); err != nil {
			return fmt.Errorf("recording warning: %w", err)
		}
	}

	err := r.write("INFO", EventReportGenerated, "report generated", map[string]any{
		"source":       source,
		"items":        rep.ItemCount,
		"resources":    len(rep.Utilization.Resources),
		"warnings":     len(rep.Warnings),
		"overdue":      rep.Temporal.Summary.OverdueCount,
		"generated_at": rep.GeneratedAt.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("recording report: %w", err)
	}
	return nil
}

// RecordAlerts writes an alerts.evaluated event.
func (r *RunRecorder) RecordAlerts(alerts []Alert) error {
	byCondition := make(map[string]any)
	for _, a := range alerts {
		n, _ := byCondition[a.Condition].(int)
		byCondition[a.Condition] = n + 1
	}
	level := "INFO"
	if len(alerts) > 0 {
		level = "WARN"
	}
	err := r.write(level, EventAlertsEvaluated, fmt.Sprintf("%d alerts raised", len(alerts)), map[string]any{
		"count":        len(alerts),
		"by_condition": byCondition,
	})
	if err != nil {
		return fmt.Errorf("recording alerts: %w", err)
	}
	return nil
}
