package core

import "fmt"

// RecordKind names the collection a record came from.
type RecordKind string

const (
	KindWorkItem RecordKind = "work_item"
	KindResource RecordKind = "resource"
	KindProject  RecordKind = "project"
)

// ValidationError reports a record that failed required-field checks.
// The record is excluded from aggregation; callers see it as a Warning.
type ValidationError struct {
	Kind     RecordKind
	Index    int
	RecordID string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("%s %q (index %d): %s: %s", e.Kind, e.RecordID, e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s at index %d: %s: %s", e.Kind, e.Index, e.Field, e.Reason)
}

// TypeMismatchError reports a caller passing a non-collection where a
// collection of records was required. It is fatal to the call.
type TypeMismatchError struct {
	Argument string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s must be a collection of records, got %s", e.Argument, e.Got)
}

// Warning is a non-fatal diagnostic about partial or messy input data.
type Warning struct {
	Kind     RecordKind `json:"kind"`
	Index    int        `json:"index"`
	RecordID string     `json:"record_id,omitempty"`
	Field    string     `json:"field,omitempty"`
	Message  string     `json:"message"`
	// Skipped is true when the record was excluded entirely.
	Skipped bool `json:"skipped"`
}

func warningFromValidation(err *ValidationError) Warning {
	return Warning{
		Kind:     err.Kind,
		Index:    err.Index,
		RecordID: err.RecordID,
		Field:    err.Field,
		Message:  err.Error(),
		Skipped:  true,
	}
}
