package core

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"github.com/valter-silva-au/workpulse/pkg/models"
)

// NormalizeResult holds the records that survived normalization together
// with the warnings raised while coercing or skipping input.
type NormalizeResult[T any] struct {
	Records  []T
	Warnings []Warning
}

// RecordNormalizer coerces loosely-typed raw records, as decoded from YAML
// or JSON, into canonical models.
type RecordNormalizer struct {
	logger zerolog.Logger
}

// NewRecordNormalizer creates a RecordNormalizer that logs coercion warnings
// to logger. Pass zerolog.Nop() to discard them.
func NewRecordNormalizer(logger zerolog.Logger) *RecordNormalizer {
	return &RecordNormalizer{logger: logger}
}

// statusAliases maps common spellings onto the closed status set.
var statusAliases = map[string]models.TaskStatus{
	"todo":        models.StatusTodo,
	"to_do":       models.StatusTodo,
	"open":        models.StatusTodo,
	"in_progress": models.StatusInProgress,
	"doing":       models.StatusInProgress,
	"in_review":   models.StatusInReview,
	"review":      models.StatusInReview,
	"done":        models.StatusDone,
	"completed":   models.StatusDone,
	"closed":      models.StatusDone,
	"blocked":     models.StatusBlocked,
}

// NormalizeWorkItems converts a raw collection into work items. It returns a
// *TypeMismatchError when raw is not a collection.
func (n *RecordNormalizer) NormalizeWorkItems(raw any) (*NormalizeResult[models.WorkItem], error) {
	elems, err := asCollection("work items", raw)
	if err != nil {
		return nil, err
	}

	res := &NormalizeResult[models.WorkItem]{Records: make([]models.WorkItem, 0, len(elems))}
	seen := make(map[string]bool, len(elems))

	for i, elem := range elems {
		r, verr := n.newReader(KindWorkItem, i, elem, &res.Warnings)
		if verr != nil {
			n.skip(&res.Warnings, verr)
			continue
		}

		id, verr := r.requiredString("id")
		if verr != nil {
			n.skip(&res.Warnings, verr)
			continue
		}
		r.id = id
		if seen[id] {
			n.skip(&res.Warnings, r.invalid("id", "duplicate id, first occurrence kept"))
			continue
		}

		title, verr := r.requiredString("title")
		if verr != nil {
			n.skip(&res.Warnings, verr)
			continue
		}
		rawStatus, verr := r.requiredString("status")
		if verr != nil {
			n.skip(&res.Warnings, verr)
			continue
		}
		seen[id] = true

		item := models.WorkItem{
			ID:          id,
			Title:       title,
			Status:      r.status(rawStatus),
			Priority:    r.priority(),
			AssigneeID:  r.optionalString("assignee_id", "assignee"),
			ProjectID:   r.optionalString("project_id", "project"),
			StartDate:   r.date("start_date"),
			DueDate:     r.date("due_date"),
			CreatedAt:   r.date("created_at"),
			CompletedAt: r.date("completed_at"),
			Tags:        r.tags("tags"),
		}
		item.EstimatedHours = r.hours("estimated_hours")
		if r.has("actual_hours") {
			item.ActualHours = r.hours("actual_hours")
		} else {
			item.ActualHours = r.hours("logged_hours")
		}
		item.Progress = r.progress("progress")

		if item.StartDate != nil && item.DueDate != nil && item.StartDate.After(*item.DueDate) {
			r.warn("start_date", "start date after due date, clamped to due date")
			start := *item.DueDate
			item.StartDate = &start
		}

		res.Records = append(res.Records, item)
	}

	return res, nil
}

// NormalizeResources converts a raw collection into resources.
func (n *RecordNormalizer) NormalizeResources(raw any) (*NormalizeResult[models.Resource], error) {
	elems, err := asCollection("resources", raw)
	if err != nil {
		return nil, err
	}

	res := &NormalizeResult[models.Resource]{Records: make([]models.Resource, 0, len(elems))}
	seen := make(map[string]bool, len(elems))

	for i, elem := range elems {
		r, verr := n.newReader(KindResource, i, elem, &res.Warnings)
		if verr != nil {
			n.skip(&res.Warnings, verr)
			continue
		}
		id, verr := r.requiredString("id")
		if verr != nil {
			n.skip(&res.Warnings, verr)
			continue
		}
		r.id = id
		if seen[id] {
			n.skip(&res.Warnings, r.invalid("id", "duplicate id, first occurrence kept"))
			continue
		}
		name, verr := r.requiredString("name")
		if verr != nil {
			n.skip(&res.Warnings, verr)
			continue
		}
		seen[id] = true

		res.Records = append(res.Records, models.Resource{
			ID:             id,
			Name:           name,
			CapacityHours:  r.hours("capacity_hours"),
			AllocatedHours: r.hours("allocated_hours"),
		})
	}

	return res, nil
}

// NormalizeProjects converts a raw collection into projects.
func (n *RecordNormalizer) NormalizeProjects(raw any) (*NormalizeResult[models.Project], error) {
	elems, err := asCollection("projects", raw)
	if err != nil {
		return nil, err
	}

	res := &NormalizeResult[models.Project]{Records: make([]models.Project, 0, len(elems))}
	seen := make(map[string]bool, len(elems))

	for i, elem := range elems {
		r, verr := n.newReader(KindProject, i, elem, &res.Warnings)
		if verr != nil {
			n.skip(&res.Warnings, verr)
			continue
		}
		id, verr := r.requiredString("id")
		if verr != nil {
			n.skip(&res.Warnings, verr)
			continue
		}
		r.id = id
		if seen[id] {
			n.skip(&res.Warnings, r.invalid("id", "duplicate id, first occurrence kept"))
			continue
		}
		name, verr := r.requiredString("name")
		if verr != nil {
			n.skip(&res.Warnings, verr)
			continue
		}
		seen[id] = true

		p := models.Project{
			ID:        id,
			Name:      name,
			StartDate: r.date("start_date"),
			EndDate:   r.date("end_date"),
		}
		if p.StartDate != nil && p.EndDate != nil && p.StartDate.After(*p.EndDate) {
			r.warn("start_date", "start date after end date, clamped to end date")
			start := *p.EndDate
			p.StartDate = &start
		}
		res.Records = append(res.Records, p)
	}

	return res, nil
}

// asCollection accepts the slice shapes produced by YAML and JSON decoders.
// A nil slice is an empty collection; an untyped nil is not a collection.
func asCollection(argument string, raw any) ([]any, error) {
	switch v := raw.(type) {
	case []any:
		return v, nil
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, nil
	case nil:
		return nil, &TypeMismatchError{Argument: argument, Got: "nil"}
	default:
		return nil, &TypeMismatchError{Argument: argument, Got: fmt.Sprintf("%T", raw)}
	}
}

func (n *RecordNormalizer) skip(warnings *[]Warning, err *ValidationError) {
	n.logger.Warn().
		Str("kind", string(err.Kind)).
		Int("index", err.Index).
		Str("record_id", err.RecordID).
		Str("field", err.Field).
		Msg("record skipped: " + err.Reason)
	*warnings = append(*warnings, warningFromValidation(err))
}

// fieldReader reads and coerces the fields of one raw record.
type fieldReader struct {
	n        *RecordNormalizer
	kind     RecordKind
	index    int
	id       string
	fields   map[string]any
	warnings *[]Warning
}

func (n *RecordNormalizer) newReader(kind RecordKind, index int, elem any, warnings *[]Warning) (*fieldReader, *ValidationError) {
	r := &fieldReader{n: n, kind: kind, index: index, warnings: warnings}

	switch m := elem.(type) {
	case map[string]any:
		r.fields = m
	case map[any]any:
		r.fields = make(map[string]any, len(m))
		for k, v := range m {
			r.fields[fmt.Sprint(k)] = v
		}
	default:
		return nil, r.invalid("record", fmt.Sprintf("must be a map of fields, got %T", elem))
	}
	return r, nil
}

func (r *fieldReader) invalid(field, reason string) *ValidationError {
	return &ValidationError{Kind: r.kind, Index: r.index, RecordID: r.id, Field: field, Reason: reason}
}

func (r *fieldReader) warn(field, msg string) {
	r.n.logger.Warn().
		Str("kind", string(r.kind)).
		Int("index", r.index).
		Str("record_id", r.id).
		Str("field", field).
		Msg(msg)
	*r.warnings = append(*r.warnings, Warning{
		Kind:     r.kind,
		Index:    r.index,
		RecordID: r.id,
		Field:    field,
		Message:  msg,
	})
}

func (r *fieldReader) has(key string) bool {
	v, ok := r.fields[key]
	return ok && v != nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case map[string]any, map[any]any, []any, []string, []map[string]any:
		return false
	}
	return true
}

func (r *fieldReader) requiredString(key string) (string, *ValidationError) {
	v, ok := r.fields[key]
	if !ok || v == nil {
		return "", r.invalid(key, "is required")
	}
	if !isScalar(v) {
		return "", r.invalid(key, fmt.Sprintf("must be a scalar value, got %T", v))
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", r.invalid(key, err.Error())
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", r.invalid(key, "must not be empty")
	}
	return s, nil
}

// optionalString returns the first present key's value as a string.
func (r *fieldReader) optionalString(keys ...string) string {
	for _, key := range keys {
		v, ok := r.fields[key]
		if !ok || v == nil {
			continue
		}
		if !isScalar(v) {
			r.warn(key, fmt.Sprintf("expected a scalar value, got %T, ignored", v))
			continue
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			r.warn(key, fmt.Sprintf("not a string, ignored: %v", err))
			continue
		}
		return strings.TrimSpace(s)
	}
	return ""
}

func canonicalEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

func (r *fieldReader) status(raw string) models.TaskStatus {
	key := canonicalEnum(raw)
	if st, ok := statusAliases[key]; ok {
		return st
	}
	r.warn("status", fmt.Sprintf("unknown status %q, counted as other", raw))
	return models.TaskStatus(key)
}

func (r *fieldReader) priority() models.Priority {
	raw := r.optionalString("priority")
	if raw == "" {
		return models.PriorityMedium
	}
	p := models.Priority(canonicalEnum(raw))
	if p == "critical" {
		p = models.PriorityUrgent
	}
	if !p.Known() {
		r.warn("priority", fmt.Sprintf("unknown priority %q, counted as other", raw))
	}
	return p
}

// number coerces a numeric field. Absent fields are 0 without a warning.
func (r *fieldReader) number(key string) float64 {
	v, ok := r.fields[key]
	if !ok || v == nil {
		return 0
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return 0
	}
	if _, isBool := v.(bool); isBool || !isScalar(v) {
		r.warn(key, fmt.Sprintf("not numeric (%T), defaulted to 0", v))
		return 0
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		r.warn(key, fmt.Sprintf("not numeric (%v), defaulted to 0", v))
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		r.warn(key, "not a finite number, defaulted to 0")
		return 0
	}
	return f
}

func (r *fieldReader) hours(key string) float64 {
	f := r.number(key)
	if f < 0 {
		r.warn(key, fmt.Sprintf("negative value %g clamped to 0", f))
		return 0
	}
	return f
}

func (r *fieldReader) progress(key string) float64 {
	f := r.number(key)
	switch {
	case f < 0:
		r.warn(key, fmt.Sprintf("progress %g clamped to 0", f))
		return 0
	case f > 100:
		r.warn(key, fmt.Sprintf("progress %g clamped to 100", f))
		return 100
	}
	return f
}

func (r *fieldReader) date(key string) *time.Time {
	v, ok := r.fields[key]
	if !ok || v == nil {
		return nil
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil
	}
	if !isScalar(v) {
		r.warn(key, fmt.Sprintf("not a date (%T), ignored", v))
		return nil
	}
	if t, handled := r.numericDate(key, v); handled {
		return t
	}
	t, err := cast.ToTimeE(v)
	if err != nil || t.IsZero() {
		r.warn(key, fmt.Sprintf("unparseable date %v, ignored", v))
		return nil
	}
	t = t.UTC()
	return &t
}

// compactDate matches dates written as YYYYMMDD.
var compactDate = regexp.MustCompile(`^\d{8}$`)

// numericDate interprets numbers and digit strings used as dates. Eight-digit
// integers are compact YYYYMMDD dates; other numbers are Unix seconds. Both
// readings are reported as coercions. handled is false for non-numeric values.
func (r *fieldReader) numericDate(key string, v any) (t *time.Time, handled bool) {
	var digits string
	switch n := v.(type) {
	case string:
		digits = strings.TrimSpace(n)
		if !compactDate.MatchString(digits) {
			return nil, false
		}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		f, err := cast.ToFloat64E(n)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			r.warn(key, fmt.Sprintf("unparseable date %v, ignored", v))
			return nil, true
		}
		if f == math.Trunc(f) && f >= 10000101 && f <= 99991231 {
			digits = strconv.FormatInt(int64(f), 10)
			break
		}
		sec, frac := math.Modf(f)
		epoch := time.Unix(int64(sec), int64(frac*1e9)).UTC()
		r.warn(key, fmt.Sprintf("numeric date %v read as Unix seconds (%s)", v, epoch.Format(time.RFC3339)))
		return &epoch, true
	default:
		return nil, false
	}

	parsed, err := time.Parse("20060102", digits)
	if err != nil {
		r.warn(key, fmt.Sprintf("unparseable date %v, ignored", v))
		return nil, true
	}
	r.warn(key, fmt.Sprintf("compact date %v read as %s", v, parsed.Format("2006-01-02")))
	return &parsed, true
}

func (r *fieldReader) tags(key string) []string {
	out := []string{}
	v, ok := r.fields[key]
	if !ok || v == nil {
		return out
	}
	raw, err := cast.ToStringSliceE(v)
	if err != nil {
		r.warn(key, fmt.Sprintf("tags not a list (%T), ignored", v))
		return out
	}
	seen := make(map[string]bool, len(raw))
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
