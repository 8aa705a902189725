package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/valter-silva-au/workpulse/pkg/models"
)

// Dimension names a work item attribute records can be grouped by.
type Dimension string

const (
	DimensionStatus   Dimension = "status"
	DimensionPriority Dimension = "priority"
	DimensionAssignee Dimension = "assignee"
	DimensionProject  Dimension = "project"
)

// Bucket keys for records whose value falls outside the known set.
const (
	OtherKey      = "other"
	UnassignedKey = "unassigned"
	NoProjectKey  = "none"
)

// Group holds the metrics of one partition of a record set.
type Group struct {
	Key            string  `json:"key"`
	Count          int     `json:"count"`
	CompletedCount int     `json:"completed_count"`
	EstimatedHours float64 `json:"estimated_hours"`
	ActualHours    float64 `json:"actual_hours"`
	CompletionRate float64 `json:"completion_rate"`
}

// Breakdown is an exhaustive, ordered partition of a record set.
type Breakdown struct {
	Dimension Dimension `json:"dimension"`
	Total     int       `json:"total"`
	Groups    []Group   `json:"groups"`
}

// Counts returns the per-group counts keyed by group key.
func (b Breakdown) Counts() map[string]int {
	out := make(map[string]int, len(b.Groups))
	for _, g := range b.Groups {
		out[g.Key] = g.Count
	}
	return out
}

// Group returns the group with the given key.
func (b Breakdown) Group(key string) (Group, bool) {
	for _, g := range b.Groups {
		if g.Key == key {
			return g, true
		}
	}
	return Group{}, false
}

// GroupBy partitions items by dimension. Every known value of the dimension
// appears in the result, including those with no matching records. For the
// assignee and project dimensions knownKeys supplies the known values (for
// example resource or project IDs); it is ignored for status and priority.
func GroupBy(items []models.WorkItem, dim Dimension, knownKeys []string) (Breakdown, error) {
	keyOf, order, err := dimensionKeys(items, dim, knownKeys)
	if err != nil {
		return Breakdown{}, err
	}

	index := make(map[string]int, len(order))
	groups := make([]Group, len(order))
	for i, k := range order {
		index[k] = i
		groups[i].Key = k
	}

	for _, it := range items {
		g := &groups[index[keyOf(it)]]
		g.Count++
		g.EstimatedHours += it.EstimatedHours
		g.ActualHours += it.ActualHours
		if it.IsDone() {
			g.CompletedCount++
		}
	}
	for i := range groups {
		groups[i].CompletionRate = percentOf(groups[i].CompletedCount, groups[i].Count)
	}

	return Breakdown{Dimension: dim, Total: len(items), Groups: groups}, nil
}

// dimensionKeys returns the key function for dim and the ordered key list.
// Every key the function can return is present in the list.
func dimensionKeys(items []models.WorkItem, dim Dimension, knownKeys []string) (func(models.WorkItem) string, []string, error) {
	switch dim {
	case DimensionStatus:
		order := make([]string, 0, 6)
		for _, s := range models.StatusValues() {
			order = append(order, string(s))
		}
		order = append(order, OtherKey)
		return func(it models.WorkItem) string {
			if it.Status.Known() {
				return string(it.Status)
			}
			return OtherKey
		}, order, nil

	case DimensionPriority:
		order := make([]string, 0, 5)
		for _, p := range models.PriorityValues() {
			order = append(order, string(p))
		}
		order = append(order, OtherKey)
		return func(it models.WorkItem) string {
			if it.Priority.Known() {
				return string(it.Priority)
			}
			return OtherKey
		}, order, nil

	case DimensionAssignee:
		keyOf := func(it models.WorkItem) string {
			if it.AssigneeID == "" {
				return UnassignedKey
			}
			return it.AssigneeID
		}
		return keyOf, openKeyOrder(items, keyOf, knownKeys, UnassignedKey), nil

	case DimensionProject:
		keyOf := func(it models.WorkItem) string {
			if it.ProjectID == "" {
				return NoProjectKey
			}
			return it.ProjectID
		}
		return keyOf, openKeyOrder(items, keyOf, knownKeys, NoProjectKey), nil

	default:
		return nil, nil, fmt.Errorf("unknown dimension %q", dim)
	}
}

// openKeyOrder lists known keys in caller order, then keys only seen on
// records in sorted order, then the fallback key.
func openKeyOrder(items []models.WorkItem, keyOf func(models.WorkItem) string, knownKeys []string, fallback string) []string {
	seen := map[string]bool{fallback: true}
	order := make([]string, 0, len(knownKeys)+1)
	for _, k := range knownKeys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		order = append(order, k)
	}

	var discovered []string
	for _, it := range items {
		k := keyOf(it)
		if seen[k] {
			continue
		}
		seen[k] = true
		discovered = append(discovered, k)
	}
	sort.Strings(discovered)

	order = append(order, discovered...)
	return append(order, fallback)
}

// percentOf returns part/total*100, or 0 when total is 0.
func percentOf(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// Period is the width of a trend bucket.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodDay, PeriodWeek, PeriodMonth:
		return p, nil
	}
	return "", fmt.Errorf("unsupported period %q (use day, week or month)", s)
}

// Start returns the beginning of the period containing t, in UTC.
// Weeks start on Monday.
func (p Period) Start(t time.Time) time.Time {
	t = t.UTC()
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch p {
	case PeriodWeek:
		return d.AddDate(0, 0, -((int(d.Weekday()) + 6) % 7))
	case PeriodMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return d
	}
}

// Next returns the start of the period following the one starting at start.
func (p Period) Next(start time.Time) time.Time {
	switch p {
	case PeriodWeek:
		return start.AddDate(0, 0, 7)
	case PeriodMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// Label formats a period start for display: 2006-01-02, 2006-W01 or 2006-01.
func (p Period) Label(start time.Time) string {
	switch p {
	case PeriodWeek:
		y, w := start.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	case PeriodMonth:
		return start.Format("2006-01")
	default:
		return start.Format("2006-01-02")
	}
}

// TrendBucket holds per-period created and completed counts and the running
// totals up to and including the period.
type TrendBucket struct {
	Label               string    `json:"label"`
	Start               time.Time `json:"start"`
	Created             int       `json:"created"`
	Completed           int       `json:"completed"`
	CumulativeCreated   int       `json:"cumulative_created"`
	CumulativeCompleted int       `json:"cumulative_completed"`
	Open                int       `json:"open"`
}

// TrendSeries is a chronologically ordered list of trend buckets.
type TrendSeries struct {
	Period  Period        `json:"period"`
	Buckets []TrendBucket `json:"buckets"`
}

// Trend buckets items by creation date (created counts) and completion date
// (completed counts). Gaps between the first and last period are filled with
// empty buckets so the series can be plotted as-is.
func Trend(items []models.WorkItem, period Period) (TrendSeries, error) {
	if _, err := ParsePeriod(string(period)); err != nil {
		return TrendSeries{}, err
	}

	byStart := make(map[int64]*TrendBucket)
	bucketFor := func(t time.Time) *TrendBucket {
		start := period.Start(t)
		b, ok := byStart[start.Unix()]
		if !ok {
			b = &TrendBucket{Label: period.Label(start), Start: start}
			byStart[start.Unix()] = b
		}
		return b
	}

	for _, it := range items {
		if it.CreatedAt != nil {
			bucketFor(*it.CreatedAt).Created++
		}
		if it.CompletedAt != nil {
			bucketFor(*it.CompletedAt).Completed++
		}
	}

	series := TrendSeries{Period: period, Buckets: []TrendBucket{}}
	if len(byStart) == 0 {
		return series, nil
	}

	var first, last time.Time
	for _, b := range byStart {
		if first.IsZero() || b.Start.Before(first) {
			first = b.Start
		}
		if b.Start.After(last) {
			last = b.Start
		}
	}

	buckets := make([]TrendBucket, 0, len(byStart))
	for s := first; !s.After(last); s = period.Next(s) {
		if b, ok := byStart[s.Unix()]; ok {
			buckets = append(buckets, *b)
			continue
		}
		buckets = append(buckets, TrendBucket{Label: period.Label(s), Start: s})
	}

	series.Buckets = Cumulative(buckets)
	return series, nil
}

// Cumulative returns a copy of buckets sorted chronologically with the
// running totals filled in. The input slice is not reordered.
func Cumulative(buckets []TrendBucket) []TrendBucket {
	out := make([]TrendBucket, len(buckets))
	copy(out, buckets)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].Label < out[j].Label
		}
		return out[i].Start.Before(out[j].Start)
	})

	created, completed := 0, 0
	for i := range out {
		created += out[i].Created
		completed += out[i].Completed
		out[i].CumulativeCreated = created
		out[i].CumulativeCompleted = completed
		out[i].Open = created - completed
	}
	return out
}
