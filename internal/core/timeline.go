package core

import (
	"sort"
	"time"

	"github.com/valter-silva-au/workpulse/pkg/models"
)

// Span is a labelled date range to lay out on a timeline.
type Span struct {
	ID    string
	Label string
	Start *time.Time
	End   *time.Time
}

// WorkItemSpans maps work items to spans over [start date, due date].
func WorkItemSpans(items []models.WorkItem) []Span {
	spans := make([]Span, 0, len(items))
	for _, it := range items {
		spans = append(spans, Span{ID: it.ID, Label: it.Title, Start: it.StartDate, End: it.DueDate})
	}
	return spans
}

// ProjectSpans maps projects to spans over [start date, end date].
func ProjectSpans(projects []models.Project) []Span {
	spans := make([]Span, 0, len(projects))
	for _, p := range projects {
		spans = append(spans, Span{ID: p.ID, Label: p.Name, Start: p.StartDate, End: p.EndDate})
	}
	return spans
}

// TimelineBar is the layout of one span within the global timeline.
type TimelineBar struct {
	ID            string    `json:"id"`
	Label         string    `json:"label"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	OffsetDays    int       `json:"offset_days"`
	DurationDays  int       `json:"duration_days"`
	LeftFraction  float64   `json:"left_fraction"`
	WidthFraction float64   `json:"width_fraction"`
	// Milestone marks zero-duration spans, drawn as a marker rather than a bar.
	Milestone bool `json:"milestone"`
}

// TimelineLayout is the output of Layout.
type TimelineLayout struct {
	SpanStart     *time.Time    `json:"span_start,omitempty"`
	SpanEnd       *time.Time    `json:"span_end,omitempty"`
	TotalSpanDays int           `json:"total_span_days"`
	TodayFraction *float64      `json:"today_fraction,omitempty"`
	Bars          []TimelineBar `json:"bars"`
	Unscheduled   []string      `json:"unscheduled"`
}

// Layout computes the global date span of spans and the position of each
// span within it as fractions of the total span. A span with only one date
// is treated as a point at that date; spans with no dates are unscheduled.
func Layout(spans []Span, now time.Time) TimelineLayout {
	out := TimelineLayout{Bars: []TimelineBar{}, Unscheduled: []string{}}

	type scheduled struct {
		span       Span
		start, end time.Time
	}
	var sched []scheduled
	for _, s := range spans {
		start, end := s.Start, s.End
		switch {
		case start == nil && end == nil:
			out.Unscheduled = append(out.Unscheduled, s.ID)
			continue
		case start == nil:
			start = end
		case end == nil:
			end = start
		}
		e := *end
		if e.Before(*start) {
			e = *start
		}
		sched = append(sched, scheduled{span: s, start: *start, end: e})
	}
	if len(sched) == 0 {
		return out
	}

	spanStart, spanEnd := sched[0].start, sched[0].end
	for _, s := range sched[1:] {
		if s.start.Before(spanStart) {
			spanStart = s.start
		}
		if s.end.After(spanEnd) {
			spanEnd = s.end
		}
	}
	total := daysBetween(spanStart, spanEnd)
	out.SpanStart = &spanStart
	out.SpanEnd = &spanEnd
	out.TotalSpanDays = total

	for _, s := range sched {
		bar := TimelineBar{
			ID:           s.span.ID,
			Label:        s.span.Label,
			Start:        s.start,
			End:          s.end,
			OffsetDays:   daysBetween(spanStart, s.start),
			DurationDays: daysBetween(s.start, s.end),
		}
		bar.Milestone = bar.DurationDays == 0
		if total > 0 {
			bar.LeftFraction = clampFraction(float64(bar.OffsetDays) / float64(total))
			// Per-record ceilings can overshoot the span end by up to a day.
			bar.WidthFraction = clampFraction(float64(bar.DurationDays) / float64(total))
			if bar.LeftFraction+bar.WidthFraction > 1 {
				bar.WidthFraction = 1 - bar.LeftFraction
			}
		}
		out.Bars = append(out.Bars, bar)
	}

	sort.SliceStable(out.Bars, func(i, j int) bool {
		if out.Bars[i].Start.Equal(out.Bars[j].Start) {
			return out.Bars[i].ID < out.Bars[j].ID
		}
		return out.Bars[i].Start.Before(out.Bars[j].Start)
	})

	if total > 0 && !now.Before(spanStart) && !now.After(spanEnd) {
		f := clampFraction(fractionalDays(spanStart, now) / float64(total))
		out.TodayFraction = &f
	}

	return out
}

func clampFraction(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
