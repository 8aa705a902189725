package core

import (
	"reflect"
	"testing"
	"time"

	"github.com/valter-silva-au/workpulse/pkg/models"
)

func jan(day int) *time.Time {
	return timePtr(time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC))
}

func TestLayout_Fractions(t *testing.T) {
	spans := []Span{
		{ID: "b", Start: jan(6), End: jan(11)},
		{ID: "a", Start: jan(1), End: jan(11)},
		{ID: "m", Start: jan(3), End: jan(3)},
	}

	lay := Layout(spans, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))

	if lay.TotalSpanDays != 10 {
		t.Fatalf("TotalSpanDays = %d, want 10", lay.TotalSpanDays)
	}
	if !lay.SpanStart.Equal(*jan(1)) || !lay.SpanEnd.Equal(*jan(11)) {
		t.Errorf("span = %v..%v, want Jan 1..Jan 11", lay.SpanStart, lay.SpanEnd)
	}

	var ids []string
	for _, b := range lay.Bars {
		ids = append(ids, b.ID)
	}
	if !reflect.DeepEqual(ids, []string{"a", "m", "b"}) {
		t.Errorf("bar order = %v, want [a m b]", ids)
	}

	a, m, b := lay.Bars[0], lay.Bars[1], lay.Bars[2]
	if a.LeftFraction != 0 || a.WidthFraction != 1 || a.Milestone {
		t.Errorf("a = %+v, want left 0 width 1", a)
	}
	if b.OffsetDays != 5 || b.DurationDays != 5 || b.LeftFraction != 0.5 || b.WidthFraction != 0.5 {
		t.Errorf("b = %+v, want offset 5 duration 5 left 0.5 width 0.5", b)
	}
	if !m.Milestone || m.DurationDays != 0 || m.WidthFraction != 0 || m.LeftFraction != 0.2 {
		t.Errorf("m = %+v, want milestone at 0.2", m)
	}

	if lay.TodayFraction == nil || *lay.TodayFraction != 0.5 {
		t.Errorf("TodayFraction = %v, want 0.5", lay.TodayFraction)
	}
}

func TestLayout_DegenerateSpan(t *testing.T) {
	tests := []struct {
		name  string
		spans []Span
	}{
		{"single record", []Span{{ID: "a", Start: jan(5), End: jan(5)}}},
		{"same day", []Span{
			{ID: "a", Start: jan(5), End: jan(5)},
			{ID: "b", Start: jan(5), End: jan(5)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lay := Layout(tt.spans, testNow)
			if lay.TotalSpanDays != 0 {
				t.Fatalf("TotalSpanDays = %d, want 0", lay.TotalSpanDays)
			}
			for _, b := range lay.Bars {
				if b.LeftFraction != 0 || b.WidthFraction != 0 {
					t.Errorf("bar %s fractions = %v/%v, want 0/0", b.ID, b.LeftFraction, b.WidthFraction)
				}
				if !b.Milestone {
					t.Errorf("bar %s should be a milestone", b.ID)
				}
			}
			if lay.TodayFraction != nil {
				t.Errorf("TodayFraction = %v, want nil", *lay.TodayFraction)
			}
		})
	}
}

func TestLayout_PartialAndMissingDates(t *testing.T) {
	spans := []Span{
		{ID: "start-only", Start: jan(2)},
		{ID: "end-only", End: jan(12)},
		{ID: "none"},
	}

	lay := Layout(spans, testNow)

	if !reflect.DeepEqual(lay.Unscheduled, []string{"none"}) {
		t.Errorf("Unscheduled = %v, want [none]", lay.Unscheduled)
	}
	if len(lay.Bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(lay.Bars))
	}
	for _, b := range lay.Bars {
		if !b.Milestone {
			t.Errorf("bar %s with one date should be a milestone", b.ID)
		}
	}
	if lay.Bars[1].ID != "end-only" || lay.Bars[1].LeftFraction != 1 {
		t.Errorf("end-only bar = %+v, want left 1", lay.Bars[1])
	}
}

func TestLayout_ClampsCeilingOvershoot(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	spans := []Span{
		{ID: "anchor", Start: timePtr(base), End: timePtr(base)},
		{ID: "late", Start: timePtr(base.Add(time.Hour)), End: timePtr(base.Add(26 * time.Hour))},
	}

	lay := Layout(spans, testNow)
	late := lay.Bars[1]
	if late.OffsetDays != 1 || late.DurationDays != 2 || lay.TotalSpanDays != 2 {
		t.Fatalf("unexpected day math: bar %+v total %d", late, lay.TotalSpanDays)
	}
	if late.LeftFraction+late.WidthFraction > 1 {
		t.Errorf("left+width = %v, want <= 1", late.LeftFraction+late.WidthFraction)
	}
}

func TestLayout_Empty(t *testing.T) {
	lay := Layout(nil, testNow)
	if lay.SpanStart != nil || lay.TotalSpanDays != 0 || len(lay.Bars) != 0 {
		t.Errorf("unexpected layout for empty input: %+v", lay)
	}
}

func TestWorkItemAndProjectSpans(t *testing.T) {
	items := []models.WorkItem{{ID: "T-1", Title: "one", StartDate: jan(1), DueDate: jan(4)}}
	spans := WorkItemSpans(items)
	if len(spans) != 1 || spans[0].Label != "one" || spans[0].End != items[0].DueDate {
		t.Errorf("WorkItemSpans = %+v", spans)
	}

	projects := []models.Project{{ID: "P-1", Name: "Launch", StartDate: jan(1), EndDate: jan(31)}}
	pspans := ProjectSpans(projects)
	if len(pspans) != 1 || pspans[0].Label != "Launch" || pspans[0].End != projects[0].EndDate {
		t.Errorf("ProjectSpans = %+v", pspans)
	}
}

func TestLayout_CenturiesLongSpan(t *testing.T) {
	start := time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC)
	mid := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC)

	lay := Layout([]Span{
		{ID: "long", Start: &start, End: &end},
		{ID: "half", Start: &mid, End: &end},
	}, mid)

	if lay.TotalSpanDays != 146097 {
		t.Fatalf("TotalSpanDays = %d, want 146097", lay.TotalSpanDays)
	}
	half := lay.Bars[1]
	if half.ID != "half" || half.OffsetDays != 73048 || half.DurationDays != 73049 {
		t.Errorf("half = %+v, want offset 73048 duration 73049", half)
	}
	if lay.TodayFraction == nil || *lay.TodayFraction < 0.49 || *lay.TodayFraction > 0.51 {
		t.Errorf("TodayFraction = %v, want about 0.5", lay.TodayFraction)
	}
}
