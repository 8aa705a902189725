package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/valter-silva-au/workpulse/pkg/models"
	"pgregory.net/rapid"
)

const fractionEpsilon = 1e-9

var propBase = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func genStatus(t *rapid.T, label string) models.TaskStatus {
	statuses := []models.TaskStatus{
		models.StatusTodo, models.StatusInProgress, models.StatusInReview,
		models.StatusDone, models.StatusBlocked, "archived", "wontfix",
	}
	return rapid.SampledFrom(statuses).Draw(t, label)
}

func genPriority(t *rapid.T, label string) models.Priority {
	priorities := []models.Priority{
		models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent, "p9",
	}
	return rapid.SampledFrom(priorities).Draw(t, label)
}

func genOptionalTime(t *rapid.T, label string) *time.Time {
	if !rapid.Bool().Draw(t, label+"Present") {
		return nil
	}
	minutes := rapid.IntRange(0, 60*24*90).Draw(t, label+"Minutes")
	ts := propBase.Add(time.Duration(minutes) * time.Minute)
	return &ts
}

func genWorkItem(t *rapid.T, i int) models.WorkItem {
	p := fmt.Sprintf("item%d", i)
	return models.WorkItem{
		ID:             fmt.Sprintf("T-%03d", i),
		Title:          p,
		Status:         genStatus(t, p+"Status"),
		Priority:       genPriority(t, p+"Priority"),
		AssigneeID:     rapid.SampledFrom([]string{"", "alice", "bob", "zed"}).Draw(t, p+"Assignee"),
		ProjectID:      rapid.SampledFrom([]string{"", "P-1", "P-2", "P-9"}).Draw(t, p+"Project"),
		StartDate:      genOptionalTime(t, p+"Start"),
		DueDate:        genOptionalTime(t, p+"Due"),
		CreatedAt:      genOptionalTime(t, p+"Created"),
		CompletedAt:    genOptionalTime(t, p+"Completed"),
		EstimatedHours: float64(rapid.IntRange(0, 80).Draw(t, p+"Est")),
		ActualHours:    float64(rapid.IntRange(0, 80).Draw(t, p+"Act")),
		Tags:           []string{},
	}
}

func genWorkItems(t *rapid.T) []models.WorkItem {
	n := rapid.IntRange(0, 30).Draw(t, "n")
	items := make([]models.WorkItem, n)
	for i := range items {
		items[i] = genWorkItem(t, i)
	}
	return items
}

// =============================================================================
// Property 1: Group Counts Sum To Total
// =============================================================================

// Feature: workpulse, Property 1: Group Counts Sum To Total
// *For any* record set and any grouping dimension, the per-group counts SHALL
// sum to the record count and every known value SHALL appear in the result.
func TestProperty1_GroupCountsSumToTotal(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		items := genWorkItems(rt)
		knownByDim := map[Dimension][]string{
			DimensionAssignee: {"alice", "bob"},
			DimensionProject:  {"P-1", "P-2"},
		}

		for _, dim := range []Dimension{DimensionStatus, DimensionPriority, DimensionAssignee, DimensionProject} {
			b, err := GroupBy(items, dim, knownByDim[dim])
			if err != nil {
				rt.Fatalf("GroupBy(%s): %v", dim, err)
			}
			sum := 0
			for _, g := range b.Groups {
				sum += g.Count
				if g.CompletionRate < 0 || g.CompletionRate > 100 {
					rt.Errorf("%s/%s CompletionRate = %v out of range", dim, g.Key, g.CompletionRate)
				}
			}
			if sum != len(items) || b.Total != len(items) {
				rt.Errorf("%s: sum of counts = %d, total = %d, want %d", dim, sum, b.Total, len(items))
			}

			counts := b.Counts()
			var required []string
			switch dim {
			case DimensionStatus:
				for _, s := range models.StatusValues() {
					required = append(required, string(s))
				}
			case DimensionPriority:
				for _, p := range models.PriorityValues() {
					required = append(required, string(p))
				}
			default:
				required = knownByDim[dim]
			}
			for _, k := range required {
				if _, ok := counts[k]; !ok {
					rt.Errorf("%s: missing key %q", dim, k)
				}
			}
		}
	})
}

// =============================================================================
// Property 2: Timeline Fractions Stay Within The Span
// =============================================================================

// Feature: workpulse, Property 2: Timeline Fractions Stay Within The Span
// *For any* set of spans, every bar SHALL satisfy 0 <= left <= 1 and
// left + width <= 1 + epsilon.
func TestProperty2_TimelineFractionsWithinSpan(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 25).Draw(rt, "n")
		spans := make([]Span, n)
		for i := range spans {
			p := fmt.Sprintf("span%d", i)
			spans[i] = Span{ID: p, Start: genOptionalTime(rt, p+"Start"), End: genOptionalTime(rt, p+"End")}
		}

		lay := Layout(spans, propBase)

		if len(lay.Bars)+len(lay.Unscheduled) != n {
			rt.Errorf("bars %d + unscheduled %d != %d", len(lay.Bars), len(lay.Unscheduled), n)
		}
		for _, b := range lay.Bars {
			if b.LeftFraction < 0 || b.LeftFraction > 1 {
				rt.Errorf("bar %s LeftFraction = %v", b.ID, b.LeftFraction)
			}
			if b.WidthFraction < 0 || b.LeftFraction+b.WidthFraction > 1+fractionEpsilon {
				rt.Errorf("bar %s left+width = %v", b.ID, b.LeftFraction+b.WidthFraction)
			}
			if lay.TotalSpanDays == 0 && (b.LeftFraction != 0 || b.WidthFraction != 0) {
				rt.Errorf("bar %s has non-zero fractions in a zero-day span", b.ID)
			}
			if b.Milestone != (b.DurationDays == 0) {
				rt.Errorf("bar %s Milestone = %v with DurationDays %d", b.ID, b.Milestone, b.DurationDays)
			}
		}
	})
}

// =============================================================================
// Property 3: Utilization Classification Is Monotonic
// =============================================================================

// Feature: workpulse, Property 3: Utilization Classification Is Monotonic
// *For any* fixed capacity, increasing allocated hours SHALL never move the
// band backwards (available -> busy -> overloaded only).
func TestProperty3_UtilizationMonotonic(t *testing.T) {
	rank := map[UtilizationBand]int{BandAvailable: 0, BandBusy: 1, BandOverloaded: 2}
	cfg := models.DefaultReportConfig()

	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.Float64Range(0, 200).Draw(rt, "capacity")
		a := rapid.Float64Range(0, 400).Draw(rt, "a")
		delta := rapid.Float64Range(0, 400).Draw(rt, "delta")

		lo := Utilization(models.Resource{CapacityHours: capacity, AllocatedHours: a}, cfg)
		hi := Utilization(models.Resource{CapacityHours: capacity, AllocatedHours: a + delta}, cfg)

		if rank[hi.Band] < rank[lo.Band] {
			rt.Errorf("band moved backwards: %s (%.2f%%) -> %s (%.2f%%)", lo.Band, lo.UtilizationPct, hi.Band, hi.UtilizationPct)
		}
		if hi.UtilizationPct > cfg.UtilizationCapPct {
			rt.Errorf("UtilizationPct %v exceeds cap %v", hi.UtilizationPct, cfg.UtilizationCapPct)
		}
	})
}

// =============================================================================
// Property 4: Exact Estimates Are Accurate
// =============================================================================

// Feature: workpulse, Property 4: Exact Estimates Are Accurate
// *For any* positive estimate matched exactly by actual hours, variance SHALL
// be 0 and the estimate SHALL be accurate.
func TestProperty4_ExactEstimateIsAccurate(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		hours := rapid.Float64Range(0.01, 1000).Draw(rt, "hours")
		tolerance := rapid.Float64Range(0, 50).Draw(rt, "tolerance")

		v := Variance(hours, hours, tolerance)
		if v.Variance != 0 || v.VariancePct != 0 || !v.Accurate {
			rt.Errorf("Variance(%v, %v) = %+v, want zero variance and accurate", hours, hours, v)
		}
	})
}

// =============================================================================
// Property 5: Cumulative Series Ignores Input Order
// =============================================================================

// Feature: workpulse, Property 5: Cumulative Series Ignores Input Order
// *For any* bucket set, Cumulative SHALL produce the same non-decreasing
// series regardless of the order buckets are supplied in.
func TestProperty5_CumulativeOrderIndependent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(rt, "n")
		buckets := make([]TrendBucket, n)
		for i := range buckets {
			start := propBase.AddDate(0, 0, 7*i)
			buckets[i] = TrendBucket{
				Label:     PeriodWeek.Label(start),
				Start:     start,
				Created:   rapid.IntRange(0, 10).Draw(rt, fmt.Sprintf("created%d", i)),
				Completed: rapid.IntRange(0, 10).Draw(rt, fmt.Sprintf("completed%d", i)),
			}
		}
		seed := rapid.Int64().Draw(rt, "seed")

		shuffled := make([]TrendBucket, n)
		copy(shuffled, buckets)
		rand.New(rand.NewSource(seed)).Shuffle(n, func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		want := Cumulative(buckets)
		got := Cumulative(shuffled)
		if !reflect.DeepEqual(got, want) {
			rt.Fatalf("Cumulative depends on input order")
		}
		for i := 1; i < len(got); i++ {
			if got[i].CumulativeCompleted < got[i-1].CumulativeCompleted {
				rt.Errorf("cumulative completed decreased at %d", i)
			}
			if got[i].Start.Before(got[i-1].Start) {
				rt.Errorf("bucket %d out of chronological order", i)
			}
		}
	})
}

// =============================================================================
// Property 6: Reporter Is Deterministic
// =============================================================================

// Feature: workpulse, Property 6: Reporter Is Deterministic
// *For any* raw record set, generating a report twice with the same now SHALL
// produce byte-identical JSON, and the input SHALL not be mutated.
func TestProperty6_ReporterDeterministic(t *testing.T) {
	r := NewReporter(models.DefaultReportConfig(), zerolog.Nop())

	rapid.Check(t, func(rt *rapid.T) {
		items := genWorkItems(rt)
		raw := make([]any, len(items))
		for i, it := range items {
			m := map[string]any{
				"id":              it.ID,
				"title":           it.Title,
				"status":          string(it.Status),
				"priority":        string(it.Priority),
				"assignee":        it.AssigneeID,
				"project":         it.ProjectID,
				"estimated_hours": it.EstimatedHours,
				"actual_hours":    it.ActualHours,
			}
			if it.DueDate != nil {
				m["due_date"] = it.DueDate.Format(time.RFC3339)
			}
			if it.CreatedAt != nil {
				m["created_at"] = it.CreatedAt.Format(time.RFC3339)
			}
			raw[i] = m
		}
		in := ReportInput{WorkItems: raw, Resources: []any{}, Projects: []any{}}
		before, _ := json.Marshal(raw)

		first, err := r.Generate(in, propBase)
		if err != nil {
			rt.Fatalf("Generate: %v", err)
		}
		second, err := r.Generate(in, propBase)
		if err != nil {
			rt.Fatalf("Generate: %v", err)
		}

		a, _ := json.Marshal(first)
		b, _ := json.Marshal(second)
		if !bytes.Equal(a, b) {
			rt.Errorf("reports differ between runs")
		}
		after, _ := json.Marshal(raw)
		if !bytes.Equal(before, after) {
			rt.Errorf("input mutated")
		}
		if first.ItemCount != len(items) {
			rt.Errorf("ItemCount = %d, want %d", first.ItemCount, len(items))
		}
	})
}

// =============================================================================
// Property 7: Normalized Records Satisfy Model Invariants
// =============================================================================

// Feature: workpulse, Property 7: Normalized Records Satisfy Model Invariants
// *For any* numeric field values, normalized work items SHALL have hours >= 0,
// progress within [0, 100], start <= due, and non-nil tags.
func TestProperty7_NormalizedInvariants(t *testing.T) {
	n := NewRecordNormalizer(zerolog.Nop())

	rapid.Check(t, func(rt *rapid.T) {
		numeric := rapid.OneOf(
			rapid.Just[any](nil),
			rapid.Just[any]("garbage"),
			rapid.Map(rapid.Float64Range(-500, 500), func(f float64) any { return f }),
			rapid.Map(rapid.IntRange(-500, 500), func(i int) any { return fmt.Sprint(i) }),
		)
		start := genOptionalTime(rt, "start")
		due := genOptionalTime(rt, "due")

		rec := map[string]any{
			"id":              "T-1",
			"title":           "x",
			"status":          "todo",
			"estimated_hours": numeric.Draw(rt, "est"),
			"actual_hours":    numeric.Draw(rt, "act"),
			"progress":        numeric.Draw(rt, "progress"),
		}
		if start != nil {
			rec["start_date"] = *start
		}
		if due != nil {
			rec["due_date"] = *due
		}

		res, err := n.NormalizeWorkItems([]any{rec})
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		if len(res.Records) != 1 {
			rt.Fatalf("expected the record to survive, got %d", len(res.Records))
		}
		it := res.Records[0]
		if it.EstimatedHours < 0 || it.ActualHours < 0 {
			rt.Errorf("negative hours: %+v", it)
		}
		if it.Progress < 0 || it.Progress > 100 {
			rt.Errorf("progress out of range: %v", it.Progress)
		}
		if it.StartDate != nil && it.DueDate != nil && it.StartDate.After(*it.DueDate) {
			rt.Errorf("start %v after due %v", it.StartDate, it.DueDate)
		}
		if it.Tags == nil {
			rt.Error("tags must not be nil")
		}
	})
}
