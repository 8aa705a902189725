package core

import (
	"math"
	"testing"

	"github.com/valter-silva-au/workpulse/pkg/models"
)

func TestVariance(t *testing.T) {
	tests := []struct {
		name           string
		estimated      float64
		actual         float64
		wantVariance   float64
		wantPct        float64
		wantAccurate   bool
		wantEfficiency float64
	}{
		{"on estimate", 10, 10, 0, 0, true, 100},
		{"overrun", 10, 15, 5, 50, false, 10.0 / 15.0 * 100},
		{"underrun", 10, 5, -5, -50, false, 200},
		{"within tolerance", 10, 11, 1, 10, true, 10.0 / 11.0 * 100},
		{"no estimate", 0, 6, 6, 0, true, 0},
		{"no actual", 8, 0, -8, -100, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Variance(tt.estimated, tt.actual, 10)
			if v.Variance != tt.wantVariance {
				t.Errorf("Variance = %v, want %v", v.Variance, tt.wantVariance)
			}
			if v.VariancePct != tt.wantPct {
				t.Errorf("VariancePct = %v, want %v", v.VariancePct, tt.wantPct)
			}
			if v.Accurate != tt.wantAccurate {
				t.Errorf("Accurate = %v, want %v", v.Accurate, tt.wantAccurate)
			}
			if !approxEqual(v.EfficiencyPct, tt.wantEfficiency) {
				t.Errorf("EfficiencyPct = %v, want %v", v.EfficiencyPct, tt.wantEfficiency)
			}
		})
	}
}

func TestAnalyzeVariance_Summary(t *testing.T) {
	items := []models.WorkItem{
		{ID: "a", EstimatedHours: 10, ActualHours: 10},
		{ID: "b", EstimatedHours: 10, ActualHours: 15},
		{ID: "c", EstimatedHours: 10, ActualHours: 5},
		{ID: "d"},
	}

	rep := AnalyzeVariance(items, 10)

	if len(rep.Items) != 3 {
		t.Fatalf("expected 3 analysed items (d has no effort), got %d", len(rep.Items))
	}
	s := rep.Summary
	if s.Total != 3 || s.AccurateCount != 1 {
		t.Errorf("Total/Accurate = %d/%d, want 3/1", s.Total, s.AccurateCount)
	}
	if s.OverrunCount != 1 || s.UnderrunCount != 1 {
		t.Errorf("Overrun/Underrun = %d/%d, want 1/1", s.OverrunCount, s.UnderrunCount)
	}
	if !approxEqual(s.AccuracyRate, 100.0/3.0) {
		t.Errorf("AccuracyRate = %v, want %v", s.AccuracyRate, 100.0/3.0)
	}
	if s.TotalEstimatedHours != 30 || s.TotalActualHours != 30 || s.TotalVariance != 0 {
		t.Errorf("totals = %v/%v/%v, want 30/30/0", s.TotalEstimatedHours, s.TotalActualHours, s.TotalVariance)
	}
	if s.OverallEfficiency != 100 {
		t.Errorf("OverallEfficiency = %v, want 100", s.OverallEfficiency)
	}
}

func TestAnalyzeVariance_Empty(t *testing.T) {
	rep := AnalyzeVariance(nil, 10)
	if rep.Items == nil || len(rep.Items) != 0 {
		t.Errorf("expected empty non-nil items, got %#v", rep.Items)
	}
	if rep.Summary.AccuracyRate != 0 {
		t.Errorf("AccuracyRate = %v, want 0", rep.Summary.AccuracyRate)
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
