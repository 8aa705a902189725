package core

import (
	"math"

	"github.com/valter-silva-au/workpulse/pkg/models"
)

// VarianceResult compares the estimated and actual effort of one item.
type VarianceResult struct {
	ItemID         string  `json:"item_id,omitempty"`
	EstimatedHours float64 `json:"estimated_hours"`
	ActualHours    float64 `json:"actual_hours"`
	Variance       float64 `json:"variance"`
	VariancePct    float64 `json:"variance_pct"`
	Accurate       bool    `json:"accurate"`
	EfficiencyPct  float64 `json:"efficiency_pct"`
}

// VarianceSummary aggregates estimate accuracy over a record set.
type VarianceSummary struct {
	Total               int     `json:"total"`
	AccurateCount       int     `json:"accurate_count"`
	AccuracyRate        float64 `json:"accuracy_rate"`
	OverrunCount        int     `json:"overrun_count"`
	UnderrunCount       int     `json:"underrun_count"`
	TotalEstimatedHours float64 `json:"total_estimated_hours"`
	TotalActualHours    float64 `json:"total_actual_hours"`
	TotalVariance       float64 `json:"total_variance"`
	OverallVariancePct  float64 `json:"overall_variance_pct"`
	OverallEfficiency   float64 `json:"overall_efficiency_pct"`
}

// VarianceReport is the output of AnalyzeVariance.
type VarianceReport struct {
	Items   []VarianceResult `json:"items"`
	Summary VarianceSummary  `json:"summary"`
}

// Variance computes the effort variance of one estimate. Percentages are 0
// when their denominator is 0.
func Variance(estimated, actual, tolerancePct float64) VarianceResult {
	v := VarianceResult{
		EstimatedHours: estimated,
		ActualHours:    actual,
		Variance:       actual - estimated,
	}
	if estimated != 0 {
		v.VariancePct = v.Variance / estimated * 100
	}
	if actual != 0 {
		v.EfficiencyPct = estimated / actual * 100
	}
	v.Accurate = math.Abs(v.VariancePct) <= tolerancePct
	return v
}

// AnalyzeVariance computes variance per item and the aggregate accuracy.
// Items with neither an estimate nor logged hours are skipped.
func AnalyzeVariance(items []models.WorkItem, tolerancePct float64) VarianceReport {
	rep := VarianceReport{Items: []VarianceResult{}}
	for _, it := range items {
		if it.EstimatedHours == 0 && it.ActualHours == 0 {
			continue
		}
		v := Variance(it.EstimatedHours, it.ActualHours, tolerancePct)
		v.ItemID = it.ID
		rep.Items = append(rep.Items, v)

		s := &rep.Summary
		s.Total++
		if v.Accurate {
			s.AccurateCount++
		}
		switch {
		case v.Variance > 0:
			s.OverrunCount++
		case v.Variance < 0:
			s.UnderrunCount++
		}
		s.TotalEstimatedHours += v.EstimatedHours
		s.TotalActualHours += v.ActualHours
	}

	s := &rep.Summary
	s.AccuracyRate = percentOf(s.AccurateCount, s.Total)
	overall := Variance(s.TotalEstimatedHours, s.TotalActualHours, tolerancePct)
	s.TotalVariance = overall.Variance
	s.OverallVariancePct = overall.VariancePct
	s.OverallEfficiency = overall.EfficiencyPct
	return rep
}
