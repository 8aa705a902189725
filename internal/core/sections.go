package core

import (
	"fmt"
	"strings"
)

// Report section names accepted by Report.Section.
const (
	SectionSummary         = "summary"
	SectionStatus          = "status"
	SectionPriority        = "priority"
	SectionAssignee        = "assignee"
	SectionProject         = "project"
	SectionTemporal        = "temporal"
	SectionTrend           = "trend"
	SectionTimeline        = "timeline"
	SectionProjectTimeline = "project_timeline"
	SectionUtilization     = "utilization"
	SectionVariance        = "variance"
	SectionWarnings        = "warnings"
)

// ReportSections lists every section name in display order.
func ReportSections() []string {
	return []string{
		SectionSummary, SectionStatus, SectionPriority, SectionAssignee, SectionProject,
		SectionTemporal, SectionTrend, SectionTimeline, SectionProjectTimeline,
		SectionUtilization, SectionVariance, SectionWarnings,
	}
}

// ReportSummary is the headline view of a report.
type ReportSummary struct {
	GeneratedAt        string  `json:"generated_at"`
	ItemCount          int     `json:"item_count"`
	CompletedCount     int     `json:"completed_count"`
	CompletionRate     float64 `json:"completion_rate"`
	OverdueCount       int     `json:"overdue_count"`
	DueSoonCount       int     `json:"due_soon_count"`
	OverloadedCount    int     `json:"overloaded_count"`
	AccuracyRate       float64 `json:"accuracy_rate"`
	AverageUtilization float64 `json:"average_utilization_pct"`
	WarningCount       int     `json:"warning_count"`
}

// Summary returns the headline numbers of the report.
func (r *Report) Summary() ReportSummary {
	done, _ := r.ByStatus.Group("done")
	return ReportSummary{
		GeneratedAt:        r.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		ItemCount:          r.ItemCount,
		CompletedCount:     done.Count,
		CompletionRate:     percentOf(done.Count, r.ItemCount),
		OverdueCount:       r.Temporal.Summary.OverdueCount,
		DueSoonCount:       r.Temporal.Summary.DueSoonCount,
		OverloadedCount:    r.Utilization.Summary.BandCounts[BandOverloaded],
		AccuracyRate:       r.Variance.Summary.AccuracyRate,
		AverageUtilization: r.Utilization.Summary.AverageUtilization,
		WarningCount:       len(r.Warnings),
	}
}

// Section returns one named part of the report. Names are case-insensitive.
func (r *Report) Section(name string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case SectionSummary:
		return r.Summary(), nil
	case SectionStatus:
		return r.ByStatus, nil
	case SectionPriority:
		return r.ByPriority, nil
	case SectionAssignee:
		return r.ByAssignee, nil
	case SectionProject:
		return r.ByProject, nil
	case SectionTemporal:
		return r.Temporal, nil
	case SectionTrend:
		return r.Trend, nil
	case SectionTimeline:
		return r.Timeline, nil
	case SectionProjectTimeline:
		return r.ProjectTimeline, nil
	case SectionUtilization:
		return r.Utilization, nil
	case SectionVariance:
		return r.Variance, nil
	case SectionWarnings:
		return r.Warnings, nil
	}
	return nil, fmt.Errorf("unknown report section %q (use one of %s)", name, strings.Join(ReportSections(), ", "))
}
