package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/valter-silva-au/workpulse/internal/core"
	"github.com/valter-silva-au/workpulse/internal/observability"
)

// Style definitions shared by the report renderer and the dashboard.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	statusInProgress = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	statusDone       = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusBlocked    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusReview     = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	statusTodo       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	severityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	barStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	milestoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	todayStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const timelineTrackWidth = 40

func styleForStatus(status string) lipgloss.Style {
	switch status {
	case "in_progress":
		return statusInProgress
	case "done":
		return statusDone
	case "blocked":
		return statusBlocked
	case "in_review":
		return statusReview
	case "todo":
		return statusTodo
	default:
		return lipgloss.NewStyle()
	}
}

func styleForSeverity(severity observability.AlertSeverity) lipgloss.Style {
	switch severity {
	case observability.SeverityHigh:
		return severityHigh
	case observability.SeverityMedium:
		return severityMedium
	case observability.SeverityLow:
		return severityLow
	default:
		return lipgloss.NewStyle()
	}
}

func styleForBand(band core.UtilizationBand) lipgloss.Style {
	switch band {
	case core.BandOverloaded:
		return statusBlocked
	case core.BandBusy:
		return statusInProgress
	default:
		return statusDone
	}
}

// renderReport renders every section of rep, or only the named one.
func renderReport(rep *core.Report, section string) (string, error) {
	sections := core.ReportSections()
	if section != "" {
		if _, err := rep.Section(section); err != nil {
			return "", err
		}
		sections = []string{strings.ToLower(strings.TrimSpace(section))}
	}

	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, renderSection(rep, s))
	}
	return strings.Join(parts, "\n\n"), nil
}

func renderSection(rep *core.Report, section string) string {
	switch section {
	case core.SectionSummary:
		return renderSummary(rep.Summary())
	case core.SectionStatus:
		return renderBreakdown("By status", rep.ByStatus)
	case core.SectionPriority:
		return renderBreakdown("By priority", rep.ByPriority)
	case core.SectionAssignee:
		return renderBreakdown("By assignee", rep.ByAssignee)
	case core.SectionProject:
		return renderBreakdown("By project", rep.ByProject)
	case core.SectionTemporal:
		return renderTemporal(rep)
	case core.SectionTrend:
		return renderTrend(rep.Trend)
	case core.SectionTimeline:
		return renderTimeline("Timeline", rep.Timeline, timelineTrackWidth)
	case core.SectionProjectTimeline:
		return renderTimeline("Project timeline", rep.ProjectTimeline, timelineTrackWidth)
	case core.SectionUtilization:
		return renderUtilization(rep.Utilization)
	case core.SectionVariance:
		return renderVariance(rep.Variance)
	case core.SectionWarnings:
		return renderWarnings(rep.Warnings)
	}
	return ""
}

func renderSummary(s core.ReportSummary) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Summary"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %-22s %s\n", "Generated:", s.GeneratedAt)
	fmt.Fprintf(&b, "  %-22s %d\n", "Work items:", s.ItemCount)
	fmt.Fprintf(&b, "  %-22s %d (%.1f%%)\n", "Completed:", s.CompletedCount, s.CompletionRate)
	fmt.Fprintf(&b, "  %-22s %d\n", "Overdue:", s.OverdueCount)
	fmt.Fprintf(&b, "  %-22s %d\n", "Due soon:", s.DueSoonCount)
	fmt.Fprintf(&b, "  %-22s %d\n", "Overloaded resources:", s.OverloadedCount)
	fmt.Fprintf(&b, "  %-22s %.1f%%\n", "Avg utilization:", s.AverageUtilization)
	fmt.Fprintf(&b, "  %-22s %.1f%%\n", "Estimate accuracy:", s.AccuracyRate)
	fmt.Fprintf(&b, "  %-22s %d", "Warnings:", s.WarningCount)
	return b.String()
}

func renderBreakdown(title string, bd core.Breakdown) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-16s %6s %6s %7s %9s %9s", "", "count", "done", "rate", "est h", "actual h")))
	for _, g := range bd.Groups {
		line := fmt.Sprintf("  %-16s %6d %6d %6.1f%% %9.1f %9.1f",
			truncate(g.Key, 16), g.Count, g.CompletedCount, g.CompletionRate, g.EstimatedHours, g.ActualHours)
		b.WriteString("\n")
		if bd.Dimension == core.DimensionStatus {
			line = styleForStatus(g.Key).Render(line)
		}
		b.WriteString(line)
	}
	fmt.Fprintf(&b, "\n  %-16s %6d", "total", bd.Total)
	return b.String()
}

func renderTemporal(rep *core.Report) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Due dates"))
	b.WriteString("\n")
	s := rep.Temporal.Summary
	fmt.Fprintf(&b, "  overdue %d  due soon %d  no due date %d", s.OverdueCount, s.DueSoonCount, s.NoDueDateCount)

	titles := make(map[string]string, len(rep.Items))
	for _, it := range rep.Items {
		titles[it.ID] = it.Title
	}
	for _, f := range rep.Temporal.Items {
		if !f.Overdue && !f.DueSoon {
			continue
		}
		label := "due soon"
		style := statusInProgress
		if f.Overdue {
			label = "overdue"
			style = statusBlocked
		}
		days := ""
		if f.DaysUntilDue != nil {
			days = fmt.Sprintf("%+dd", *f.DaysUntilDue)
		}
		b.WriteString("\n")
		b.WriteString(style.Render(fmt.Sprintf("  %-9s %5s  %-10s %s", label, days, truncate(f.ItemID, 10), titles[f.ItemID])))
	}
	return b.String()
}

func renderTrend(series core.TrendSeries) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Trend (per %s)", series.Period)))
	if len(series.Buckets) == 0 {
		b.WriteString("\n  No dated records.")
		return b.String()
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-10s %7s %9s %7s %7s %5s", "period", "created", "completed", "cum.in", "cum.out", "open")))
	for _, bk := range series.Buckets {
		fmt.Fprintf(&b, "\n  %-10s %7d %9d %7d %7d %5d",
			bk.Label, bk.Created, bk.Completed, bk.CumulativeCreated, bk.CumulativeCompleted, bk.Open)
	}
	return b.String()
}

func renderTimeline(title string, lay core.TimelineLayout, width int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(title))
	if len(lay.Bars) == 0 {
		b.WriteString("\n  Nothing scheduled.")
	} else {
		fmt.Fprintf(&b, "\n  %s -> %s (%d days)",
			lay.SpanStart.Format("2006-01-02"), lay.SpanEnd.Format("2006-01-02"), lay.TotalSpanDays)
		for _, bar := range lay.Bars {
			fmt.Fprintf(&b, "\n  %-18s %s", truncate(bar.Label, 18), timelineTrack(bar, lay.TodayFraction, width))
		}
	}
	if len(lay.Unscheduled) > 0 {
		fmt.Fprintf(&b, "\n  %s", dimStyle.Render("unscheduled: "+strings.Join(lay.Unscheduled, ", ")))
	}
	return b.String()
}

// timelineTrack draws one bar as a fixed-width character track.
func timelineTrack(bar core.TimelineBar, today *float64, width int) string {
	cells := make([]string, width)
	for i := range cells {
		cells[i] = dimStyle.Render("·")
	}

	if today != nil {
		if i := fractionCell(*today, width); i >= 0 {
			cells[i] = todayStyle.Render("│")
		}
	}

	start := fractionCell(bar.LeftFraction, width)
	if bar.Milestone {
		cells[start] = milestoneStyle.Render("◆")
	} else {
		n := int(math.Round(bar.WidthFraction * float64(width)))
		if n < 1 {
			n = 1
		}
		for i := start; i < start+n && i < width; i++ {
			cells[i] = barStyle.Render("█")
		}
	}
	return strings.Join(cells, "")
}

func fractionCell(f float64, width int) int {
	i := int(math.Floor(f * float64(width)))
	if i >= width {
		i = width - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func renderUtilization(u core.UtilizationReport) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Utilization"))
	if len(u.Resources) == 0 {
		b.WriteString("\n  No resources.")
		return b.String()
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-16s %8s %8s %8s %7s  %s", "", "capacity", "alloc", "free", "util", "band")))
	for _, r := range u.Resources {
		name := r.Name
		if name == "" {
			name = r.ResourceID
		}
		line := fmt.Sprintf("  %-16s %8.1f %8.1f %8.1f %6.1f%%  %s",
			truncate(name, 16), r.CapacityHours, r.AllocatedHours, r.AvailableHours, r.UtilizationPct, r.Band)
		b.WriteString("\n")
		b.WriteString(styleForBand(r.Band).Render(line))
	}
	s := u.Summary
	fmt.Fprintf(&b, "\n  available %d  busy %d  overloaded %d  avg %.1f%%",
		s.BandCounts[core.BandAvailable], s.BandCounts[core.BandBusy], s.BandCounts[core.BandOverloaded], s.AverageUtilization)
	return b.String()
}

func renderVariance(v core.VarianceReport) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Estimate variance"))
	if len(v.Items) == 0 {
		b.WriteString("\n  No items with effort data.")
		return b.String()
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-10s %7s %7s %8s %8s %6s", "", "est", "actual", "var", "var %", "ok")))
	for _, it := range v.Items {
		ok := "yes"
		style := statusDone
		if !it.Accurate {
			ok = "no"
			style = statusBlocked
		}
		b.WriteString("\n")
		b.WriteString(style.Render(fmt.Sprintf("  %-10s %7.1f %7.1f %+8.1f %+7.1f%% %6s",
			truncate(it.ItemID, 10), it.EstimatedHours, it.ActualHours, it.Variance, it.VariancePct, ok)))
	}
	s := v.Summary
	fmt.Fprintf(&b, "\n  accurate %d/%d (%.1f%%)  overrun %d  underrun %d  overall %+.1f%%",
		s.AccurateCount, s.Total, s.AccuracyRate, s.OverrunCount, s.UnderrunCount, s.OverallVariancePct)
	return b.String()
}

func renderWarnings(ws []core.Warning) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Data warnings"))
	if len(ws) == 0 {
		b.WriteString("\n  None.")
		return b.String()
	}
	for _, w := range ws {
		action := "coerced"
		if w.Skipped {
			action = "skipped"
		}
		ref := fmt.Sprintf("%s[%d]", w.Kind, w.Index)
		if w.RecordID != "" {
			ref += " " + w.RecordID
		}
		if w.Field != "" {
			ref += "." + w.Field
		}
		fmt.Fprintf(&b, "\n  %-8s %s: %s", action, ref, w.Message)
	}
	return b.String()
}

func renderAlerts(alerts []observability.Alert) string {
	if len(alerts) == 0 {
		return "No active alerts."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d active alert(s):\n", len(alerts))
	for _, a := range alerts {
		sev := styleForSeverity(a.Severity).Render(fmt.Sprintf("[%s]", strings.ToUpper(string(a.Severity))))
		fmt.Fprintf(&b, "\n  %s %s", sev, a.Message)
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
