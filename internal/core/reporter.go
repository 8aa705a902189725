package core

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/valter-silva-au/workpulse/internal/storage"
	"github.com/valter-silva-au/workpulse/pkg/models"
)

// ReportInput carries raw record collections as decoded from a data source.
// Each field must hold a collection ([]any or []map[string]any).
type ReportInput struct {
	WorkItems any
	Resources any
	Projects  any
}

// InputFromRecords adapts a loaded record set into reporter input.
func InputFromRecords(set *storage.RecordSet) ReportInput {
	if set == nil {
		return ReportInput{}
	}
	return ReportInput{
		WorkItems: set.WorkItems,
		Resources: set.Resources,
		Projects:  set.Projects,
	}
}

// Report holds every aggregate derived from one record snapshot.
type Report struct {
	GeneratedAt     time.Time           `json:"generated_at"`
	Config          models.ReportConfig `json:"config"`
	ItemCount       int                 `json:"item_count"`
	ByStatus        Breakdown           `json:"by_status"`
	ByPriority      Breakdown           `json:"by_priority"`
	ByAssignee      Breakdown           `json:"by_assignee"`
	ByProject       Breakdown           `json:"by_project"`
	Temporal        TemporalReport      `json:"temporal"`
	Trend           TrendSeries         `json:"trend"`
	Timeline        TimelineLayout      `json:"timeline"`
	ProjectTimeline TimelineLayout      `json:"project_timeline"`
	Utilization     UtilizationReport   `json:"utilization"`
	Variance        VarianceReport      `json:"variance"`
	Warnings        []Warning           `json:"warnings"`

	// Items are the normalized work items the report was computed from.
	Items []models.WorkItem `json:"-"`
}

// Reporter normalizes raw records and runs every computation over them.
// It holds only immutable configuration and is safe for concurrent use.
type Reporter struct {
	cfg        models.ReportConfig
	normalizer *RecordNormalizer
	logger     zerolog.Logger
}

// NewReporter creates a Reporter with the given thresholds.
func NewReporter(cfg models.ReportConfig, logger zerolog.Logger) *Reporter {
	return &Reporter{
		cfg:        cfg,
		normalizer: NewRecordNormalizer(logger),
		logger:     logger,
	}
}

// Config returns the thresholds the reporter was created with.
func (r *Reporter) Config() models.ReportConfig {
	return r.cfg
}

// Generate builds a complete report as of now. It fails only when an input
// field is not a collection or the configured trend period is invalid;
// messy records are skipped or coerced and reported in Report.Warnings.
func (r *Reporter) Generate(in ReportInput, now time.Time) (*Report, error) {
	period, err := ParsePeriod(r.cfg.TrendPeriod)
	if err != nil {
		return nil, fmt.Errorf("generating report: %w", err)
	}

	items, err := r.normalizer.NormalizeWorkItems(in.WorkItems)
	if err != nil {
		return nil, fmt.Errorf("normalizing work items: %w", err)
	}
	resources, err := r.normalizer.NormalizeResources(in.Resources)
	if err != nil {
		return nil, fmt.Errorf("normalizing resources: %w", err)
	}
	projects, err := r.normalizer.NormalizeProjects(in.Projects)
	if err != nil {
		return nil, fmt.Errorf("normalizing projects: %w", err)
	}

	rep := &Report{
		GeneratedAt: now.UTC(),
		Config:      r.cfg,
		ItemCount:   len(items.Records),
		Items:       items.Records,
		Warnings:    make([]Warning, 0, len(items.Warnings)+len(resources.Warnings)+len(projects.Warnings)),
	}
	rep.Warnings = append(rep.Warnings, items.Warnings...)
	rep.Warnings = append(rep.Warnings, resources.Warnings...)
	rep.Warnings = append(rep.Warnings, projects.Warnings...)

	resourceIDs := make([]string, 0, len(resources.Records))
	for _, res := range resources.Records {
		resourceIDs = append(resourceIDs, res.ID)
	}
	projectIDs := make([]string, 0, len(projects.Records))
	for _, p := range projects.Records {
		projectIDs = append(projectIDs, p.ID)
	}

	// Built-in dimensions cannot fail.
	rep.ByStatus, _ = GroupBy(items.Records, DimensionStatus, nil)
	rep.ByPriority, _ = GroupBy(items.Records, DimensionPriority, nil)
	rep.ByAssignee, _ = GroupBy(items.Records, DimensionAssignee, resourceIDs)
	rep.ByProject, _ = GroupBy(items.Records, DimensionProject, projectIDs)

	rep.Temporal = Classify(items.Records, now, r.cfg.DueSoonThresholdDays)
	if rep.Trend, err = Trend(items.Records, period); err != nil {
		return nil, fmt.Errorf("computing trend: %w", err)
	}
	rep.Timeline = Layout(WorkItemSpans(items.Records), now)
	rep.ProjectTimeline = Layout(ProjectSpans(projects.Records), now)

	loaded := resources.Records
	if r.cfg.DeriveAllocation {
		loaded = DeriveAllocation(loaded, items.Records)
	}
	rep.Utilization = ClassifyUtilization(loaded, r.cfg)
	rep.Variance = AnalyzeVariance(items.Records, r.cfg.VarianceTolerancePct)

	r.logger.Debug().
		Int("items", rep.ItemCount).
		Int("resources", len(resources.Records)).
		Int("projects", len(projects.Records)).
		Int("warnings", len(rep.Warnings)).
		Msg("report generated")

	return rep, nil
}
