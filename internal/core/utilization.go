package core

import (
	"math"

	"github.com/valter-silva-au/workpulse/pkg/models"
)

// UtilizationBand is the severity classification of a resource's load.
type UtilizationBand string

const (
	BandAvailable  UtilizationBand = "available"
	BandBusy       UtilizationBand = "busy"
	BandOverloaded UtilizationBand = "overloaded"
)

// UtilizationBands returns the bands from least to most loaded.
func UtilizationBands() []UtilizationBand {
	return []UtilizationBand{BandAvailable, BandBusy, BandOverloaded}
}

// ResourceUtilization is the computed load of one resource.
type ResourceUtilization struct {
	ResourceID     string          `json:"resource_id"`
	Name           string          `json:"name"`
	CapacityHours  float64         `json:"capacity_hours"`
	AllocatedHours float64         `json:"allocated_hours"`
	AvailableHours float64         `json:"available_hours"`
	UtilizationPct float64         `json:"utilization_pct"`
	Band           UtilizationBand `json:"band"`
}

// UtilizationSummary aggregates utilization across resources.
type UtilizationSummary struct {
	BandCounts         map[UtilizationBand]int `json:"band_counts"`
	TotalCapacityHours float64                 `json:"total_capacity_hours"`
	TotalAllocated     float64                 `json:"total_allocated_hours"`
	AverageUtilization float64                 `json:"average_utilization_pct"`
}

// UtilizationReport is the output of ClassifyUtilization.
type UtilizationReport struct {
	Resources []ResourceUtilization `json:"resources"`
	Summary   UtilizationSummary    `json:"summary"`
}

// UtilizationPct returns allocated/capacity*100 capped at capPct. A zero
// capacity yields 0.
func UtilizationPct(allocated, capacity, capPct float64) float64 {
	if capacity <= 0 {
		return 0
	}
	return math.Min(allocated/capacity*100, capPct)
}

// ClassifyBand maps a utilization percentage to a band. It is monotonic in pct.
func ClassifyBand(pct float64, cfg models.ReportConfig) UtilizationBand {
	switch {
	case pct > cfg.OverloadThresholdPct:
		return BandOverloaded
	case pct > cfg.BusyThresholdPct:
		return BandBusy
	default:
		return BandAvailable
	}
}

// Utilization computes the load of a single resource.
func Utilization(r models.Resource, cfg models.ReportConfig) ResourceUtilization {
	pct := UtilizationPct(r.AllocatedHours, r.CapacityHours, cfg.UtilizationCapPct)
	return ResourceUtilization{
		ResourceID:     r.ID,
		Name:           r.Name,
		CapacityHours:  r.CapacityHours,
		AllocatedHours: r.AllocatedHours,
		AvailableHours: math.Max(r.CapacityHours-r.AllocatedHours, 0),
		UtilizationPct: pct,
		Band:           ClassifyBand(pct, cfg),
	}
}

// ClassifyUtilization computes per-resource utilization and a summary in
// which every band is present.
func ClassifyUtilization(resources []models.Resource, cfg models.ReportConfig) UtilizationReport {
	rep := UtilizationReport{
		Resources: make([]ResourceUtilization, 0, len(resources)),
		Summary:   UtilizationSummary{BandCounts: make(map[UtilizationBand]int, 3)},
	}
	for _, b := range UtilizationBands() {
		rep.Summary.BandCounts[b] = 0
	}

	var pctSum float64
	for _, r := range resources {
		u := Utilization(r, cfg)
		rep.Resources = append(rep.Resources, u)
		rep.Summary.BandCounts[u.Band]++
		rep.Summary.TotalCapacityHours += u.CapacityHours
		rep.Summary.TotalAllocated += u.AllocatedHours
		pctSum += u.UtilizationPct
	}
	if len(resources) > 0 {
		rep.Summary.AverageUtilization = pctSum / float64(len(resources))
	}
	return rep
}

// DeriveAllocation returns copies of resources whose allocated hours are the
// remaining estimate of their open work items.
func DeriveAllocation(resources []models.Resource, items []models.WorkItem) []models.Resource {
	remaining := make(map[string]float64)
	for _, it := range items {
		if it.IsDone() || it.AssigneeID == "" {
			continue
		}
		remaining[it.AssigneeID] += math.Max(it.EstimatedHours-it.ActualHours, 0)
	}

	out := make([]models.Resource, len(resources))
	for i, r := range resources {
		r.AllocatedHours = remaining[r.ID]
		out[i] = r
	}
	return out
}
