package core

import (
	"time"

	"github.com/valter-silva-au/workpulse/pkg/models"
)

// day is the length of a calendar day used by all day arithmetic.
const day = 24 * time.Hour

const secondsPerDay = int64(day / time.Second)

// daysBetween returns ceil((to - from) / 24h). It works on Unix seconds
// because time.Time.Sub saturates after about 292 years.
func daysBetween(from, to time.Time) int {
	secs := to.Unix() - from.Unix()
	nanos := to.Nanosecond() - from.Nanosecond()
	days := secs / secondsPerDay
	rem := secs % secondsPerDay
	if rem > 0 || (rem == 0 && nanos > 0) {
		days++
	}
	return int(days)
}

// fractionalDays returns (to - from) in days without Duration saturation.
func fractionalDays(from, to time.Time) float64 {
	secs := to.Unix() - from.Unix()
	nanos := to.Nanosecond() - from.Nanosecond()
	return (float64(secs) + float64(nanos)/1e9) / float64(secondsPerDay)
}

// IsOverdue reports whether due has passed and the item is not done.
// An absent due date is never overdue.
func IsOverdue(due *time.Time, now time.Time, status models.TaskStatus) bool {
	if due == nil {
		return false
	}
	return due.Before(now) && status != models.StatusDone
}

// IsDueSoon reports whether due falls in (now, now+thresholdDays].
func IsDueSoon(due *time.Time, now time.Time, thresholdDays int) bool {
	if due == nil {
		return false
	}
	limit := now.Add(time.Duration(thresholdDays) * day)
	return due.After(now) && !due.After(limit)
}

// DaysUntilDue returns ceil((due - now) / day), or nil when due is absent.
func DaysUntilDue(due *time.Time, now time.Time) *int {
	if due == nil {
		return nil
	}
	d := daysBetween(now, *due)
	return &d
}

// TemporalFlags holds the urgency flags computed for one work item.
type TemporalFlags struct {
	ItemID       string `json:"item_id"`
	Overdue      bool   `json:"overdue"`
	DueSoon      bool   `json:"due_soon"`
	DaysUntilDue *int   `json:"days_until_due"`
}

// TemporalSummary counts urgency flags across a record set.
type TemporalSummary struct {
	OverdueCount   int `json:"overdue_count"`
	DueSoonCount   int `json:"due_soon_count"`
	NoDueDateCount int `json:"no_due_date_count"`
}

// TemporalReport is the output of Classify.
type TemporalReport struct {
	Items   []TemporalFlags `json:"items"`
	Summary TemporalSummary `json:"summary"`
}

// Classify computes the urgency flags of every item relative to now.
func Classify(items []models.WorkItem, now time.Time, thresholdDays int) TemporalReport {
	rep := TemporalReport{Items: make([]TemporalFlags, 0, len(items))}
	for _, it := range items {
		flags := TemporalFlags{
			ItemID:       it.ID,
			Overdue:      IsOverdue(it.DueDate, now, it.Status),
			DueSoon:      IsDueSoon(it.DueDate, now, thresholdDays),
			DaysUntilDue: DaysUntilDue(it.DueDate, now),
		}
		if flags.Overdue {
			rep.Summary.OverdueCount++
		}
		if flags.DueSoon {
			rep.Summary.DueSoonCount++
		}
		if it.DueDate == nil {
			rep.Summary.NoDueDateCount++
		}
		rep.Items = append(rep.Items, flags)
	}
	return rep
}
