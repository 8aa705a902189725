package models

import "time"

// TaskStatus represents the current lifecycle state of a work item.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusInReview   TaskStatus = "in_review"
	StatusDone       TaskStatus = "done"
	StatusBlocked    TaskStatus = "blocked"
)

// StatusValues returns the closed set of statuses in board order.
func StatusValues() []TaskStatus {
	return []TaskStatus{StatusTodo, StatusInProgress, StatusInReview, StatusDone, StatusBlocked}
}

// Known reports whether s is one of the closed status values.
func (s TaskStatus) Known() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusInReview, StatusDone, StatusBlocked:
		return true
	}
	return false
}

// Priority represents the urgency level of a work item.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// PriorityValues returns the closed set of priorities, most severe first.
func PriorityValues() []Priority {
	return []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}
}

// Rank orders priorities by severity. Unknown priorities rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	default:
		return 0
	}
}

// Known reports whether p is one of the closed priority values.
func (p Priority) Known() bool {
	return p.Rank() > 0
}

// WorkItem is the canonical, normalized form of a task-like record.
type WorkItem struct {
	ID             string     `yaml:"id" json:"id"`
	Title          string     `yaml:"title" json:"title"`
	Status         TaskStatus `yaml:"status" json:"status"`
	Priority       Priority   `yaml:"priority" json:"priority"`
	AssigneeID     string     `yaml:"assignee_id,omitempty" json:"assignee_id,omitempty"`
	ProjectID      string     `yaml:"project_id,omitempty" json:"project_id,omitempty"`
	StartDate      *time.Time `yaml:"start_date,omitempty" json:"start_date,omitempty"`
	DueDate        *time.Time `yaml:"due_date,omitempty" json:"due_date,omitempty"`
	CreatedAt      *time.Time `yaml:"created_at,omitempty" json:"created_at,omitempty"`
	CompletedAt    *time.Time `yaml:"completed_at,omitempty" json:"completed_at,omitempty"`
	EstimatedHours float64    `yaml:"estimated_hours" json:"estimated_hours"`
	ActualHours    float64    `yaml:"actual_hours" json:"actual_hours"`
	Progress       float64    `yaml:"progress" json:"progress"`
	Tags           []string   `yaml:"tags" json:"tags"`
}

// IsDone reports whether the item has reached the done status.
func (w WorkItem) IsDone() bool {
	return w.Status == StatusDone
}
