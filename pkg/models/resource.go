package models

import "time"

// Resource is a person or team with a period capacity, e.g. hours per week.
type Resource struct {
	ID             string  `yaml:"id" json:"id"`
	Name           string  `yaml:"name" json:"name"`
	CapacityHours  float64 `yaml:"capacity_hours" json:"capacity_hours"`
	AllocatedHours float64 `yaml:"allocated_hours" json:"allocated_hours"`
}

// Project groups work items and carries an optional schedule.
type Project struct {
	ID        string     `yaml:"id" json:"id"`
	Name      string     `yaml:"name" json:"name"`
	StartDate *time.Time `yaml:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate   *time.Time `yaml:"end_date,omitempty" json:"end_date,omitempty"`
}
