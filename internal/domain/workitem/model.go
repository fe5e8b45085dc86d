package workitem

import (
	"time"
)

// Category classifies a work item and selects its code prefix.
type Category string

const (
	CategoryInstallation  Category = "installation"
	CategoryMaintenance   Category = "maintenance"
	CategoryRepair        Category = "repair"
	CategoryInspection    Category = "inspection"
	CategoryCalibration   Category = "calibration"
	CategoryCommissioning Category = "commissioning"
	CategoryTraining      Category = "training"
	CategoryEmergency     Category = "emergency"
	CategoryOther         Category = "other"
)

// Categories returns the categories in menu order.
func Categories() []Category {
	return []Category{
		CategoryInstallation, CategoryMaintenance, CategoryRepair,
		CategoryInspection, CategoryCalibration, CategoryCommissioning,
		CategoryTraining, CategoryEmergency, CategoryOther,
	}
}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", ErrUnknownCategory
}

// Status is the workflow state of a work item.
type Status string

const (
	StatusToDo       Status = "to_do"
	StatusInProgress Status = "in_progress"
	StatusPending    Status = "pending"
	StatusBlocked    Status = "blocked"
	StatusCompleted  Status = "completed"
)

// Statuses returns the statuses in display order.
func Statuses() []Status {
	return []Status{StatusToDo, StatusInProgress, StatusPending, StatusBlocked, StatusCompleted}
}

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrUnknownStatus
}

// Priority ranks a work item.
type Priority string

const (
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities returns the priorities in ascending order.
func Priorities() []Priority {
	return []Priority{PriorityNormal, PriorityHigh, PriorityCritical}
}

// ParsePriority validates a priority name.
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", ErrUnknownPriority
}

// WorkItem is a task tracked by the team. Code is assigned on insert and
// never changes afterwards.
type WorkItem struct {
	ID          int64      `json:"id"`
	Code        string     `json:"code"`
	Category    Category   `json:"category"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	CreatedBy   int64      `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Summary counts work items by status.
type Summary struct {
	Total    int
	ByStatus map[Status]int
}
