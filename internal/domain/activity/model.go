package activity

import "time"

// Category is the kind of work an activity record describes.
type Category string

const (
	CategoryCustomerVisit     Category = "customer_visit"
	CategoryInstallation      Category = "installation"
	CategoryMaintenance       Category = "maintenance"
	CategoryRepair            Category = "repair"
	CategoryDocumentation     Category = "documentation"
	CategoryEmailWork         Category = "email_work"
	CategoryTravelTime        Category = "travel_time"
	CategoryBreakTime         Category = "break_time"
	CategoryCourierCollection Category = "courier_collection"
	CategoryProjectStudy      Category = "project_study"
	CategoryWorkshopWork      Category = "workshop_work"
)

// Categories returns the categories in menu order.
func Categories() []Category {
	return []Category{
		CategoryCustomerVisit, CategoryInstallation, CategoryMaintenance,
		CategoryRepair, CategoryDocumentation, CategoryEmailWork,
		CategoryTravelTime, CategoryBreakTime, CategoryCourierCollection,
		CategoryProjectStudy, CategoryWorkshopWork,
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

// Billable reports whether time in this category is billed by default.
func (c Category) Billable() bool {
	return c != CategoryTravelTime && c != CategoryBreakTime
}

// Record is one logged stretch of work. Records are private to OwnerID.
type Record struct {
	ID              int64      `json:"id"`
	OwnerID         int64      `json:"owner_id"`
	Category        Category   `json:"category"`
	Description     string     `json:"description"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	WorkItemID      *int64     `json:"work_item_id,omitempty"`
	WorkItemCode    string     `json:"work_item_code,omitempty"`
	Billable        bool       `json:"billable"`
	CreatedAt       time.Time  `json:"created_at"`
}

// CategoryCount is one row of a per-category tally.
type CategoryCount struct {
	Category Category
	Count    int
}

// Stats summarizes one account's activity.
type Stats struct {
	Total         int
	LastWeek      int
	MonthMinutes  int
	TopCategories []CategoryCount
}
