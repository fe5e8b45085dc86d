package activity

import "time"

// ListOptions provides filtering options for listing activity.
type ListOptions struct {
	Since  *time.Time
	Until  *time.Time
	Limit  int
	Offset int
}
