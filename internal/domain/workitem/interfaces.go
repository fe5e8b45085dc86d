package workitem

import (
	"context"
	"time"

	"github.com/rpggio/actionplan/internal/policy"
)

// Repository provides persistence operations for work items.
type Repository interface {
	// Insert allocates the next sequence for key, sets item.Code and
	// item.ID, and stores the item in a single transaction.
	Insert(ctx context.Context, item *WorkItem, key SequenceKey) error
	GetByCode(ctx context.Context, scope policy.Scope, code string) (*WorkItem, error)
	List(ctx context.Context, scope policy.Scope, opts ListOptions) ([]WorkItem, int, error)
	// UpdateStatus changes status only if the item is still in from.
	UpdateStatus(ctx context.Context, id int64, from, to Status, completedAt *time.Time) error
	Summarize(ctx context.Context, scope policy.Scope) (*Summary, error)
}
