package activity

import (
	"context"
	"time"

	"github.com/rpggio/actionplan/internal/policy"
)

// Repository provides persistence operations for activity records.
type Repository interface {
	Log(ctx context.Context, rec *Record) error
	List(ctx context.Context, scope policy.Scope, opts ListOptions) ([]Record, error)
	Stats(ctx context.Context, scope policy.Scope, now time.Time) (*Stats, error)
}
