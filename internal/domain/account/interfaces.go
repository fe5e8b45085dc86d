package account

import (
	"context"
	"time"
)

// Repository provides persistence operations for accounts.
type Repository interface {
	Create(ctx context.Context, acc *Account) error
	GetByHandle(ctx context.Context, handle string) (*Account, error)
	List(ctx context.Context, opts ListOptions) ([]Account, error)
	UpdateStatus(ctx context.Context, id int64, status Status, role Role) error
	TouchLastActivity(ctx context.Context, id int64, at time.Time) error
	CountByStatus(ctx context.Context, status Status) (int, error)
}
