package attachment

import (
	"context"

	"github.com/rpggio/actionplan/internal/policy"
)

// Repository provides persistence operations for attachments.
type Repository interface {
	Create(ctx context.Context, att *Attachment) error
	ListForWorkItem(ctx context.Context, scope policy.Scope, workItemID int64) ([]Attachment, error)
	Count(ctx context.Context, scope policy.Scope) (int, error)
}
