package router

import (
	"context"

	"github.com/rpggio/actionplan/internal/domain/account"
	"github.com/rpggio/actionplan/internal/domain/activity"
	"github.com/rpggio/actionplan/internal/domain/attachment"
	"github.com/rpggio/actionplan/internal/domain/workitem"
)

// AccountService defines account operations needed by the router.
type AccountService interface {
	Resolve(ctx context.Context, handle string) (*account.Account, error)
	Authorize(ctx context.Context, handle string) (*account.Account, error)
	Register(ctx context.Context, req account.RegisterRequest) (*account.Account, error)
	CountActive(ctx context.Context) (int, error)
}

// WorkItemService defines work item operations needed by the router.
type WorkItemService interface {
	Create(ctx context.Context, caller *account.Account, req workitem.CreateRequest) (*workitem.WorkItem, error)
	Get(ctx context.Context, caller *account.Account, code string) (*workitem.WorkItem, error)
	List(ctx context.Context, caller *account.Account, opts workitem.ListOptions) (workitem.Page, error)
	Transition(ctx context.Context, caller *account.Account, code string, to workitem.Status) (*workitem.WorkItem, error)
	Summarize(ctx context.Context, caller *account.Account) (*workitem.Summary, error)
}

// ActivityService defines activity operations needed by the router.
type ActivityService interface {
	Log(ctx context.Context, caller *account.Account, req activity.LogRequest) (*activity.Record, error)
	List(ctx context.Context, caller *account.Account, opts activity.ListOptions) ([]activity.Record, error)
	Stats(ctx context.Context, caller *account.Account) (*activity.Stats, error)
}

// AttachmentService defines attachment operations needed by the router.
type AttachmentService interface {
	Attach(ctx context.Context, caller *account.Account, req attachment.AttachRequest) (*attachment.Attachment, error)
	ListForWorkItem(ctx context.Context, caller *account.Account, workItemID int64) ([]attachment.Attachment, error)
	Count(ctx context.Context, caller *account.Account) (int, error)
	Limits() attachment.Limits
}

// Services contains all domain services needed by the router.
type Services struct {
	Accounts    AccountService
	WorkItems   WorkItemService
	Activities  ActivityService
	Attachments AttachmentService
}
