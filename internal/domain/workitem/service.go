package workitem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/actionplan/internal/domain/account"
	"github.com/rpggio/actionplan/internal/policy"
	"github.com/rpggio/actionplan/internal/repository"
)

// DefaultPageSize is used when a listing does not set a limit.
const DefaultPageSize = 5

// Service handles work item business logic.
type Service struct {
	repo      Repository
	generator *Generator
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new work item service.
func NewService(repo Repository, generator *Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if generator == nil {
		generator = NewGenerator(nil)
	}
	return &Service{repo: repo, generator: generator, logger: logger, now: time.Now}
}

// CreateRequest describes a work item creation request.
type CreateRequest struct {
	Category    Category
	Description string
	Priority    Priority
}

// Create stores a new work item owned by caller. The code is allocated in
// the same transaction as the insert, so a failed insert consumes no
// sequence number.
func (s *Service) Create(ctx context.Context, caller *account.Account, req CreateRequest) (*WorkItem, error) {
	if !caller.IsActive() {
		return nil, account.ErrAccessDenied
	}
	if err := ValidateCreateInput(req); err != nil {
		return nil, err
	}
	priority := req.Priority
	if priority == "" {
		priority = PriorityNormal
	}

	now := s.now()
	item := &WorkItem{
		Category:    req.Category,
		Description: strings.TrimSpace(req.Description),
		Status:      StatusToDo,
		Priority:    priority,
		CreatedBy:   caller.ID,
		CreatedAt:   now.UTC(),
	}
	key := s.generator.Key(req.Category, now)
	if err := s.repo.Insert(ctx, item, key); err != nil {
		return nil, fmt.Errorf("creating work item: %w", err)
	}
	s.logger.Info("work item created", "code", item.Code, "category", item.Category, "created_by", caller.ID)
	return item, nil
}

// Get returns the work item with code, as visible to caller.
func (s *Service) Get(ctx context.Context, caller *account.Account, code string) (*WorkItem, error) {
	scope, err := policy.ScopeFor(policy.KindWorkItem, caller)
	if err != nil {
		return nil, err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInvalidInput
	}
	item, err := s.repo.GetByCode(ctx, scope, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting work item: %w", err)
	}
	return item, nil
}

// List returns one page of work items visible to caller.
func (s *Service) List(ctx context.Context, caller *account.Account, opts ListOptions) (Page, error) {
	scope, err := policy.ScopeFor(policy.KindWorkItem, caller)
	if err != nil {
		return Page{}, err
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultPageSize
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	items, total, err := s.repo.List(ctx, scope, opts)
	if err != nil {
		return Page{}, fmt.Errorf("listing work items: %w", err)
	}
	return Page{Items: items, Total: total, Offset: opts.Offset, Limit: opts.Limit}, nil
}

// Transition moves a work item to a new status. A concurrent change of
// the same item is reported as ErrConflict.
func (s *Service) Transition(ctx context.Context, caller *account.Account, code string, to Status) (*WorkItem, error) {
	if _, err := ParseStatus(string(to)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	item, err := s.Get(ctx, caller, code)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(item.Status, to); err != nil {
		return nil, err
	}

	var completedAt *time.Time
	if to == StatusCompleted {
		now := s.now().UTC()
		completedAt = &now
	}
	if err := s.repo.UpdateStatus(ctx, item.ID, item.Status, to, completedAt); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("updating work item status: %w", err)
	}
	s.logger.Info("work item status changed", "code", item.Code, "from", item.Status, "to", to, "by", caller.ID)
	item.Status = to
	item.CompletedAt = completedAt
	return item, nil
}

// Summarize counts work items visible to caller by status.
func (s *Service) Summarize(ctx context.Context, caller *account.Account) (*Summary, error) {
	scope, err := policy.ScopeFor(policy.KindWorkItem, caller)
	if err != nil {
		return nil, err
	}
	sum, err := s.repo.Summarize(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("summarizing work items: %w", err)
	}
	return sum, nil
}
