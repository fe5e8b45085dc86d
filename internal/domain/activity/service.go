package activity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rpggio/actionplan/internal/domain/account"
	"github.com/rpggio/actionplan/internal/policy"
)

const (
	MinDescriptionLen = 3
	MaxDescriptionLen = 1000
	// MaxDuration bounds a single record.
	MaxDuration = 24 * time.Hour
)

// Service handles activity log operations. Every read is scoped to the
// caller; there is no way to read another account's records.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// LogRequest describes an activity to record for the caller.
type LogRequest struct {
	Category     Category
	Description  string
	StartedAt    time.Time
	Duration     time.Duration
	WorkItemID   *int64
	WorkItemCode string
}

// ValidateDescription checks a description's trimmed length.
func ValidateDescription(desc string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(desc))
	if n < MinDescriptionLen || n > MaxDescriptionLen {
		return fmt.Errorf("%w: description must be %d to %d characters", ErrInvalidInput, MinDescriptionLen, MaxDescriptionLen)
	}
	return nil
}

// ValidateDuration checks an optional duration. Zero means unknown.
func ValidateDuration(d time.Duration) error {
	if d < 0 || d > MaxDuration {
		return fmt.Errorf("%w: duration must be between 1 minute and %s", ErrInvalidInput, MaxDuration)
	}
	if d > 0 && d < time.Minute {
		return fmt.Errorf("%w: duration must be at least one minute", ErrInvalidInput)
	}
	return nil
}

// Log records an activity owned by caller.
func (s *Service) Log(ctx context.Context, caller *account.Account, req LogRequest) (*Record, error) {
	if !caller.IsActive() {
		return nil, account.ErrAccessDenied
	}
	if _, err := ParseCategory(string(req.Category)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := ValidateDescription(req.Description); err != nil {
		return nil, err
	}
	if err := ValidateDuration(req.Duration); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	started := req.StartedAt
	if started.IsZero() {
		started = now
	}
	rec := &Record{
		OwnerID:      caller.ID,
		Category:     req.Category,
		Description:  strings.TrimSpace(req.Description),
		StartedAt:    started.UTC(),
		WorkItemID:   req.WorkItemID,
		WorkItemCode: req.WorkItemCode,
		Billable:     req.Category.Billable(),
		CreatedAt:    now,
	}
	if req.Duration > 0 {
		minutes := int(req.Duration / time.Minute)
		ended := rec.StartedAt.Add(req.Duration)
		rec.DurationMinutes = &minutes
		rec.EndedAt = &ended
	}

	if err := s.repo.Log(ctx, rec); err != nil {
		return nil, fmt.Errorf("logging activity: %w", err)
	}
	s.logger.Info("activity logged", "owner", caller.ID, "category", rec.Category, "id", rec.ID)
	return rec, nil
}

// List returns the caller's own activity records, newest first.
func (s *Service) List(ctx context.Context, caller *account.Account, opts ListOptions) ([]Record, error) {
	scope, err := policy.ScopeFor(policy.KindActivity, caller)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.List(ctx, scope, opts)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return records, nil
}

// Stats summarizes the caller's own activity.
func (s *Service) Stats(ctx context.Context, caller *account.Account) (*Stats, error) {
	scope, err := policy.ScopeFor(policy.KindActivity, caller)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx, scope, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("computing activity stats: %w", err)
	}
	return stats, nil
}
