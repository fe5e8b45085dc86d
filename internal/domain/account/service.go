package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/actionplan/internal/repository"
)

// Service resolves, authorizes and manages accounts.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new account service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Resolve returns the account registered for handle.
func (s *Service) Resolve(ctx context.Context, handle string) (*Account, error) {
	acc, err := s.repo.GetByHandle(ctx, handle)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolving account: %w", err)
	}
	return acc, nil
}

// Authorize returns the account for handle if it is active. Unknown,
// pending and rejected accounts get ErrAccessDenied; storage failures are
// returned as-is so callers can tell them apart from a denial.
func (s *Service) Authorize(ctx context.Context, handle string) (*Account, error) {
	acc, err := s.Resolve(ctx, handle)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrAccessDenied
	}
	if err != nil {
		return nil, err
	}
	if !acc.IsActive() {
		return nil, ErrAccessDenied
	}

	now := s.now().UTC()
	if err := s.repo.TouchLastActivity(ctx, acc.ID, now); err != nil {
		s.logger.Warn("failed to update last activity", "handle", handle, "error", err)
	} else {
		acc.LastActivityAt = &now
	}
	return acc, nil
}

// Register creates a pending account. A second registration for the same
// handle returns ErrAlreadyExists and leaves the stored account untouched.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Account, error) {
	handle := strings.TrimSpace(req.Handle)
	if handle == "" {
		return nil, ErrInvalidInput
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name = "User_" + handle
	}

	acc := &Account{
		Handle:      handle,
		DisplayName: name,
		Username:    strings.TrimSpace(req.Username),
		Role:        RoleNone,
		Status:      StatusPending,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, acc); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("registering account: %w", err)
	}
	s.logger.Info("account registered", "handle", handle, "id", acc.ID)
	return acc, nil
}

// Approve activates an account with the given role. It is the
// administrative path and may also reactivate a rejected account.
func (s *Service) Approve(ctx context.Context, handle string, role Role) (*Account, error) {
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	if role == RoleNone {
		return nil, fmt.Errorf("%w: approval requires a role", ErrInvalidInput)
	}
	acc, err := s.Resolve(ctx, handle)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, acc.ID, StatusActive, role); err != nil {
		return nil, fmt.Errorf("approving account: %w", err)
	}
	acc.Status = StatusActive
	acc.Role = role
	s.logger.Info("account approved", "handle", handle, "role", role)
	return acc, nil
}

// Reject marks an account rejected, keeping its role for the record.
func (s *Service) Reject(ctx context.Context, handle string) (*Account, error) {
	acc, err := s.Resolve(ctx, handle)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, acc.ID, StatusRejected, acc.Role); err != nil {
		return nil, fmt.Errorf("rejecting account: %w", err)
	}
	acc.Status = StatusRejected
	s.logger.Info("account rejected", "handle", handle)
	return acc, nil
}

// List returns accounts, optionally filtered by status.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Account, error) {
	if opts.Status != nil {
		if _, err := ParseStatus(string(*opts.Status)); err != nil {
			return nil, err
		}
	}
	accounts, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return accounts, nil
}

// CountActive returns the number of active accounts.
func (s *Service) CountActive(ctx context.Context) (int, error) {
	n, err := s.repo.CountByStatus(ctx, StatusActive)
	if err != nil {
		return 0, fmt.Errorf("counting accounts: %w", err)
	}
	return n, nil
}
