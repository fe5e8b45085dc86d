// Package mocks provides testify mocks of the domain repositories.
package mocks

import (
	"context"
	"time"

	"github.com/rpggio/actionplan/internal/domain/account"
	"github.com/rpggio/actionplan/internal/domain/activity"
	"github.com/rpggio/actionplan/internal/domain/attachment"
	"github.com/rpggio/actionplan/internal/domain/workitem"
	"github.com/rpggio/actionplan/internal/policy"
	"github.com/stretchr/testify/mock"
)

// AccountRepository is a mock for account.Repository.
type AccountRepository struct {
	mock.Mock
}

func (m *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *AccountRepository) GetByHandle(ctx context.Context, handle string) (*account.Account, error) {
	args := m.Called(ctx, handle)
	if acc, ok := args.Get(0).(*account.Account); ok {
		return acc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AccountRepository) List(ctx context.Context, opts account.ListOptions) ([]account.Account, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]account.Account); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AccountRepository) UpdateStatus(ctx context.Context, id int64, status account.Status, role account.Role) error {
	args := m.Called(ctx, id, status, role)
	return args.Error(0)
}

func (m *AccountRepository) TouchLastActivity(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *AccountRepository) CountByStatus(ctx context.Context, status account.Status) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

// WorkItemRepository is a mock for workitem.Repository.
type WorkItemRepository struct {
	mock.Mock
}

func (m *WorkItemRepository) Insert(ctx context.Context, item *workitem.WorkItem, key workitem.SequenceKey) error {
	args := m.Called(ctx, item, key)
	return args.Error(0)
}

func (m *WorkItemRepository) GetByCode(ctx context.Context, scope policy.Scope, code string) (*workitem.WorkItem, error) {
	args := m.Called(ctx, scope, code)
	if item, ok := args.Get(0).(*workitem.WorkItem); ok {
		return item, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *WorkItemRepository) List(ctx context.Context, scope policy.Scope, opts workitem.ListOptions) ([]workitem.WorkItem, int, error) {
	args := m.Called(ctx, scope, opts)
	if list, ok := args.Get(0).([]workitem.WorkItem); ok {
		return list, args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

func (m *WorkItemRepository) UpdateStatus(ctx context.Context, id int64, from, to workitem.Status, completedAt *time.Time) error {
	args := m.Called(ctx, id, from, to, completedAt)
	return args.Error(0)
}

func (m *WorkItemRepository) Summarize(ctx context.Context, scope policy.Scope) (*workitem.Summary, error) {
	args := m.Called(ctx, scope)
	if sum, ok := args.Get(0).(*workitem.Summary); ok {
		return sum, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, rec *activity.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, scope policy.Scope, opts activity.ListOptions) ([]activity.Record, error) {
	args := m.Called(ctx, scope, opts)
	if list, ok := args.Get(0).([]activity.Record); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) Stats(ctx context.Context, scope policy.Scope, now time.Time) (*activity.Stats, error) {
	args := m.Called(ctx, scope, now)
	if stats, ok := args.Get(0).(*activity.Stats); ok {
		return stats, args.Error(1)
	}
	return nil, args.Error(1)
}

// AttachmentRepository is a mock for attachment.Repository.
type AttachmentRepository struct {
	mock.Mock
}

func (m *AttachmentRepository) Create(ctx context.Context, att *attachment.Attachment) error {
	args := m.Called(ctx, att)
	return args.Error(0)
}

func (m *AttachmentRepository) ListForWorkItem(ctx context.Context, scope policy.Scope, workItemID int64) ([]attachment.Attachment, error) {
	args := m.Called(ctx, scope, workItemID)
	if list, ok := args.Get(0).([]attachment.Attachment); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AttachmentRepository) Count(ctx context.Context, scope policy.Scope) (int, error) {
	args := m.Called(ctx, scope)
	return args.Int(0), args.Error(1)
}
