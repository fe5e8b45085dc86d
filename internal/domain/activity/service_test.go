package activity_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/actionplan/internal/domain/account"
	"github.com/rpggio/actionplan/internal/domain/activity"
	"github.com/rpggio/actionplan/internal/policy"
	"github.com/rpggio/actionplan/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var owner = &account.Account{ID: 11, Handle: "h11", Status: account.StatusActive, Role: account.RoleCommercial}

func TestActivityService_Log(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	repo.On("Log", ctx, mock.MatchedBy(func(rec *activity.Record) bool {
		return rec.OwnerID == owner.ID &&
			rec.Billable &&
			rec.DurationMinutes != nil && *rec.DurationMinutes == 90 &&
			rec.EndedAt != nil && rec.EndedAt.Equal(start.Add(90*time.Minute))
	})).Return(nil)

	svc := activity.NewService(repo, nil)
	rec, err := svc.Log(ctx, owner, activity.LogRequest{
		Category:    activity.CategoryCustomerVisit,
		Description: "visit at plant",
		StartedAt:   start,
		Duration:    90 * time.Minute,
	})
	require.NoError(t, err)
	require.Equal(t, owner.ID, rec.OwnerID)
	repo.AssertExpectations(t)
}

func TestActivityService_Log_NonBillableAndDefaults(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	repo.On("Log", ctx, mock.Anything).Return(nil)

	svc := activity.NewService(repo, nil)
	for _, c := range []activity.Category{activity.CategoryTravelTime, activity.CategoryBreakTime} {
		rec, err := svc.Log(ctx, owner, activity.LogRequest{Category: c, Description: "on the road"})
		require.NoError(t, err)
		require.False(t, rec.Billable)
		require.False(t, rec.StartedAt.IsZero())
		require.Nil(t, rec.DurationMinutes)
	}
}

func TestActivityService_Log_Invalid(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	svc := activity.NewService(repo, nil)

	_, err := svc.Log(ctx, owner, activity.LogRequest{Category: "gaming", Description: "valid"})
	require.ErrorIs(t, err, activity.ErrUnknownCategory)
	_, err = svc.Log(ctx, owner, activity.LogRequest{Category: activity.CategoryRepair, Description: "x"})
	require.ErrorIs(t, err, activity.ErrInvalidInput)
	_, err = svc.Log(ctx, owner, activity.LogRequest{Category: activity.CategoryRepair, Description: "valid", Duration: 25 * time.Hour})
	require.ErrorIs(t, err, activity.ErrInvalidInput)
	_, err = svc.Log(ctx, &account.Account{ID: 2, Status: account.StatusRejected}, activity.LogRequest{Category: activity.CategoryRepair, Description: "valid"})
	require.ErrorIs(t, err, account.ErrAccessDenied)

	repo.AssertNotCalled(t, "Log", mock.Anything, mock.Anything)
}

func TestActivityService_ListUsesOwnerScope(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	repo.On("List", ctx, mock.MatchedBy(func(scope policy.Scope) bool {
		id, ok := scope.Owner()
		return ok && id == owner.ID && scope.Kind() == policy.KindActivity
	}), activity.ListOptions{Limit: 5}).Return([]activity.Record{{ID: 1, OwnerID: owner.ID}}, nil)

	svc := activity.NewService(repo, nil)
	records, err := svc.List(ctx, owner, activity.ListOptions{Limit: 5})
	require.NoError(t, err)
	require.Len(t, records, 1)

	_, err = svc.List(ctx, &account.Account{ID: 2, Status: account.StatusPending}, activity.ListOptions{})
	require.ErrorIs(t, err, policy.ErrAccessDenied)
}

func TestActivityService_Stats(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	repo.On("Stats", ctx, mock.Anything, mock.Anything).Return(&activity.Stats{Total: 4}, nil)

	svc := activity.NewService(repo, nil)
	stats, err := svc.Stats(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 4, stats.Total)
}
