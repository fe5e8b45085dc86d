package account_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/actionplan/internal/domain/account"
	"github.com/rpggio/actionplan/internal/repository"
	"github.com/rpggio/actionplan/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccountService_Authorize(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		acc     *account.Account
		repoErr error
		wantErr error
	}{
		{name: "active", acc: &account.Account{ID: 1, Handle: "h", Status: account.StatusActive, Role: account.RoleTechnician}},
		{name: "pending", acc: &account.Account{ID: 1, Handle: "h", Status: account.StatusPending}, wantErr: account.ErrAccessDenied},
		{name: "rejected", acc: &account.Account{ID: 1, Handle: "h", Status: account.StatusRejected}, wantErr: account.ErrAccessDenied},
		{name: "unknown", repoErr: repository.ErrNotFound, wantErr: account.ErrAccessDenied},
		{name: "storage down", repoErr: repository.ErrTransient, wantErr: repository.ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mocks.AccountRepository{}
			repo.On("GetByHandle", ctx, "h").Return(tt.acc, tt.repoErr)
			repo.On("TouchLastActivity", ctx, int64(1), mock.Anything).Return(nil)

			svc := account.NewService(repo, nil)
			acc, err := svc.Authorize(ctx, "h")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, acc)
				repo.AssertNotCalled(t, "TouchLastActivity", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, acc.LastActivityAt)
		})
	}
}

func TestAccountService_Authorize_TouchFailureIsBestEffort(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.AccountRepository{}
	repo.On("GetByHandle", ctx, "h").Return(&account.Account{ID: 1, Status: account.StatusActive}, nil)
	repo.On("TouchLastActivity", ctx, int64(1), mock.Anything).Return(errors.New("disk full"))

	svc := account.NewService(repo, nil)
	acc, err := svc.Authorize(ctx, "h")
	require.NoError(t, err)
	require.Nil(t, acc.LastActivityAt)
}

func TestAccountService_Register(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.AccountRepository{}
	repo.On("Create", ctx, mock.MatchedBy(func(acc *account.Account) bool {
		return acc.Handle == "42" && acc.Status == account.StatusPending && acc.Role == account.RoleNone && acc.DisplayName == "User_42"
	})).Return(nil).Once()

	svc := account.NewService(repo, nil)
	acc, err := svc.Register(ctx, account.RegisterRequest{Handle: " 42 "})
	require.NoError(t, err)
	require.Equal(t, account.StatusPending, acc.Status)
	repo.AssertExpectations(t)
}

func TestAccountService_Register_Duplicate(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.AccountRepository{}
	repo.On("Create", ctx, mock.Anything).Return(repository.ErrConflict)

	svc := account.NewService(repo, nil)
	_, err := svc.Register(ctx, account.RegisterRequest{Handle: "42", DisplayName: "Ana"})
	require.ErrorIs(t, err, account.ErrAlreadyExists)

	_, err = svc.Register(ctx, account.RegisterRequest{Handle: "  "})
	require.ErrorIs(t, err, account.ErrInvalidInput)
}

func TestAccountService_ApproveReject(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.AccountRepository{}
	pending := &account.Account{ID: 5, Handle: "42", Status: account.StatusPending}
	repo.On("GetByHandle", ctx, "42").Return(pending, nil)
	repo.On("UpdateStatus", ctx, int64(5), account.StatusActive, account.RoleManager).Return(nil)
	repo.On("UpdateStatus", ctx, int64(5), account.StatusRejected, account.RoleManager).Return(nil)

	svc := account.NewService(repo, nil)

	_, err := svc.Approve(ctx, "42", account.Role("admin"))
	require.ErrorIs(t, err, account.ErrUnknownRole)
	_, err = svc.Approve(ctx, "42", account.RoleNone)
	require.ErrorIs(t, err, account.ErrInvalidInput)

	acc, err := svc.Approve(ctx, "42", account.RoleManager)
	require.NoError(t, err)
	require.True(t, acc.IsActive())

	acc, err = svc.Reject(ctx, "42")
	require.NoError(t, err)
	require.Equal(t, account.StatusRejected, acc.Status)
}

func TestHasRole(t *testing.T) {
	tech := &account.Account{Status: account.StatusActive, Role: account.RoleTechnician}
	pending := &account.Account{Status: account.StatusPending, Role: account.RoleTechnician}

	require.True(t, account.HasRole(tech, account.Roles(account.RoleManager, account.RoleTechnician)))
	require.False(t, account.HasRole(tech, account.Roles(account.RoleManager)))
	require.True(t, account.HasRole(tech, nil))
	require.False(t, account.HasRole(pending, nil))
	require.False(t, account.HasRole(nil, nil))
}

func TestParseRoleAndStatus(t *testing.T) {
	r, err := account.ParseRole("commercial")
	require.NoError(t, err)
	require.Equal(t, account.RoleCommercial, r)
	_, err = account.ParseRole("root")
	require.ErrorIs(t, err, account.ErrUnknownRole)

	s, err := account.ParseStatus("rejected")
	require.NoError(t, err)
	require.Equal(t, account.StatusRejected, s)
	_, err = account.ParseStatus("banned")
	require.ErrorIs(t, err, account.ErrUnknownStatus)
}
