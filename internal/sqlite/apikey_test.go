package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/actionplan/internal/domain/account"
	"github.com/rpggio/actionplan/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyRepository_IssueResolve(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewAPIKeyRepository(db)
	insertAccount(t, db, "1001", account.RoleManager)

	token, err := repo.Issue(ctx, "1001", "laptop")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	handle, err := repo.ResolveHandle(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "1001", handle)

	_, err = repo.ResolveHandle(ctx, "nope")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.ErrorIs(t, repo.Add(ctx, "t", "ghost", ""), repository.ErrForeignKeyViolation)
}
