package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/rpggio/actionplan/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	require.NoError(t, mapError("x", nil))
	require.ErrorIs(t, mapError("x", sql.ErrNoRows), repository.ErrNotFound)
	require.ErrorIs(t, mapError("x", errors.New("UNIQUE constraint failed: accounts.handle")), repository.ErrConflict)
	require.ErrorIs(t, mapError("x", errors.New("FOREIGN KEY constraint failed")), repository.ErrForeignKeyViolation)
	require.ErrorIs(t, mapError("x", errors.New("CHECK constraint failed: category IN (...)")), repository.ErrInvalidInput)
	require.ErrorIs(t, mapError("x", errors.New("database is locked (5) (SQLITE_BUSY)")), repository.ErrTransient)
	require.ErrorIs(t, mapError("x", fmt.Errorf("query: %w", context.DeadlineExceeded)), repository.ErrTransient)

	err := mapError("x", errors.New("boom"))
	require.Error(t, err)
	require.False(t, errors.Is(err, repository.ErrTransient))
}

func TestWithRetry_StopsOnPermanentError(t *testing.T) {
	db := NewTestDB(t)
	calls := 0
	err := db.withRetry(context.Background(), func() error {
		calls++
		return errors.New("syntax error")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestWithRetry_RetriesBusy(t *testing.T) {
	db := NewTestDB(t)
	calls := 0
	err := db.withRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}
