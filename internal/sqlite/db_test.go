package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpggio/actionplan/internal/domain/account"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates an in-memory database with migrations applied
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:", Options{})
	require.NoError(t, err, "failed to create test database")

	err = db.Migrate()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// NewFileTestDB creates a migrated database file in a temp dir, for tests
// that need several connections.
func NewFileTestDB(t *testing.T) (*DB, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "actionplan.db")
	db, err := New(path, Options{})
	require.NoError(t, err, "failed to create test database")
	require.NoError(t, db.Migrate(), "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db, path
}

func insertAccount(t *testing.T, db *DB, handle string, role account.Role) *account.Account {
	t.Helper()
	acc := &account.Account{
		Handle:      handle,
		DisplayName: "User " + handle,
		Role:        role,
		Status:      account.StatusActive,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, NewAccountRepository(db).Create(context.Background(), acc))
	return acc
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"accounts",
		"work_items",
		"code_sequences",
		"activity_records",
		"attachments",
		"api_keys",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}

	version, dirty, err := db.SchemaVersion()
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(1), version)

	// Re-running is a no-op.
	require.NoError(t, db.Migrate())
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

func TestHealthCheck(t *testing.T) {
	db := NewTestDB(t)
	require.NoError(t, db.HealthCheck(context.Background()))

	require.NoError(t, db.Close())
	require.Error(t, db.HealthCheck(context.Background()))
}

func TestDataSourceName(t *testing.T) {
	dsn := dataSourceName(":memory:", true, 2*time.Second)
	require.Contains(t, dsn, "file::memory:?")
	require.Contains(t, dsn, "busy_timeout%282000%29")
	require.Contains(t, dsn, "_txlock=immediate")
	require.NotContains(t, dsn, "journal_mode")

	dsn = dataSourceName("/tmp/x.db", false, time.Second)
	require.Contains(t, dsn, "file:/tmp/x.db?")
	require.Contains(t, dsn, "journal_mode%28WAL%29")
}
