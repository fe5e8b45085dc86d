package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/actionplan/internal/domain/account"
	"github.com/rpggio/actionplan/internal/repository"
)

// AccountRepository implements account.Repository for SQLite
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, handle, username, display_name, role, status, created_at, last_activity_at`

// Create inserts a new account. A duplicate handle yields repository.ErrConflict.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (handle, username, display_name, role, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	var id int64
	err := r.db.withRetry(ctx, func() error {
		res, err := r.db.ExecContext(ctx, query,
			acc.Handle,
			acc.Username,
			acc.DisplayName,
			string(acc.Role),
			string(acc.Status),
			acc.CreatedAt,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return mapError("create account", err)
	}

	acc.ID = id
	return nil
}

// GetByHandle retrieves an account by its transport handle
func (r *AccountRepository) GetByHandle(ctx context.Context, handle string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE handle = ?`

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, handle))
	if err != nil {
		return nil, mapError("get account", err)
	}
	return acc, nil
}

// List returns accounts ordered by creation, optionally filtered by status
func (r *AccountRepository) List(ctx context.Context, opts account.ListOptions) ([]account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	var args []any
	if opts.Status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*opts.Status))
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("list accounts", err)
	}
	defer rows.Close()

	var accounts []account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *acc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate accounts", err)
	}
	return accounts, nil
}

// UpdateStatus sets an account's status and role
func (r *AccountRepository) UpdateStatus(ctx context.Context, id int64, status account.Status, role account.Role) error {
	query := `UPDATE accounts SET status = ?, role = ? WHERE id = ?`

	var affected int64
	err := r.db.withRetry(ctx, func() error {
		res, err := r.db.ExecContext(ctx, query, string(status), string(role), id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return mapError("update account status", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// TouchLastActivity records the time of the account's latest request
func (r *AccountRepository) TouchLastActivity(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE accounts SET last_activity_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return mapError("touch account", err)
	}
	return nil
}

// CountByStatus counts accounts in a status
func (r *AccountRepository) CountByStatus(ctx context.Context, status account.Status) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE status = ?`, string(status)).Scan(&n)
	if err != nil {
		return 0, mapError("count accounts", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*account.Account, error) {
	var (
		acc          account.Account
		role, status string
		lastActivity sql.NullTime
	)
	err := row.Scan(
		&acc.ID,
		&acc.Handle,
		&acc.Username,
		&acc.DisplayName,
		&role,
		&status,
		&acc.CreatedAt,
		&lastActivity,
	)
	if err != nil {
		return nil, err
	}
	acc.Role = account.Role(role)
	acc.Status = account.Status(status)
	if lastActivity.Valid {
		t := lastActivity.Time
		acc.LastActivityAt = &t
	}
	return &acc, nil
}
