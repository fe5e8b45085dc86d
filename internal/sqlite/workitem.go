package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/actionplan/internal/domain/workitem"
	"github.com/rpggio/actionplan/internal/policy"
	"github.com/rpggio/actionplan/internal/repository"
)

// WorkItemRepository implements workitem.Repository for SQLite
type WorkItemRepository struct {
	db *DB
}

// NewWorkItemRepository creates a new WorkItemRepository
func NewWorkItemRepository(db *DB) *WorkItemRepository {
	return &WorkItemRepository{db: db}
}

const workItemColumns = `id, code, category, description, status, priority, created_by, created_at, completed_at`

// nextSequence bumps the (prefix, day) counter inside tx. The upsert is a
// single statement, so two transactions can never read the same value.
func nextSequence(ctx context.Context, tx *sql.Tx, key workitem.SequenceKey) (int64, error) {
	query := `
		INSERT INTO code_sequences (prefix, day, last_seq)
		VALUES (?, ?, 1)
		ON CONFLICT (prefix, day) DO UPDATE SET last_seq = last_seq + 1
		RETURNING last_seq
	`
	var seq int64
	if err := tx.QueryRowContext(ctx, query, key.Prefix, key.Day).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

// Insert allocates a code and stores the item in one transaction, so a
// failed insert rolls the counter back with it.
func (r *WorkItemRepository) Insert(ctx context.Context, item *workitem.WorkItem, key workitem.SequenceKey) error {
	query := `
		INSERT INTO work_items (code, category, description, status, priority, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var (
		id   int64
		code string
	)
	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		seq, err := nextSequence(ctx, tx, key)
		if err != nil {
			return err
		}
		code = workitem.FormatCode(key, seq)

		res, err := tx.ExecContext(ctx, query,
			code,
			string(item.Category),
			item.Description,
			string(item.Status),
			string(item.Priority),
			item.CreatedBy,
			item.CreatedAt,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return mapError("insert work item", err)
	}

	item.ID = id
	item.Code = code
	return nil
}

// GetByCode retrieves a work item by code
func (r *WorkItemRepository) GetByCode(ctx context.Context, scope policy.Scope, code string) (*workitem.WorkItem, error) {
	if err := scope.Require(policy.KindWorkItem); err != nil {
		return nil, err
	}
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE code = ?`

	item, err := scanWorkItem(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		return nil, mapError("get work item", err)
	}
	if !scope.Permits(item.CreatedBy) {
		return nil, repository.ErrNotFound
	}
	return item, nil
}

// List returns one page of work items, newest first, and the total count
func (r *WorkItemRepository) List(ctx context.Context, scope policy.Scope, opts workitem.ListOptions) ([]workitem.WorkItem, int, error) {
	if err := scope.Require(policy.KindWorkItem); err != nil {
		return nil, 0, err
	}

	where := ` WHERE 1=1`
	var args []any
	if owner, ok := scope.Owner(); ok {
		where += ` AND created_by = ?`
		args = append(args, owner)
	}
	if opts.Status != nil {
		where += ` AND status = ?`
		args = append(args, string(*opts.Status))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM work_items`+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError("count work items", err)
	}

	query := `SELECT ` + workItemColumns + ` FROM work_items` + where + ` ORDER BY created_at DESC, id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError("list work items", err)
	}
	defer rows.Close()

	items := []workitem.WorkItem{}
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan work item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError("iterate work items", err)
	}
	return items, total, nil
}

// UpdateStatus changes status if the item is still in from
func (r *WorkItemRepository) UpdateStatus(ctx context.Context, id int64, from, to workitem.Status, completedAt *time.Time) error {
	query := `
		UPDATE work_items
		SET status = ?, completed_at = COALESCE(?, completed_at)
		WHERE id = ? AND status = ?
	`

	var affected int64
	err := r.db.withRetry(ctx, func() error {
		res, err := r.db.ExecContext(ctx, query, string(to), completedAt, id, string(from))
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return mapError("update work item status", err)
	}
	if affected > 0 {
		return nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM work_items WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return mapError("check work item", err)
	}
	if exists == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

// Summarize counts work items by status
func (r *WorkItemRepository) Summarize(ctx context.Context, scope policy.Scope) (*workitem.Summary, error) {
	if err := scope.Require(policy.KindWorkItem); err != nil {
		return nil, err
	}
	query := `SELECT status, COUNT(*) FROM work_items`
	var args []any
	if owner, ok := scope.Owner(); ok {
		query += ` WHERE created_by = ?`
		args = append(args, owner)
	}
	query += ` GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("summarize work items", err)
	}
	defer rows.Close()

	sum := &workitem.Summary{ByStatus: make(map[workitem.Status]int)}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		sum.ByStatus[workitem.Status(status)] = n
		sum.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate status counts", err)
	}
	return sum, nil
}

func scanWorkItem(row rowScanner) (*workitem.WorkItem, error) {
	var (
		item                       workitem.WorkItem
		category, status, priority string
		completedAt                sql.NullTime
	)
	err := row.Scan(
		&item.ID,
		&item.Code,
		&category,
		&item.Description,
		&status,
		&priority,
		&item.CreatedBy,
		&item.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Category = workitem.Category(category)
	item.Status = workitem.Status(status)
	item.Priority = workitem.Priority(priority)
	if completedAt.Valid {
		t := completedAt.Time
		item.CompletedAt = &t
	}
	return &item, nil
}
