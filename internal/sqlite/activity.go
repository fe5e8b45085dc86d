package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/actionplan/internal/domain/activity"
	"github.com/rpggio/actionplan/internal/policy"
)

// ActivityRepository implements activity.Repository for SQLite. Every read
// is filtered by the owner carried in the scope.
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log inserts an activity record
func (r *ActivityRepository) Log(ctx context.Context, rec *activity.Record) error {
	query := `
		INSERT INTO activity_records (
			owner_id, category, description, started_at, ended_at,
			duration_minutes, work_item_id, billable, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var id int64
	err := r.db.withRetry(ctx, func() error {
		res, err := r.db.ExecContext(ctx, query,
			rec.OwnerID,
			string(rec.Category),
			rec.Description,
			rec.StartedAt,
			rec.EndedAt,
			rec.DurationMinutes,
			rec.WorkItemID,
			rec.Billable,
			rec.CreatedAt,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return mapError("log activity", err)
	}

	rec.ID = id
	return nil
}

func ownerOf(scope policy.Scope) (int64, error) {
	if err := scope.Require(policy.KindActivity); err != nil {
		return 0, err
	}
	owner, ok := scope.Owner()
	if !ok || owner == 0 {
		return 0, fmt.Errorf("%w: activity reads must be owner scoped", policy.ErrUnscoped)
	}
	return owner, nil
}

// List returns the scope owner's records, newest first
func (r *ActivityRepository) List(ctx context.Context, scope policy.Scope, opts activity.ListOptions) ([]activity.Record, error) {
	owner, err := ownerOf(scope)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT a.id, a.owner_id, a.category, a.description, a.started_at, a.ended_at,
			a.duration_minutes, a.work_item_id, COALESCE(w.code, ''), a.billable, a.created_at
		FROM activity_records a
		LEFT JOIN work_items w ON w.id = a.work_item_id
		WHERE a.owner_id = ?
	`
	args := []any{owner}
	if opts.Since != nil {
		query += ` AND a.started_at >= ?`
		args = append(args, opts.Since.UTC())
	}
	if opts.Until != nil {
		query += ` AND a.started_at < ?`
		args = append(args, opts.Until.UTC())
	}
	query += ` ORDER BY a.started_at DESC, a.id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("list activity", err)
	}
	defer rows.Close()

	records := []activity.Record{}
	for rows.Next() {
		var (
			rec        activity.Record
			category   string
			endedAt    sql.NullTime
			duration   sql.NullInt64
			workItemID sql.NullInt64
		)
		err := rows.Scan(
			&rec.ID,
			&rec.OwnerID,
			&category,
			&rec.Description,
			&rec.StartedAt,
			&endedAt,
			&duration,
			&workItemID,
			&rec.WorkItemCode,
			&rec.Billable,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if rec.OwnerID != owner {
			return nil, fmt.Errorf("%w: activity %d belongs to another account", policy.ErrUnscoped, rec.ID)
		}
		rec.Category = activity.Category(category)
		if endedAt.Valid {
			t := endedAt.Time
			rec.EndedAt = &t
		}
		if duration.Valid {
			d := int(duration.Int64)
			rec.DurationMinutes = &d
		}
		if workItemID.Valid {
			id := workItemID.Int64
			rec.WorkItemID = &id
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate activity", err)
	}
	return records, nil
}

// Stats summarizes the scope owner's records relative to now
func (r *ActivityRepository) Stats(ctx context.Context, scope policy.Scope, now time.Time) (*activity.Stats, error) {
	owner, err := ownerOf(scope)
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	weekAgo := now.AddDate(0, 0, -7)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	stats := &activity.Stats{}
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN started_at >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN started_at >= ? THEN duration_minutes ELSE 0 END), 0)
		FROM activity_records
		WHERE owner_id = ?
	`
	err = r.db.QueryRowContext(ctx, query, weekAgo, monthStart, owner).Scan(
		&stats.Total,
		&stats.LastWeek,
		&stats.MonthMinutes,
	)
	if err != nil {
		return nil, mapError("compute activity stats", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT category, COUNT(*) AS n
		FROM activity_records
		WHERE owner_id = ?
		GROUP BY category
		ORDER BY n DESC, category ASC
		LIMIT 3
	`, owner)
	if err != nil {
		return nil, mapError("rank activity categories", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		stats.TopCategories = append(stats.TopCategories, activity.CategoryCount{
			Category: activity.Category(category),
			Count:    n,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate category counts", err)
	}
	return stats, nil
}
