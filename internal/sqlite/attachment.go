package sqlite

import (
	"context"
	"fmt"

	"github.com/rpggio/actionplan/internal/domain/attachment"
	"github.com/rpggio/actionplan/internal/policy"
)

// AttachmentRepository implements attachment.Repository for SQLite
type AttachmentRepository struct {
	db *DB
}

// NewAttachmentRepository creates a new AttachmentRepository
func NewAttachmentRepository(db *DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Create inserts attachment metadata
func (r *AttachmentRepository) Create(ctx context.Context, att *attachment.Attachment) error {
	query := `
		INSERT INTO attachments (
			work_item_id, stored_name, original_name, media_kind, mime_type,
			size_bytes, file_ref, uploaded_by, uploaded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var id int64
	err := r.db.withRetry(ctx, func() error {
		res, err := r.db.ExecContext(ctx, query,
			att.WorkItemID,
			att.StoredName,
			att.OriginalName,
			string(att.MediaKind),
			att.MimeType,
			att.SizeBytes,
			att.FileRef,
			att.UploadedBy,
			att.UploadedAt,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return mapError("create attachment", err)
	}

	att.ID = id
	return nil
}

// ListForWorkItem returns a work item's attachments, oldest first
func (r *AttachmentRepository) ListForWorkItem(ctx context.Context, scope policy.Scope, workItemID int64) ([]attachment.Attachment, error) {
	if err := scope.Require(policy.KindAttachment); err != nil {
		return nil, err
	}

	query := `
		SELECT a.id, a.work_item_id, w.code, a.stored_name, a.original_name, a.media_kind,
			a.mime_type, a.size_bytes, a.file_ref, a.uploaded_by, a.uploaded_at
		FROM attachments a
		JOIN work_items w ON w.id = a.work_item_id
		WHERE a.work_item_id = ?
		ORDER BY a.uploaded_at ASC, a.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, workItemID)
	if err != nil {
		return nil, mapError("list attachments", err)
	}
	defer rows.Close()

	atts := []attachment.Attachment{}
	for rows.Next() {
		var (
			att  attachment.Attachment
			kind string
		)
		err := rows.Scan(
			&att.ID,
			&att.WorkItemID,
			&att.WorkItemCode,
			&att.StoredName,
			&att.OriginalName,
			&kind,
			&att.MimeType,
			&att.SizeBytes,
			&att.FileRef,
			&att.UploadedBy,
			&att.UploadedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		if !scope.Permits(att.UploadedBy) {
			continue
		}
		att.MediaKind = attachment.MediaKind(kind)
		atts = append(atts, att)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate attachments", err)
	}
	return atts, nil
}

// Count returns the number of attachments in scope
func (r *AttachmentRepository) Count(ctx context.Context, scope policy.Scope) (int, error) {
	if err := scope.Require(policy.KindAttachment); err != nil {
		return 0, err
	}
	query := `SELECT COUNT(*) FROM attachments`
	var args []any
	if owner, ok := scope.Owner(); ok {
		query += ` WHERE uploaded_by = ?`
		args = append(args, owner)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapError("count attachments", err)
	}
	return n, nil
}
