package attachment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/actionplan/internal/domain/account"
	"github.com/rpggio/actionplan/internal/domain/workitem"
	"github.com/rpggio/actionplan/internal/policy"
)

// WorkItemLookup resolves the work item an upload is linked to.
type WorkItemLookup interface {
	Get(ctx context.Context, caller *account.Account, code string) (*workitem.WorkItem, error)
}

// Service validates uploads and records attachment metadata.
type Service struct {
	repo      Repository
	workItems WorkItemLookup
	limits    Limits
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new attachment service.
func NewService(repo Repository, workItems WorkItemLookup, limits Limits, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, workItems: workItems, limits: limits, logger: logger, now: time.Now}
}

// Limits returns the configured upload limits.
func (s *Service) Limits() Limits {
	return s.limits
}

// AttachRequest describes an uploaded file to link to a work item.
type AttachRequest struct {
	WorkItemCode string
	OriginalName string
	MediaKind    MediaKind
	MimeType     string
	SizeBytes    int64
	FileRef      string
}

// Attach validates the upload and links it to the work item.
func (s *Service) Attach(ctx context.Context, caller *account.Account, req AttachRequest) (*Attachment, error) {
	if !caller.IsActive() {
		return nil, account.ErrAccessDenied
	}
	if strings.TrimSpace(req.FileRef) == "" {
		return nil, fmt.Errorf("%w: missing file reference", ErrInvalidInput)
	}
	if _, err := ParseMediaKind(string(req.MediaKind)); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	name := strings.TrimSpace(req.OriginalName)
	if name == "" {
		name = defaultName(req.MediaKind, now)
	}
	if err := s.limits.Validate(name, req.SizeBytes); err != nil {
		return nil, err
	}

	item, err := s.workItems.Get(ctx, caller, req.WorkItemCode)
	if err != nil {
		return nil, err
	}

	att := &Attachment{
		WorkItemID:   item.ID,
		WorkItemCode: item.Code,
		StoredName:   fmt.Sprintf("%s_%s.%s", item.Code, uuid.NewString(), Extension(name)),
		OriginalName: name,
		MediaKind:    req.MediaKind,
		MimeType:     req.MimeType,
		SizeBytes:    req.SizeBytes,
		FileRef:      req.FileRef,
		UploadedBy:   caller.ID,
		UploadedAt:   now,
	}
	if err := s.repo.Create(ctx, att); err != nil {
		return nil, fmt.Errorf("creating attachment: %w", err)
	}
	s.logger.Info("attachment stored", "work_item", item.Code, "stored_name", att.StoredName, "size", att.SizeBytes)
	return att, nil
}

// ListForWorkItem returns the attachments of a work item.
func (s *Service) ListForWorkItem(ctx context.Context, caller *account.Account, workItemID int64) ([]Attachment, error) {
	scope, err := policy.ScopeFor(policy.KindAttachment, caller)
	if err != nil {
		return nil, err
	}
	atts, err := s.repo.ListForWorkItem(ctx, scope, workItemID)
	if err != nil {
		return nil, fmt.Errorf("listing attachments: %w", err)
	}
	return atts, nil
}

// Count returns the number of attachments visible to caller.
func (s *Service) Count(ctx context.Context, caller *account.Account) (int, error) {
	scope, err := policy.ScopeFor(policy.KindAttachment, caller)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.Count(ctx, scope)
	if err != nil {
		return 0, fmt.Errorf("counting attachments: %w", err)
	}
	return n, nil
}

// defaultName names uploads that arrive without a file name, as photos
// and recorded videos usually do.
func defaultName(kind MediaKind, t time.Time) string {
	stamp := t.Format("20060102_150405")
	switch kind {
	case MediaPhoto:
		return "photo_" + stamp + ".jpg"
	case MediaVideo:
		return "video_" + stamp + ".mp4"
	default:
		return "file_" + stamp
	}
}
