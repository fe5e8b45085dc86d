package attachment

import "time"

// MediaKind classifies an uploaded file.
type MediaKind string

const (
	MediaPhoto    MediaKind = "photo"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
)

// ParseMediaKind validates a media kind name.
func ParseMediaKind(s string) (MediaKind, error) {
	switch k := MediaKind(s); k {
	case MediaPhoto, MediaVideo, MediaDocument:
		return k, nil
	}
	return "", ErrInvalidInput
}

// Attachment is file metadata linked to exactly one work item. The file
// itself stays with the transport and is addressed by FileRef.
type Attachment struct {
	ID           int64     `json:"id"`
	WorkItemID   int64     `json:"work_item_id"`
	WorkItemCode string    `json:"work_item_code,omitempty"`
	StoredName   string    `json:"stored_name"`
	OriginalName string    `json:"original_name"`
	MediaKind    MediaKind `json:"media_kind"`
	MimeType     string    `json:"mime_type,omitempty"`
	SizeBytes    int64     `json:"size_bytes"`
	FileRef      string    `json:"file_ref"`
	UploadedBy   int64     `json:"uploaded_by"`
	UploadedAt   time.Time `json:"uploaded_at"`
}
