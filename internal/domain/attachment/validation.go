package attachment

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultAllowedTypes are the accepted file extensions.
var DefaultAllowedTypes = []string{"jpg", "jpeg", "png", "heic", "mp4", "mov", "avi", "pdf", "doc", "docx"}

// DefaultMaxSizeBytes is the upload size limit.
const DefaultMaxSizeBytes = 10 * 1024 * 1024

// Limits constrains accepted uploads.
type Limits struct {
	MaxSizeBytes int64
	AllowedTypes []string
}

// DefaultLimits returns the stock upload limits.
func DefaultLimits() Limits {
	return Limits{MaxSizeBytes: DefaultMaxSizeBytes, AllowedTypes: DefaultAllowedTypes}
}

// Extension returns the lowercased extension of name without the dot.
func Extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// Validate checks a file name and size against the limits.
func (l Limits) Validate(name string, size int64) error {
	if size <= 0 {
		return fmt.Errorf("%w: empty file", ErrInvalidInput)
	}
	if l.MaxSizeBytes > 0 && size > l.MaxSizeBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, size, l.MaxSizeBytes)
	}
	ext := Extension(name)
	if ext == "" || !slices.Contains(l.AllowedTypes, ext) {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	return nil
}
