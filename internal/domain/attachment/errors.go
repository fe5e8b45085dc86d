package attachment

import "errors"

var (
	// ErrInvalidInput indicates invalid input for attachment operations.
	ErrInvalidInput = errors.New("invalid attachment input")
	// ErrTooLarge indicates the upload exceeds the size limit.
	ErrTooLarge = errors.New("file too large")
	// ErrUnsupportedType indicates a file extension outside the allow list.
	ErrUnsupportedType = errors.New("unsupported file type")
)
