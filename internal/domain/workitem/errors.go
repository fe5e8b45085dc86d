package workitem

import "errors"

var (
	// ErrNotFound indicates the work item doesn't exist.
	ErrNotFound = errors.New("work item not found")
	// ErrInvalidInput indicates invalid input for work item operations.
	ErrInvalidInput = errors.New("invalid work item input")
	// ErrInvalidTransition indicates a disallowed status change.
	ErrInvalidTransition = errors.New("invalid work item status transition")
	// ErrConflict indicates the item changed status concurrently.
	ErrConflict = errors.New("work item modified concurrently")
	// ErrUnknownCategory indicates a category outside the fixed set.
	ErrUnknownCategory = errors.New("unknown work item category")
	// ErrUnknownStatus indicates a status outside the fixed set.
	ErrUnknownStatus = errors.New("unknown work item status")
	// ErrUnknownPriority indicates a priority outside the fixed set.
	ErrUnknownPriority = errors.New("unknown work item priority")
)
