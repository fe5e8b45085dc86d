// Package repository holds the storage error sentinels shared by every
// persistence implementation, plus testify mocks of the domain repositories.
package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a uniqueness or optimistic concurrency check fails
	ErrConflict = errors.New("conflict: entity already exists or was modified concurrently")

	// ErrForeignKeyViolation is returned when a foreign key constraint fails
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransient is returned when storage is busy or timed out and the
	// operation may succeed if retried
	ErrTransient = errors.New("storage temporarily unavailable")
)
