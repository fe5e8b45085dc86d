package account

import "errors"

var (
	// ErrNotFound indicates no account exists for the handle.
	ErrNotFound = errors.New("account not found")
	// ErrAccessDenied indicates the caller is unknown or not active.
	ErrAccessDenied = errors.New("access denied")
	// ErrAlreadyExists indicates the handle is already registered.
	ErrAlreadyExists = errors.New("account already registered")
	// ErrInvalidInput indicates invalid input for account operations.
	ErrInvalidInput = errors.New("invalid account input")
	// ErrUnknownRole indicates a role name outside the fixed set.
	ErrUnknownRole = errors.New("unknown role")
	// ErrUnknownStatus indicates a status name outside the fixed set.
	ErrUnknownStatus = errors.New("unknown account status")
)
