package session

import "errors"

var (
	// ErrNoSession indicates the handle has no live flow.
	ErrNoSession = errors.New("no active session")
	// ErrExpired indicates the handle's flow timed out; its values were discarded.
	ErrExpired = errors.New("session expired")
)
