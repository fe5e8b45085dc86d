package mcp

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized indicates a missing or unknown bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoHandle indicates a tool call with no chat handle bound.
	ErrNoHandle = errors.New("no chat handle for this connection")
)

// APIError is a tool input error reported back to the client.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalidArgument(msg, hint string) *APIError {
	return &APIError{Code: "INVALID_ARGUMENT", Message: msg, RecoveryHint: hint}
}
