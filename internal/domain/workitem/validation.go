package workitem

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MinDescriptionLen = 5
	MaxDescriptionLen = 1000
)

// ValidateDescription checks a description's trimmed length.
func ValidateDescription(desc string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(desc))
	if n < MinDescriptionLen {
		return fmt.Errorf("%w: description must be at least %d characters", ErrInvalidInput, MinDescriptionLen)
	}
	if n > MaxDescriptionLen {
		return fmt.Errorf("%w: description must be at most %d characters", ErrInvalidInput, MaxDescriptionLen)
	}
	return nil
}

// ValidateCreateInput validates fields required to create a work item.
func ValidateCreateInput(req CreateRequest) error {
	if _, err := ParseCategory(string(req.Category)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if req.Priority != "" {
		if _, err := ParsePriority(string(req.Priority)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}
	return ValidateDescription(req.Description)
}

// ValidateTransition validates a requested status change.
func ValidateTransition(from, to Status) error {
	valid := false
	switch from {
	case StatusToDo:
		switch to {
		case StatusInProgress, StatusPending, StatusBlocked:
			valid = true
		}
	case StatusInProgress:
		switch to {
		case StatusPending, StatusBlocked, StatusCompleted:
			valid = true
		}
	case StatusPending, StatusBlocked:
		switch to {
		case StatusInProgress, StatusCompleted:
			valid = true
		}
	}
	if !valid {
		return ErrInvalidTransition
	}
	return nil
}

// NextStatuses lists the statuses reachable from s.
func NextStatuses(s Status) []Status {
	var out []Status
	for _, to := range Statuses() {
		if ValidateTransition(s, to) == nil {
			out = append(out, to)
		}
	}
	return out
}
