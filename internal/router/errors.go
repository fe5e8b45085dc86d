package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rpggio/actionplan/internal/domain/account"
	"github.com/rpggio/actionplan/internal/domain/activity"
	"github.com/rpggio/actionplan/internal/domain/attachment"
	"github.com/rpggio/actionplan/internal/domain/session"
	"github.com/rpggio/actionplan/internal/domain/workitem"
	"github.com/rpggio/actionplan/internal/policy"
	"github.com/rpggio/actionplan/internal/repository"
)

// Class is the user-facing category of a failure.
type Class int

const (
	Unexpected Class = iota
	AccessDenied
	ValidationFailed
	NotFound
	Conflict
	TransientStorageFailure
)

func (c Class) String() string {
	switch c {
	case AccessDenied:
		return "access_denied"
	case ValidationFailed:
		return "validation_failed"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case TransientStorageFailure:
		return "transient"
	default:
		return "unexpected"
	}
}

// errInvalidInput marks step input the router itself rejected.
var errInvalidInput = errors.New("invalid input")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidInput, fmt.Sprintf(format, args...))
}

var classes = []struct {
	class Class
	errs  []error
}{
	{AccessDenied, []error{account.ErrAccessDenied, policy.ErrAccessDenied}},
	{TransientStorageFailure, []error{repository.ErrTransient, context.DeadlineExceeded, context.Canceled}},
	{NotFound, []error{account.ErrNotFound, workitem.ErrNotFound, repository.ErrNotFound}},
	{Conflict, []error{account.ErrAlreadyExists, workitem.ErrConflict, repository.ErrConflict}},
	{ValidationFailed, []error{
		errInvalidInput,
		account.ErrInvalidInput, account.ErrUnknownRole, account.ErrUnknownStatus,
		workitem.ErrInvalidInput, workitem.ErrInvalidTransition,
		workitem.ErrUnknownCategory, workitem.ErrUnknownStatus, workitem.ErrUnknownPriority,
		activity.ErrInvalidInput, activity.ErrUnknownCategory,
		attachment.ErrInvalidInput, attachment.ErrTooLarge, attachment.ErrUnsupportedType,
		repository.ErrInvalidInput,
	}},
}

// Classify maps an error from any layer to its Class. Anything not
// recognized is Unexpected.
func Classify(err error) Class {
	if err == nil {
		return Unexpected
	}
	for _, c := range classes {
		for _, target := range c.errs {
			if errors.Is(err, target) {
				return c.class
			}
		}
	}
	return Unexpected
}

// fail answers a failed operation. st is the caller's flow when the
// failure happened inside one; it is kept on transient and unexpected
// failures so a retry resumes at the same step.
func (r *Router) fail(ctx context.Context, req *request, st *session.State, err error) outcome {
	switch Classify(err) {
	case AccessDenied:
		r.reply(ctx, req.handle, msgAccessDenied, registerKeyboard())
		return outcomeDenied

	case ValidationFailed:
		r.reply(ctx, req.handle, "⚠️ "+reason(err), nil)
		if st != nil {
			r.prompt(ctx, req, st)
		}
		return outcomeInvalid

	case NotFound:
		if st != nil {
			r.sessions.End(req.handle)
		}
		r.reply(ctx, req.handle, msgNotFound, nil)
		return outcomeNotFound

	case Conflict:
		r.reply(ctx, req.handle, msgConflict, nil)
		return outcomeConflict

	case TransientStorageFailure:
		r.logger.Warn("transient failure", "handle", req.handle, "flow", flowOf(st), "error", err)
		if st != nil {
			r.sessions.Save(st)
		}
		r.reply(ctx, req.handle, msgRetry, nil)
		return outcomeTransient

	default:
		r.logger.Error("unexpected failure", "handle", req.handle, "flow", flowOf(st), "kind", req.ev.Kind().String(), "error", err)
		if st != nil {
			r.sessions.Save(st)
		}
		r.reply(ctx, req.handle, msgGenericError, nil)
		return outcomeError
	}
}

func flowOf(st *session.State) string {
	if st == nil {
		return ""
	}
	return string(st.Flow)
}

// reason extracts the human part of a validation error, dropping the
// sentinel prefix.
func reason(err error) string {
	switch {
	case errors.Is(err, attachment.ErrTooLarge):
		return "That file is too large."
	case errors.Is(err, attachment.ErrUnsupportedType):
		return "That file type is not supported."
	case errors.Is(err, workitem.ErrInvalidTransition):
		return "That status change is not allowed."
	}
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	return capitalize(msg)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
