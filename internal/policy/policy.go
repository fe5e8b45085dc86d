// Package policy decides which rows of each entity kind a caller may read.
// Every repository read of a partitioned kind takes a Scope built here, so
// a listing cannot be issued without a visibility decision.
package policy

import (
	"errors"
	"fmt"

	"github.com/rpggio/actionplan/internal/domain/account"
)

// EntityKind names a partitioned entity.
type EntityKind string

const (
	KindWorkItem   EntityKind = "work_item"
	KindAttachment EntityKind = "attachment"
	KindActivity   EntityKind = "activity"
)

// Mode is the visibility mode of an entity kind.
type Mode int

const (
	// Shared entities are visible to every active account.
	Shared Mode = iota + 1
	// OwnerScoped entities are visible only to the account that owns them.
	OwnerScoped
)

func (m Mode) String() string {
	switch m {
	case Shared:
		return "shared"
	case OwnerScoped:
		return "owner_scoped"
	default:
		return "unknown"
	}
}

var (
	// ErrUnknownKind indicates an entity kind with no declared mode.
	ErrUnknownKind = errors.New("entity kind has no partition mode")
	// ErrUnscoped indicates a read was attempted with a zero or mismatched Scope.
	ErrUnscoped = errors.New("read issued without a partition scope")
	// ErrAccessDenied indicates the caller cannot hold a scope.
	ErrAccessDenied = errors.New("caller is not permitted to read")
)

var modes = map[EntityKind]Mode{
	KindWorkItem:   Shared,
	KindAttachment: Shared,
	KindActivity:   OwnerScoped,
}

// ModeOf returns the declared mode for kind. There is no default.
func ModeOf(kind EntityKind) (Mode, error) {
	m, ok := modes[kind]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return m, nil
}

// Kinds lists every partitioned entity kind.
func Kinds() []EntityKind {
	return []EntityKind{KindWorkItem, KindAttachment, KindActivity}
}

// Scope is the read predicate for one entity kind and caller. The zero
// value is invalid and rejected by every repository read.
type Scope struct {
	kind  EntityKind
	mode  Mode
	owner int64
}

// ScopeFor resolves the scope caller may use to read kind.
func ScopeFor(kind EntityKind, caller *account.Account) (Scope, error) {
	mode, err := ModeOf(kind)
	if err != nil {
		return Scope{}, err
	}
	if !caller.IsActive() || caller.ID == 0 {
		return Scope{}, ErrAccessDenied
	}
	s := Scope{kind: kind, mode: mode}
	if mode == OwnerScoped {
		s.owner = caller.ID
	}
	return s, nil
}

// Kind returns the entity kind the scope was built for.
func (s Scope) Kind() EntityKind { return s.kind }

// Mode returns the visibility mode.
func (s Scope) Mode() Mode { return s.mode }

// Owner returns the owning account ID for owner-scoped reads. ok is false
// for shared scopes.
func (s Scope) Owner() (id int64, ok bool) {
	return s.owner, s.mode == OwnerScoped
}

// Require checks that the scope is valid for kind.
func (s Scope) Require(kind EntityKind) error {
	if s.mode == 0 || s.kind == "" {
		return ErrUnscoped
	}
	if s.kind != kind {
		return fmt.Errorf("%w: scope for %s used to read %s", ErrUnscoped, s.kind, kind)
	}
	return nil
}

// Permits reports whether a row owned by ownerID is visible in the scope.
func (s Scope) Permits(ownerID int64) bool {
	switch s.mode {
	case Shared:
		return true
	case OwnerScoped:
		return s.owner != 0 && s.owner == ownerID
	default:
		return false
	}
}
