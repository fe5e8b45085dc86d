package account

import (
	"slices"
	"time"
)

// Status is the approval state of an account.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusRejected Status = "rejected"
)

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusActive, StatusRejected:
		return st, nil
	}
	return "", ErrUnknownStatus
}

// Role is the capability class assigned to an account on approval.
type Role string

const (
	RoleNone       Role = ""
	RoleManager    Role = "manager"
	RoleTechnician Role = "technician"
	RoleCommercial Role = "commercial"
	RoleOther      Role = "other"
)

// ParseRole validates a role name. The empty string is RoleNone.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleNone, RoleManager, RoleTechnician, RoleCommercial, RoleOther:
		return r, nil
	}
	return "", ErrUnknownRole
}

// Account is a person known to the bot.
type Account struct {
	ID             int64      `json:"id"`
	Handle         string     `json:"handle"`
	DisplayName    string     `json:"display_name"`
	Username       string     `json:"username,omitempty"`
	Role           Role       `json:"role"`
	Status         Status     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
}

// IsActive reports whether the account may use authenticated features.
func (a *Account) IsActive() bool {
	return a != nil && a.Status == StatusActive
}

// RoleSet is the set of roles allowed to perform an action. An empty set
// allows any active account.
type RoleSet []Role

// Roles builds a RoleSet.
func Roles(roles ...Role) RoleSet {
	return RoleSet(roles)
}

// Allows reports whether role is in the set.
func (s RoleSet) Allows(role Role) bool {
	if len(s) == 0 {
		return true
	}
	return slices.Contains(s, role)
}

// HasRole reports whether an active account holds one of the allowed roles.
func HasRole(a *Account, allowed RoleSet) bool {
	if !a.IsActive() {
		return false
	}
	return allowed.Allows(a.Role)
}

// RegisterRequest describes a self-registration.
type RegisterRequest struct {
	Handle      string
	DisplayName string
	Username    string
}

// ListOptions filters account listings.
type ListOptions struct {
	Status *Status
}
