package domain

import (
	"strings"
	"time"
)

// Role is one of the closed set of privilege tiers.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
	RoleViewer   Role = "viewer"
)

// DefaultRole is assigned when a creation request does not name one.
const DefaultRole = RoleEmployee

// MinPasswordLength is the shortest credential accepted on creation or change.
const MinPasswordLength = 6

// ParseRole validates s against the role enumeration.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleManager, RoleEmployee, RoleViewer:
		return r, true
	default:
		return "", false
	}
}

// IsAdmin reports whether r is the highest-privilege role.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// Account models a system user. PasswordHash is never serialised.
type Account struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	Role         Role          `json:"role"`
	Active       bool          `json:"is_active"`
	Phone        string        `json:"phone,omitempty"`
	Department   string        `json:"department,omitempty"`
	Position     string        `json:"position,omitempty"`
	LastLogin    *time.Time    `json:"last_login,omitempty"`
	Permissions  PermissionSet `json:"permissions"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NormalizeEmail trims and lowercases an address so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetRole assigns r and recomputes the permission set from the matrix.
func (a *Account) SetRole(r Role) {
	a.Role = r
	a.Permissions = PermissionsFor(r)
}
