// Package domain contains the core business entities for Marquee.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the cinema listing system.
package domain

import (
	"strings"
	"time"
)

// Role is the privilege level of a manager account.
type Role string

const (
	// RoleAdmin may manage the movie catalog.
	RoleAdmin Role = "admin"

	// RoleSuperAdmin may manage the catalog and other manager accounts.
	RoleSuperAdmin Role = "superadmin"
)

// ParseRole folds s to lowercase and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.IsValid()
}

// IsValid returns true if r is one of the known roles.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Satisfies reports whether r grants at least the privileges of min.
// superadmin satisfies admin; admin does not satisfy superadmin.
func (r Role) Satisfies(min Role) bool {
	switch min {
	case RoleAdmin:
		return r == RoleAdmin || r == RoleSuperAdmin
	case RoleSuperAdmin:
		return r == RoleSuperAdmin
	default:
		return false
	}
}

// Manager represents an account allowed into the admin console.
type Manager struct {
	// ID is the unique identifier for the manager (auto-generated).
	ID int64 `json:"id"`

	// Username is the unique login name.
	// Constraints: 3-30 characters, stored lowercase.
	Username string `json:"username" validate:"required,min=3,max=30"`

	// Email is the unique email address, stored lowercase.
	Email string `json:"email" validate:"required,email"`

	// DisplayName is shown in the console instead of the username when set.
	DisplayName string `json:"displayName" validate:"max=50"`

	// PasswordHash is the bcrypt hash of the manager's password.
	// This should never be exposed in any response.
	PasswordHash string `json:"-"`

	// Role is the privilege level.
	Role Role `json:"role" validate:"required,oneof=admin superadmin"`

	// IsActive indicates whether the account may log in.
	IsActive bool `json:"isActive"`

	// LastLogin is the timestamp of the most recent successful login.
	LastLogin *time.Time `json:"lastLogin,omitempty"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the account was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewManager creates a new Manager with default values.
func NewManager(username, email, passwordHash string) *Manager {
	now := time.Now().UTC()
	return &Manager{
		Username:     NormalizeUsername(username),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CanAuthenticate returns true if the manager is allowed to log in.
func (m *Manager) CanAuthenticate() bool {
	return m.IsActive
}

// Name returns the display name, falling back to the username.
func (m *Manager) Name() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Username
}

// NormalizeUsername trims and case-folds a username for storage and lookup.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
