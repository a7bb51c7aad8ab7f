package domain

import (
	"context"
	"time"
)

// Principal is the authenticated identity attached to a session or bearer token.
type Principal struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"displayName"`
	Email       string     `json:"email"`
	Role        Role       `json:"role"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
}

// HasRole reports whether the principal's role satisfies min.
func (p *Principal) HasRole(min Role) bool {
	return p != nil && p.Role.Satisfies(min)
}

type principalContextKey struct{}

// ContextWithPrincipal returns a copy of ctx carrying p. A nil p is stored as-is
// so downstream readers can tell "checked, anonymous" from "never attached".
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the principal attached to ctx, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
