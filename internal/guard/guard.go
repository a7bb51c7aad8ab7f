// Package guard implements the access-control chain in front of the admin
// console and the JSON write surface. Guards are pure functions of a Request;
// the middleware adapters apply their outcomes to the session and response.
package guard

import (
	"strings"

	"github.com/prn-tf/marquee/internal/domain"
)

// Paths and notices used by the guards.
const (
	LoginPath     = "/auth/login"
	AdminHomePath = "/admin"
	HomePath      = "/"

	NoticeLoginRequired       = "Please log in to the management system first."
	NoticeInsufficientRole    = "Insufficient permissions"
	NoticeSuperAdminRequired  = "Super administrator privileges required"
	NoticeAuthenticationError = "Authentication required"
)

// Decision is the verdict of a guard.
type Decision int

const (
	Proceed Decision = iota
	Redirect
	Deny
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case Redirect:
		return "redirect"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// Request is what a guard may look at.
type Request struct {
	// Principal is the authenticated identity, or nil.
	Principal *domain.Principal

	// Path is the requested path including the query string.
	Path string

	// ReturnTo is the resume path saved in the session.
	ReturnTo string
}

// Outcome is the result of a guard along with the session effects to apply.
type Outcome struct {
	Decision Decision

	// Target is the redirect location.
	Target string

	// Notice is queued in the session's error slot.
	Notice string

	// SaveReturnTo stores Request.Path as the resume path.
	SaveReturnTo bool

	// ClearReturnTo forgets the resume path.
	ClearReturnTo bool

	// Err classifies a Deny.
	Err error
}

// Guard inspects a request and decides whether it may continue.
type Guard func(Request) Outcome

func proceed() Outcome {
	return Outcome{Decision: Proceed}
}

// RequireAuthenticated lets authenticated requests through and sends everyone
// else to the login page, remembering where they were going.
func RequireAuthenticated(req Request) Outcome {
	if req.Principal != nil {
		return proceed()
	}
	return Outcome{
		Decision:     Redirect,
		Target:       LoginPath,
		Notice:       NoticeLoginRequired,
		SaveReturnTo: true,
		Err:          domain.ErrAuthentication,
	}
}

// RequireGuest lets anonymous requests through and sends authenticated ones
// to their resume path or the dashboard.
func RequireGuest(req Request) Outcome {
	if req.Principal == nil {
		return proceed()
	}
	target := AdminHomePath
	if IsLocalPath(req.ReturnTo) {
		target = req.ReturnTo
	}
	return Outcome{
		Decision:      Redirect,
		Target:        target,
		ClearReturnTo: true,
	}
}

// RequireRole lets through principals whose role satisfies min. Callers chain
// it after RequireAuthenticated.
func RequireRole(min domain.Role) Guard {
	target, notice := HomePath, NoticeInsufficientRole
	if min == domain.RoleSuperAdmin {
		target, notice = AdminHomePath, NoticeSuperAdminRequired
	}

	return func(req Request) Outcome {
		if req.Principal.HasRole(min) {
			return proceed()
		}
		return Outcome{
			Decision: Redirect,
			Target:   target,
			Notice:   notice,
			Err:      domain.ErrAuthorization,
		}
	}
}

// Chain runs guards in order and returns the first outcome that does not proceed.
func Chain(guards ...Guard) Guard {
	return func(req Request) Outcome {
		for _, g := range guards {
			if out := g(req); out.Decision != Proceed {
				return out
			}
		}
		return proceed()
	}
}

// IsLocalPath reports whether p is a same-origin absolute path.
func IsLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}
