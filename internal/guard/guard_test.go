package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prn-tf/marquee/internal/domain"
)

var (
	admin      = &domain.Principal{ID: 1, Username: "test", Role: domain.RoleAdmin}
	superAdmin = &domain.Principal{ID: 2, Username: "root", Role: domain.RoleSuperAdmin}
	stranger   = &domain.Principal{ID: 3, Username: "odd", Role: domain.Role("viewer")}
)

func TestRequireAuthenticated(t *testing.T) {
	out := RequireAuthenticated(Request{Principal: admin, Path: "/admin"})
	assert.Equal(t, Proceed, out.Decision)

	out = RequireAuthenticated(Request{Path: "/admin/movies/create"})
	assert.Equal(t, Redirect, out.Decision)
	assert.Equal(t, LoginPath, out.Target)
	assert.Equal(t, NoticeLoginRequired, out.Notice)
	assert.True(t, out.SaveReturnTo)
}

func TestRequireGuest(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		decision Decision
		target   string
	}{
		{"anonymous proceeds", Request{}, Proceed, ""},
		{"authenticated goes to dashboard", Request{Principal: admin}, Redirect, AdminHomePath},
		{"authenticated resumes saved path", Request{Principal: admin, ReturnTo: "/admin/movies/create"}, Redirect, "/admin/movies/create"},
		{"foreign resume path ignored", Request{Principal: admin, ReturnTo: "//evil.example"}, Redirect, AdminHomePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RequireGuest(tt.req)
			assert.Equal(t, tt.decision, out.Decision)
			assert.Equal(t, tt.target, out.Target)
			if tt.decision == Redirect {
				assert.True(t, out.ClearReturnTo)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name      string
		min       domain.Role
		principal *domain.Principal
		decision  Decision
		target    string
		notice    string
	}{
		{"admin passes admin", domain.RoleAdmin, admin, Proceed, "", ""},
		{"superadmin passes admin", domain.RoleAdmin, superAdmin, Proceed, "", ""},
		{"unknown role fails admin", domain.RoleAdmin, stranger, Redirect, HomePath, NoticeInsufficientRole},
		{"anonymous fails admin", domain.RoleAdmin, nil, Redirect, HomePath, NoticeInsufficientRole},
		{"superadmin passes superadmin", domain.RoleSuperAdmin, superAdmin, Proceed, "", ""},
		{"admin fails superadmin", domain.RoleSuperAdmin, admin, Redirect, AdminHomePath, NoticeSuperAdminRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RequireRole(tt.min)(Request{Principal: tt.principal})
			assert.Equal(t, tt.decision, out.Decision)
			assert.Equal(t, tt.target, out.Target)
			assert.Equal(t, tt.notice, out.Notice)
			if tt.decision != Proceed {
				assert.ErrorIs(t, out.Err, domain.ErrAuthorization)
			}
		})
	}
}

func TestChain(t *testing.T) {
	g := Chain(RequireAuthenticated, RequireRole(domain.RoleSuperAdmin))

	assert.Equal(t, LoginPath, g(Request{}).Target)
	assert.Equal(t, AdminHomePath, g(Request{Principal: admin}).Target)
	assert.Equal(t, Proceed, g(Request{Principal: superAdmin}).Decision)
}

func TestIsLocalPath(t *testing.T) {
	assert.True(t, IsLocalPath("/admin?x=1"))
	assert.False(t, IsLocalPath("https://example.com"))
	assert.False(t, IsLocalPath("//example.com"))
	assert.False(t, IsLocalPath(`/\example.com`))
	assert.False(t, IsLocalPath(""))
}
