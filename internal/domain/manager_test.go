package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Satisfies(t *testing.T) {
	tests := []struct {
		role     Role
		min      Role
		expected bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleSuperAdmin, RoleAdmin, true},
		{RoleSuperAdmin, RoleSuperAdmin, true},
		{RoleAdmin, RoleSuperAdmin, false},
		{Role("viewer"), RoleAdmin, false},
		{RoleSuperAdmin, Role("viewer"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.min), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.Satisfies(tt.min))
		})
	}
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" SuperAdmin ")
	assert.True(t, ok)
	assert.Equal(t, RoleSuperAdmin, r)

	_, ok = ParseRole("owner")
	assert.False(t, ok)
}

func TestNewManager(t *testing.T) {
	m := NewManager("  Alice ", "Alice@Example.COM", "hash")

	assert.Equal(t, "alice", m.Username)
	assert.Equal(t, "alice@example.com", m.Email)
	assert.Equal(t, RoleAdmin, m.Role)
	assert.True(t, m.CanAuthenticate())
	assert.Equal(t, "alice", m.Name())

	m.DisplayName = "Alice Liddell"
	assert.Equal(t, "Alice Liddell", m.Name())
}

func TestPrincipal_Context(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, PrincipalFromContext(ctx))

	p := &Principal{ID: 1, Username: "root", Role: RoleSuperAdmin}
	ctx = ContextWithPrincipal(ctx, p)
	assert.Same(t, p, PrincipalFromContext(ctx))
	assert.True(t, p.HasRole(RoleAdmin))

	var anonymous *Principal
	assert.False(t, anonymous.HasRole(RoleAdmin))
}
