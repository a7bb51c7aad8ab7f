package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/marquee/internal/domain"
)

func TestValidateManager(t *testing.T) {
	tests := []struct {
		name        string
		manager     *domain.Manager
		wantMissing []string
		wantField   string
	}{
		{
			name:    "valid admin",
			manager: domain.NewManager("Test", "test@movie-system.com", "hash"),
		},
		{
			name: "username too short",
			manager: &domain.Manager{
				Username: "ab", Email: "ab@example.com", Role: domain.RoleAdmin,
			},
			wantField: "username",
		},
		{
			name: "bad email",
			manager: &domain.Manager{
				Username: "cashier", Email: "not-an-email", Role: domain.RoleAdmin,
			},
			wantField: "email",
		},
		{
			name: "display name too long",
			manager: &domain.Manager{
				Username: "cashier", Email: "c@example.com", Role: domain.RoleAdmin,
				DisplayName: "123456789012345678901234567890123456789012345678901",
			},
			wantField: "displayName",
		},
		{
			name: "unknown role",
			manager: &domain.Manager{
				Username: "cashier", Email: "c@example.com", Role: "owner",
			},
			wantField: "role",
		},
		{
			name:        "missing username and email",
			manager:     &domain.Manager{Role: domain.RoleAdmin},
			wantMissing: []string{"username", "email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateManager(tt.manager)
			if tt.wantField == "" && tt.wantMissing == nil {
				require.NoError(t, err)
				return
			}

			verr := validationError(t, err)
			if tt.wantField != "" {
				assert.Contains(t, verr.Fields, tt.wantField)
			}
			if tt.wantMissing != nil {
				assert.Equal(t, tt.wantMissing, verr.Missing)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	require.NoError(t, ValidatePassword("test123"))

	verr := validationError(t, ValidatePassword("12345"))
	assert.Contains(t, verr.Fields, "password")

	verr = validationError(t, ValidatePassword(""))
	assert.Equal(t, []string{"password"}, verr.Missing)

	require.NoError(t, ValidatePassword(strings.Repeat("a", MaxPasswordBytes)))

	verr = validationError(t, ValidatePassword(strings.Repeat("a", MaxPasswordBytes+1)))
	assert.Equal(t, "must be at most 72 bytes", verr.Fields["password"])

	// Multi-byte runes count by their encoded length.
	verr = validationError(t, ValidatePassword(strings.Repeat("é", 37)))
	assert.Contains(t, verr.Fields, "password")
}
