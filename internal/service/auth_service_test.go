package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/marquee/internal/config"
	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/lock"
	"github.com/prn-tf/marquee/internal/metrics"
	"github.com/prn-tf/marquee/internal/repository"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newAuthService(t *testing.T) (*AuthService, *MockManagerRepository, *metrics.Metrics) {
	t.Helper()
	repo := NewMockManagerRepository()
	m := metrics.New()
	svc := NewAuthService(repo, lock.NewNoOpLocker(), m, config.AuthConfig{BcryptCost: bcrypt.MinCost}, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, m
}

func createManager(t *testing.T, svc *AuthService, username, password string) *domain.Manager {
	t.Helper()
	manager, err := svc.CreateManager(context.Background(), CreateManagerInput{
		Username: username,
		Email:    username + "@example.com",
		Password: password,
	})
	require.NoError(t, err)
	return manager
}

func TestAuthService_Login(t *testing.T) {
	svc, repo, m := newAuthService(t)
	ctx := context.Background()

	manager := createManager(t, svc, "alice", "secret123")

	principal, err := svc.Login(ctx, LoginInput{Username: "  Alice ", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, manager.ID, principal.ID)
	assert.Equal(t, "alice", principal.Username)
	assert.Equal(t, "alice", principal.DisplayName)
	assert.Equal(t, domain.RoleAdmin, principal.Role)

	stored, err := repo.GetByID(ctx, manager.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	assert.True(t, stored.LastLogin.Equal(fixedNow))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginAttemptsTotal.WithLabelValues("success")))
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _, m := newAuthService(t)
	ctx := context.Background()

	createManager(t, svc, "alice", "secret123")

	_, unknownErr := svc.Login(ctx, LoginInput{Username: "bob", Password: "secret123"})
	_, wrongErr := svc.Login(ctx, LoginInput{Username: "alice", Password: "wrong-password"})

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.ErrorIs(t, unknownErr, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, domain.ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginAttemptsTotal.WithLabelValues("authentication")))
}

func TestAuthService_LoginInactiveManager(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	manager := createManager(t, svc, "alice", "secret123")
	_, err := svc.SetActive(ctx, manager.ID, false)
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Username: "alice", Password: "secret123"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.SetActive(ctx, manager.ID, true)
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Username: "alice", Password: "secret123"})
	assert.NoError(t, err)
}

func TestAuthService_LoginMissingCredentials(t *testing.T) {
	tests := []struct {
		name  string
		input LoginInput
	}{
		{"empty", LoginInput{}},
		{"no password", LoginInput{Username: "alice"}},
		{"blank username", LoginInput{Username: "   ", Password: "secret123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newAuthService(t)

			_, err := svc.Login(context.Background(), tt.input)
			assert.ErrorIs(t, err, domain.ErrMissingCredentials)
			assert.Zero(t, repo.calls, "store must not be consulted")
		})
	}
}

func TestAuthService_LoginStorageFailure(t *testing.T) {
	repo := &FaultyManagerRepository{}
	repo.On("GetActiveByUsername", mock.Anything, "alice").Return(nil, errors.New("connection refused"))

	svc := NewAuthService(repo, nil, nil, config.AuthConfig{BcryptCost: bcrypt.MinCost}, zerolog.Nop())

	_, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "secret123"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
	repo.AssertExpectations(t)
}

func TestAuthService_CreateManager(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	manager, err := svc.CreateManager(ctx, CreateManagerInput{
		Username:    "Root",
		Email:       "Root@Example.com",
		Password:    "secret123",
		DisplayName: " The Root ",
		Role:        "superadmin",
	})
	require.NoError(t, err)
	assert.Equal(t, "root", manager.Username)
	assert.Equal(t, "root@example.com", manager.Email)
	assert.Equal(t, "The Root", manager.DisplayName)
	assert.Equal(t, domain.RoleSuperAdmin, manager.Role)
	assert.True(t, manager.IsActive)
	assert.NotEqual(t, "secret123", manager.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(manager.PasswordHash), []byte("secret123")))

	_, err = svc.CreateManager(ctx, CreateManagerInput{Username: "root", Email: "other@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, domain.ErrManagerAlreadyExists)

	_, err = svc.CreateManager(ctx, CreateManagerInput{Username: "other", Email: "root@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, domain.ErrManagerAlreadyExists)
}

func TestAuthService_CreateManagerValidation(t *testing.T) {
	tests := []struct {
		name  string
		input CreateManagerInput
	}{
		{"short password", CreateManagerInput{Username: "alice", Email: "alice@example.com", Password: "abc"}},
		{"bad role", CreateManagerInput{Username: "alice", Email: "alice@example.com", Password: "secret123", Role: "owner"}},
		{"short username", CreateManagerInput{Username: "al", Email: "alice@example.com", Password: "secret123"}},
		{"bad email", CreateManagerInput{Username: "alice", Email: "not-an-email", Password: "secret123"}},
		{"password longer than bcrypt accepts", CreateManagerInput{Username: "alice", Email: "alice@example.com", Password: strings.Repeat("a", 73)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newAuthService(t)
			_, err := svc.CreateManager(context.Background(), tt.input)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.NotErrorIs(t, err, domain.ErrStorage)
		})
	}
}

func TestAuthService_EnsureDefaultManager(t *testing.T) {
	svc, repo, _ := newAuthService(t)
	ctx := context.Background()

	seed := config.SeedConfig{
		Enabled:  true,
		Username: "admin",
		Email:    "admin@example.com",
		Password: "admin123",
		Role:     "SuperAdmin",
	}

	created, err := svc.EnsureDefaultManager(ctx, seed)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureDefaultManager(ctx, seed)
	require.NoError(t, err)
	assert.False(t, created)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	manager, err := svc.GetManagerByUsername(ctx, "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, manager.Role)
}

func TestAuthService_EnsureDefaultManagerDisabled(t *testing.T) {
	svc, repo, _ := newAuthService(t)

	created, err := svc.EnsureDefaultManager(context.Background(), config.SeedConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Zero(t, repo.calls)
}

func TestAuthService_EnsureDefaultManagerSkipsWhenLocked(t *testing.T) {
	repo := NewMockManagerRepository()
	locker := lock.NewMemoryLocker()

	svc := NewAuthService(repo, locker, nil, config.AuthConfig{BcryptCost: bcrypt.MinCost}, zerolog.Nop())
	ctx := context.Background()

	ok, err := locker.Acquire(ctx, lock.Keys.SeedManagers(), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	created, err := svc.EnsureDefaultManager(ctx, config.SeedConfig{
		Enabled:  true,
		Username: "admin",
		Email:    "admin@example.com",
		Password: "admin123",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Zero(t, repo.calls)
}

func TestAuthService_AccountAdministration(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	manager := createManager(t, svc, "alice", "secret123")

	updated, err := svc.SetRole(ctx, manager.ID, "superadmin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, updated.Role)

	_, err = svc.SetRole(ctx, manager.ID, "owner")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.SetRole(ctx, 999, "admin")
	assert.ErrorIs(t, err, domain.ErrManagerNotFound)

	require.NoError(t, svc.ChangePassword(ctx, manager.ID, "new-secret"))
	_, err = svc.Login(ctx, LoginInput{Username: "alice", Password: "secret123"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginInput{Username: "alice", Password: "new-secret"})
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePassword(ctx, manager.ID, "short"), domain.ErrValidation)
	assert.ErrorIs(t, svc.ChangePassword(ctx, manager.ID, strings.Repeat("p", 73)), domain.ErrValidation)

	createManager(t, svc, "bobby", "secret123")
	list, err := svc.ListManagers(ctx, repository.ListOptions{Limit: 50})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "bobby", list.Items[0].Username)
}

func TestPrincipalOf(t *testing.T) {
	m := domain.NewManager("alice", "alice@example.com", "hash")
	m.ID = 7
	m.Role = domain.RoleSuperAdmin

	p, err := PrincipalOf(m)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, "alice", p.DisplayName)
	assert.Equal(t, "alice@example.com", p.Email)
	assert.Equal(t, domain.RoleSuperAdmin, p.Role)

	m.DisplayName = "Alice L."
	p, err = PrincipalOf(m)
	require.NoError(t, err)
	assert.Equal(t, "Alice L.", p.DisplayName)
}
