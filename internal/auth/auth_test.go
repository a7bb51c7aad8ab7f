package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/marquee/internal/config"
	"github.com/prn-tf/marquee/internal/domain"
)

var testSecret = strings.Repeat("s", 40)

func newTestIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(config.AuthConfig{TokenSecret: testSecret, TokenTTL: time.Hour})
	require.NoError(t, err)
	return issuer
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := newTestIssuer(t)
	p := &domain.Principal{ID: 42, Username: "test", DisplayName: "System Administrator", Role: domain.RoleAdmin}

	token, err := issuer.Issue(p)
	require.NoError(t, err)
	assert.Equal(t, BearerScheme, token.TokenType)

	got, err := issuer.Parse(token.Token)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Username, got.Username)
	assert.Equal(t, p.Role, got.Role)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := newTestIssuer(t)
	p := &domain.Principal{ID: 1, Username: "test", Role: domain.RoleAdmin}

	token, err := issuer.Issue(p)
	require.NoError(t, err)

	other, err := NewTokenIssuer(config.AuthConfig{TokenSecret: strings.Repeat("x", 40)})
	require.NoError(t, err)
	_, err = other.Parse(token.Token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	assert.Equal(t, domain.KindAuthentication, domain.KindOf(err))

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = issuer.Parse(token.Token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = issuer.Parse("not.a.token")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestNewTokenIssuer_WeakSecret(t *testing.T) {
	_, err := NewTokenIssuer(config.AuthConfig{TokenSecret: "short"})
	assert.ErrorIs(t, err, ErrWeakSecret)
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		header string
		token  string
		err    error
	}{
		{"", "", ErrMissingToken},
		{"Bearer abc", "abc", nil},
		{"bearer  abc ", "abc", nil},
		{"Basic abc", "", ErrMalformedHeader},
		{"Bearer", "", ErrMalformedHeader},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/movies", nil)
		if tt.header != "" {
			r.Header.Set(AuthorizationHeader, tt.header)
		}
		token, err := ExtractBearer(r)
		assert.Equal(t, tt.token, token, tt.header)
		assert.ErrorIs(t, err, tt.err, tt.header)
	}
}

func TestBearer_AttachesPrincipal(t *testing.T) {
	issuer := newTestIssuer(t)
	token, err := issuer.Issue(&domain.Principal{ID: 5, Username: "alice", Role: domain.RoleSuperAdmin})
	require.NoError(t, err)

	var seen *domain.Principal
	h := Bearer(issuer, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = domain.PrincipalFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodPost, "/api/movies", nil)
	r.Header.Set(AuthorizationHeader, "Bearer "+token.Token)
	h.ServeHTTP(httptest.NewRecorder(), r)
	require.NotNil(t, seen)
	assert.Equal(t, "alice", seen.Username)

	seen = nil
	r = httptest.NewRequest(http.MethodPost, "/api/movies", nil)
	r.Header.Set(AuthorizationHeader, "Bearer garbage")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Nil(t, seen)
}
