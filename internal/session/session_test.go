package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/marquee/internal/cache/memory"
	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/repository"
)

const testKey = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

func newTestManager(t *testing.T, encryptionKey string) (*Manager, *memory.Cache) {
	t.Helper()
	store := memory.NewCache()
	t.Cleanup(store.Stop)

	m, err := NewManager(store, Options{
		CookieName:    "movieSystem.sid",
		TTL:           24 * time.Hour,
		EncryptionKey: encryptionKey,
	}, zerolog.Nop())
	require.NoError(t, err)
	return m, store
}

// serve runs h behind the middleware and returns the response.
func serve(m *Manager, h http.HandlerFunc, cookies ...*http.Cookie) *http.Response {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	m.Middleware(h).ServeHTTP(rec, req)
	return rec.Result()
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "movieSystem.sid" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func TestMiddleware_AnonymousSessionIsNotPersisted(t *testing.T) {
	m, store := newTestManager(t, "")

	resp := serve(m, func(w http.ResponseWriter, r *http.Request) {
		assert.Nil(t, FromContext(r.Context()).Principal())
		w.WriteHeader(http.StatusOK)
	})

	assert.Empty(t, resp.Cookies())
	assert.Zero(t, store.Len())
}

func TestMiddleware_PrincipalSurvivesRequests(t *testing.T) {
	for _, encryptionKey := range []string{"", testKey} {
		m, store := newTestManager(t, encryptionKey)
		principal := &domain.Principal{ID: 7, Username: "alice", Role: domain.RoleAdmin}

		resp := serve(m, func(w http.ResponseWriter, r *http.Request) {
			s := FromContext(r.Context())
			m.Regenerate(s)
			s.SetPrincipal(principal)
			http.Redirect(w, r, "/admin", http.StatusFound)
		})

		cookie := sessionCookie(t, resp)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
		assert.Equal(t, int((24 * time.Hour).Seconds()), cookie.MaxAge)
		assert.Equal(t, 1, store.Len())

		raw, err := store.Get(context.Background(), key(cookie.Value))
		require.NoError(t, err)
		assert.NotContains(t, string(raw), cookie.Value)
		if encryptionKey != "" {
			assert.NotContains(t, string(raw), "alice")
		}

		serve(m, func(w http.ResponseWriter, r *http.Request) {
			got := FromContext(r.Context()).Principal()
			require.NotNil(t, got)
			assert.Equal(t, "alice", got.Username)
		}, cookie)
	}
}

func TestSession_NoticesAreOneShot(t *testing.T) {
	m, _ := newTestManager(t, "")

	resp := serve(m, func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).FlashSuccess("Welcome back, Alice!")
	})
	cookie := sessionCookie(t, resp)

	serve(m, func(w http.ResponseWriter, r *http.Request) {
		success, failure := FromContext(r.Context()).Notices()
		assert.Equal(t, "Welcome back, Alice!", success)
		assert.Empty(t, failure)
		w.WriteHeader(http.StatusOK)
	}, cookie)

	serve(m, func(w http.ResponseWriter, r *http.Request) {
		success, _ := FromContext(r.Context()).Notices()
		assert.Empty(t, success)
	}, cookie)
}

func TestManager_RegenerateDropsOldRecord(t *testing.T) {
	m, store := newTestManager(t, "")

	resp := serve(m, func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).SetReturnTo("/admin/movies/create")
	})
	first := sessionCookie(t, resp)

	resp = serve(m, func(w http.ResponseWriter, r *http.Request) {
		s := FromContext(r.Context())
		assert.Equal(t, "/admin/movies/create", s.TakeReturnTo())
		m.Regenerate(s)
		s.SetPrincipal(&domain.Principal{ID: 1, Username: "test", Role: domain.RoleAdmin})
	}, first)
	second := sessionCookie(t, resp)

	assert.NotEqual(t, first.Value, second.Value)
	assert.Equal(t, 1, store.Len())

	_, err := store.Get(context.Background(), key(first.Value))
	assert.ErrorIs(t, err, repository.ErrCacheMiss)
}

func TestManager_Destroy(t *testing.T) {
	m, store := newTestManager(t, "")

	resp := serve(m, func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).SetPrincipal(&domain.Principal{ID: 1, Username: "test"})
	})
	cookie := sessionCookie(t, resp)

	resp = serve(m, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.Destroy(r.Context(), FromContext(r.Context())))
		http.Redirect(w, r, "/", http.StatusFound)
	}, cookie)

	expired := sessionCookie(t, resp)
	assert.Negative(t, expired.MaxAge)
	assert.Zero(t, store.Len())

	serve(m, func(w http.ResponseWriter, r *http.Request) {
		assert.Nil(t, FromContext(r.Context()).Principal())
	}, cookie)
}

func TestManager_LoadIgnoresForgedCookies(t *testing.T) {
	m, _ := newTestManager(t, "")

	for _, value := range []string{"", "short", strings.Repeat("A", 43)} {
		serve(m, func(w http.ResponseWriter, r *http.Request) {
			s := FromContext(r.Context())
			assert.Nil(t, s.Principal())
			assert.Empty(t, s.ID())
		}, &http.Cookie{Name: "movieSystem.sid", Value: value})
	}
}

func TestNewManager_Validation(t *testing.T) {
	store := memory.NewCache()
	defer store.Stop()

	_, err := NewManager(store, Options{TTL: time.Hour}, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewManager(store, Options{CookieName: "sid"}, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewManager(store, Options{CookieName: "sid", TTL: time.Hour, EncryptionKey: "nothex"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestFromContext_Detached(t *testing.T) {
	s := FromContext(context.Background())
	require.NotNil(t, s)
	s.FlashError("ignored")
	_, failure := s.Notices()
	assert.Equal(t, "ignored", failure)
}
