package handler

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/marquee/internal/cache/memory"
	"github.com/prn-tf/marquee/internal/session"
)

func TestRenderer_FailedPageKeepsNotices(t *testing.T) {
	store := memory.NewCache()
	t.Cleanup(store.Stop)
	sessions, err := session.NewManager(store, session.Options{CookieName: "sid", TTL: time.Hour}, zerolog.Nop())
	require.NoError(t, err)

	broken := template.Must(template.New("broken.html").Parse(`{{define "layout"}}{{.Missing}}{{end}}`))
	rd := &renderer{pages: map[string]*template.Template{"broken.html": broken}, logger: zerolog.Nop()}

	rec := httptest.NewRecorder()
	sessions.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session.FromContext(r.Context()).FlashSuccess(`Movie "Hero" created successfully!`)
		rd.render(w, r, http.StatusOK, "broken.html", page(r, "Broken"))
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

	resp := rec.Result()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Len(t, resp.Cookies(), 1)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(resp.Cookies()[0])
	sessions.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		success, _ := session.FromContext(r.Context()).Notices()
		assert.Equal(t, `Movie "Hero" created successfully!`, success)
	})).ServeHTTP(httptest.NewRecorder(), req)
}

func TestSessionRequeue_NewerNoticeWins(t *testing.T) {
	store := memory.NewCache()
	t.Cleanup(store.Stop)
	sessions, err := session.NewManager(store, session.Options{CookieName: "sid", TTL: time.Hour}, zerolog.Nop())
	require.NoError(t, err)

	sessions.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := session.FromContext(r.Context())
		s.FlashError("old")
		_, failure := s.Notices()
		s.FlashError("new")
		s.Requeue("", failure)

		_, failure = s.Notices()
		assert.Equal(t, "new", failure)
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
