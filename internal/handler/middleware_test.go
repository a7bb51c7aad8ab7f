package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/marquee/internal/domain"
)

func TestMethodOverride(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		target      string
		contentType string
		body        string
		want        string
	}{
		{name: "form delete", method: http.MethodPost, target: "/x", contentType: "application/x-www-form-urlencoded", body: "_method=DELETE", want: http.MethodDelete},
		{name: "form put lowercase", method: http.MethodPost, target: "/x", contentType: "application/x-www-form-urlencoded", body: "_method=put", want: http.MethodPut},
		{name: "query", method: http.MethodPost, target: "/x?_method=DELETE", want: http.MethodDelete},
		{name: "unsupported", method: http.MethodPost, target: "/x?_method=TRACE", want: http.MethodPost},
		{name: "json body ignored", method: http.MethodPost, target: "/x", contentType: "application/json", body: `{"_method":"DELETE"}`, want: http.MethodPost},
		{name: "get untouched", method: http.MethodGet, target: "/x?_method=DELETE", want: http.MethodGet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := MethodOverride(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Method
			}))

			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLimitBody(t *testing.T) {
	var readErr error
	h := LimitBody(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	var tooLarge *http.MaxBytesError
	assert.True(t, errors.As(readErr, &tooLarge))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("short")))
	assert.NoError(t, readErr)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodGet, "/movies?page=2", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = req.WithContext(domain.ContextWithPrincipal(req.Context(), &domain.Principal{ID: 1, Username: "alice"}))
	h.ServeHTTP(httptest.NewRecorder(), req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.Equal(t, "/movies?page=2", first["path"])
	assert.Equal(t, float64(http.StatusAccepted), first["status"])
	assert.Equal(t, "Not logged in", first["user"])
	assert.Equal(t, "alice", second["user"])
}

func TestRecoverer(t *testing.T) {
	views, err := newRenderer(zerolog.Nop())
	require.NoError(t, err)
	resp := &responder{views: views, logger: zerolog.Nop()}

	h := resp.recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), NoticeGenericError)
	assert.NotContains(t, rec.Body.String(), "boom")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movies", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, NoticeGenericError, env.Message)
	assert.Equal(t, domain.ErrStorage.Error(), env.Error)
}

type fakeDatabase struct {
	err error
}

func (f fakeDatabase) Ping(context.Context) error   { return f.err }
func (f fakeDatabase) Health(context.Context) error { return f.err }
func (f fakeDatabase) Close() error                 { return nil }

func TestHealthHandler(t *testing.T) {
	started := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantState  string
		wantDB     string
	}{
		{name: "healthy", wantStatus: http.StatusOK, wantState: "OK", wantDB: "connected"},
		{name: "database down", err: errors.New("connection refused"), wantStatus: http.StatusServiceUnavailable, wantState: "UNAVAILABLE", wantDB: "disconnected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &HealthHandler{
				database:    fakeDatabase{err: tt.err},
				environment: "production",
				started:     started,
				now:         func() time.Time { return started.Add(90 * time.Second) },
				logger:      zerolog.Nop(),
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantState, body.Status)
			assert.Equal(t, tt.wantDB, body.Database)
			assert.Equal(t, float64(90), body.Uptime)
			assert.Equal(t, "production", body.Environment)
		})
	}
}
