package session

import (
	"context"
	"net/http"
	"sync"
)

// Middleware loads the session for every request and commits it when the
// handler first writes to the response, or when it returns without writing.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.Load(r)
		ctx := context.WithoutCancel(r.Context())

		cw := &commitWriter{ResponseWriter: w}
		cw.commit = func() { m.Commit(ctx, w, s) }

		next.ServeHTTP(cw, r.WithContext(NewContext(r.Context(), s)))
		cw.once.Do(cw.commit)
	})
}

// commitWriter runs commit exactly once, before the header is sent.
type commitWriter struct {
	http.ResponseWriter
	once   sync.Once
	commit func()
}

func (w *commitWriter) WriteHeader(code int) {
	w.once.Do(w.commit)
	w.ResponseWriter.WriteHeader(code)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	w.once.Do(w.commit)
	return w.ResponseWriter.Write(b)
}

// Flush implements http.Flusher when the underlying writer does.
func (w *commitWriter) Flush() {
	w.once.Do(w.commit)
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *commitWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
