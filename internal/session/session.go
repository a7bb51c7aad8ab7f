// Package session binds an opaque cookie to server-side session data held in a
// repository.Cache. The data carries the authenticated principal, the saved
// resume path and the one-shot notice slots.
package session

import (
	"context"
	"sync"

	"github.com/prn-tf/marquee/internal/domain"
)

// Data is the persisted content of a session.
type Data struct {
	Principal *domain.Principal `json:"principal,omitempty"`
	ReturnTo  string            `json:"returnTo,omitempty"`
	Success   string            `json:"success,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func (d Data) isEmpty() bool {
	return d.Principal == nil && d.ReturnTo == "" && d.Success == "" && d.Error == ""
}

// Session is the per-request view of one session. It is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id string

	// staleID is the id replaced by Regenerate; its record is removed on commit.
	staleID string

	data Data

	// stored reports whether a record for id exists in the store.
	stored    bool
	dirty     bool
	destroyed bool
}

// ID returns the current session id.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Principal returns the bound principal, or nil for an anonymous session.
func (s *Session) Principal() *domain.Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Principal
}

// SetPrincipal binds p to the session.
func (s *Session) SetPrincipal(p *domain.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Principal = p
	s.dirty = true
}

// ReturnTo returns the saved resume path.
func (s *Session) ReturnTo() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ReturnTo
}

// SetReturnTo saves the path to resume after login.
func (s *Session) SetReturnTo(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.ReturnTo = path
	s.dirty = true
}

// ClearReturnTo forgets the saved resume path.
func (s *Session) ClearReturnTo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.ReturnTo != "" {
		s.data.ReturnTo = ""
		s.dirty = true
	}
}

// TakeReturnTo returns the saved resume path and clears it.
func (s *Session) TakeReturnTo() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.data.ReturnTo
	if path != "" {
		s.data.ReturnTo = ""
		s.dirty = true
	}
	return path
}

// FlashSuccess queues a success notice for the next rendered page.
func (s *Session) FlashSuccess(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Success = message
	s.dirty = true
}

// FlashError queues an error notice for the next rendered page.
func (s *Session) FlashError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Error = message
	s.dirty = true
}

// Notices returns the queued notices and clears both slots.
func (s *Session) Notices() (success, failure string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	success, failure = s.data.Success, s.data.Error
	if success != "" || failure != "" {
		s.data.Success, s.data.Error = "", ""
		s.dirty = true
	}
	return success, failure
}

// Requeue puts notices taken by Notices back. A slot that was flashed again
// in the meantime keeps the newer message.
func (s *Session) Requeue(success, failure string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if success != "" && s.data.Success == "" {
		s.data.Success = success
		s.dirty = true
	}
	if failure != "" && s.data.Error == "" {
		s.data.Error = failure
		s.dirty = true
	}
}

// Snapshot returns a copy of the session data.
func (s *Session) Snapshot() Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by the middleware. Outside the
// middleware it returns a detached session so callers never handle nil.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(contextKey{}).(*Session); ok && s != nil {
		return s
	}
	return &Session{}
}
