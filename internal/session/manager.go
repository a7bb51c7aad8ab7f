package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/marquee/internal/config"
	"github.com/prn-tf/marquee/internal/pkg/crypto"
	"github.com/prn-tf/marquee/internal/repository"
)

// Options configures a Manager.
type Options struct {
	// CookieName is the name of the session cookie.
	CookieName string

	// TTL bounds both the stored record and the cookie.
	TTL time.Duration

	// Secure marks the cookie Secure.
	Secure bool

	// EncryptionKey is an optional 64-character hex key. When set, records are
	// sealed with AES-256-GCM before they reach the store.
	EncryptionKey string
}

// OptionsFromConfig builds Options. Cookies are always Secure in production.
func OptionsFromConfig(cfg config.SessionConfig, server config.ServerConfig) Options {
	return Options{
		CookieName:    cfg.CookieName,
		TTL:           cfg.TTL,
		Secure:        cfg.Secure || server.IsProduction(),
		EncryptionKey: cfg.EncryptionKey,
	}
}

// Manager loads, commits and destroys sessions.
type Manager struct {
	store     repository.Cache
	encryptor *crypto.Encryptor
	opts      Options
	now       func() time.Time
	logger    zerolog.Logger
}

// NewManager creates a new session Manager backed by store.
func NewManager(store repository.Cache, opts Options, logger zerolog.Logger) (*Manager, error) {
	if opts.CookieName == "" {
		return nil, errors.New("session cookie name is required")
	}
	if opts.TTL <= 0 {
		return nil, errors.New("session ttl must be positive")
	}

	m := &Manager{
		store:  store,
		opts:   opts,
		now:    time.Now,
		logger: logger.With().Str("component", "session").Logger(),
	}

	if opts.EncryptionKey != "" {
		enc, err := crypto.NewEncryptorFromHex(opts.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid session encryption key: %w", err)
		}
		m.encryptor = enc
	}

	return m, nil
}

// CookieName returns the configured cookie name.
func (m *Manager) CookieName() string {
	return m.opts.CookieName
}

// Load returns the session named by the request cookie. Missing, malformed,
// expired or unreadable sessions yield a fresh anonymous session.
func (m *Manager) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil || !crypto.ValidSessionID(cookie.Value) {
		return &Session{}
	}

	data, err := m.read(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, repository.ErrCacheMiss) {
			m.logger.Warn().Err(err).Msg("failed to load session, starting a new one")
		}
		return &Session{}
	}

	return &Session{id: cookie.Value, data: *data, stored: true}
}

// Regenerate assigns the session a new id on its next commit. The data is
// kept; the record under the old id is removed.
func (m *Manager) Regenerate(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stored && s.staleID == "" {
		s.staleID = s.id
	}
	s.id = ""
	s.stored = false
	s.dirty = true
}

// Destroy removes the session record now. The cookie is expired when the
// response is committed. On failure the session is left intact.
func (m *Manager) Destroy(ctx context.Context, s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range []string{s.id, s.staleID} {
		if id == "" {
			continue
		}
		if err := m.store.Delete(ctx, key(id)); err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
	}

	s.data = Data{}
	s.staleID = ""
	s.stored = false
	s.dirty = false
	s.destroyed = true
	return nil
}

// Commit persists pending changes and writes the cookie header. It must run
// before the response header is sent.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		http.SetCookie(w, m.expiredCookie())
		return
	}

	if s.staleID != "" {
		if err := m.store.Delete(ctx, key(s.staleID)); err != nil {
			m.logger.Error().Err(err).Msg("failed to remove replaced session")
		}
		s.staleID = ""
	}

	if !s.dirty || (!s.stored && s.data.isEmpty()) {
		return
	}

	if s.id == "" {
		id, err := crypto.GenerateSessionID()
		if err != nil {
			m.logger.Error().Err(err).Msg("failed to generate session id")
			return
		}
		s.id = id
	}

	payload, err := m.encode(s.id, s.data)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to encode session")
		return
	}

	if err := m.store.Set(ctx, key(s.id), payload, m.opts.TTL); err != nil {
		m.logger.Error().Err(err).Msg("failed to save session")
		return
	}

	s.stored = true
	s.dirty = false
	http.SetCookie(w, m.cookie(s.id))
}

func (m *Manager) read(ctx context.Context, id string) (*Data, error) {
	payload, err := m.store.Get(ctx, key(id))
	if err != nil {
		return nil, err
	}

	if m.encryptor != nil {
		payload, err = m.encryptor.Open(payload, []byte(crypto.SessionDigest(id)))
		if err != nil {
			return nil, err
		}
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &data, nil
}

func (m *Manager) encode(id string, data Data) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	if m.encryptor == nil {
		return payload, nil
	}
	return m.encryptor.Seal(payload, []byte(crypto.SessionDigest(id)))
}

func (m *Manager) cookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.opts.TTL / time.Second),
		Expires:  m.now().Add(m.opts.TTL).UTC(),
	}
}

func (m *Manager) expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	}
}

// key derives the store key. Raw ids never reach the store.
func key(id string) string {
	return repository.CacheKey{}.Session(crypto.SessionDigest(id))
}
