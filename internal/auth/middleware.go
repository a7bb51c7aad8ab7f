package auth

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/marquee/internal/domain"
)

// Bearer attaches the principal named by a valid bearer token to the request
// context. Requests already carrying a session principal are left alone, and
// invalid tokens are ignored so the downstream guard answers them.
func Bearer(issuer *TokenIssuer, logger zerolog.Logger) func(http.Handler) http.Handler {
	log := logger.With().Str("component", "bearer").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if issuer == nil || domain.PrincipalFromContext(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}

			raw, err := ExtractBearer(r)
			if err != nil {
				if !errors.Is(err, ErrMissingToken) {
					log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected authorization header")
				}
				next.ServeHTTP(w, r)
				return
			}

			principal, err := issuer.Parse(raw)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Bearer authentication failed")
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(domain.ContextWithPrincipal(r.Context(), principal)))
		})
	}
}
