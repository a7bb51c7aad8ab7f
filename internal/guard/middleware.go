package guard

import (
	"encoding/json"
	"net/http"

	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/session"
)

// AttachCurrentPrincipal copies the session principal into the request
// context. It never blocks.
func AttachCurrentPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := session.FromContext(r.Context()).Principal()
		next.ServeHTTP(w, r.WithContext(domain.ContextWithPrincipal(r.Context(), p)))
	})
}

// RequestFrom builds the guard view of r.
func RequestFrom(r *http.Request) Request {
	return Request{
		Principal: domain.PrincipalFromContext(r.Context()),
		Path:      r.URL.RequestURI(),
		ReturnTo:  session.FromContext(r.Context()).ReturnTo(),
	}
}

// Middleware applies g to HTML routes. Redirects write their notice and
// resume-path effects into the session before answering 302.
func Middleware(g Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			out := g(RequestFrom(r))
			if out.Decision == Proceed {
				next.ServeHTTP(w, r)
				return
			}

			s := session.FromContext(r.Context())
			if out.SaveReturnTo {
				s.SetReturnTo(r.URL.RequestURI())
			}
			if out.ClearReturnTo {
				s.ClearReturnTo()
			}
			if out.Notice != "" {
				s.FlashError(out.Notice)
			}

			if out.Decision == Redirect {
				http.Redirect(w, r, out.Target, http.StatusFound)
				return
			}
			http.Error(w, out.Notice, statusFor(r, out))
		})
	}
}

// APIMiddleware applies g to JSON routes. Anything but Proceed becomes a
// failure envelope: 401 without a principal, 403 otherwise.
func APIMiddleware(g Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			out := g(RequestFrom(r))
			if out.Decision == Proceed {
				next.ServeHTTP(w, r)
				return
			}

			status := statusFor(r, out)
			err := domain.ErrAuthorization
			message := NoticeInsufficientRole
			if status == http.StatusUnauthorized {
				err = domain.ErrAuthentication
				message = NoticeAuthenticationError
			}

			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"message": message,
				"error":   err.Error(),
			})
		})
	}
}

func statusFor(r *http.Request, out Outcome) int {
	if domain.PrincipalFromContext(r.Context()) == nil {
		return http.StatusUnauthorized
	}
	if domain.KindOf(out.Err) == domain.KindAuthentication {
		return http.StatusUnauthorized
	}
	return http.StatusForbidden
}
