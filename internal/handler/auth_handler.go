package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/marquee/internal/auth"
	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/guard"
	"github.com/prn-tf/marquee/internal/service"
	"github.com/prn-tf/marquee/internal/session"
)

// Authentication notices.
const (
	NoticeMissingCredentials = "Please enter username and password"
	NoticeInvalidCredentials = "Invalid username or password"
	NoticeLoginError         = "An error occurred during the login process. Please try again later."
	NoticeLogoutFailed       = "Logout failed, please try again"
	NoticeLoginFirst         = "Please log in first"
	NoticeTokensDisabled     = "Token login is not enabled"
)

// AuthHandler handles manager login, logout and profile pages, plus API token login.
type AuthHandler struct {
	auth     *service.AuthService
	sessions *session.Manager
	tokens   *auth.TokenIssuer
	*responder
	logger zerolog.Logger
}

// LoginPageData contains login page data.
type LoginPageData struct {
	PageData
	Username string
}

// ProfilePageData contains profile page data.
type ProfilePageData struct {
	PageData
	Manager *domain.Manager
}

// RegisterRoutes registers the login, logout and profile pages under the current prefix.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(guard.Middleware(guard.RequireGuest))
		r.Get("/login", h.handleLoginPage)
		r.Post("/login", h.handleLogin)
	})
	r.Get("/logout", h.handleLogout)
}

// RegisterProfileRoute registers the profile page.
func (h *AuthHandler) RegisterProfileRoute(r chi.Router) {
	r.Get("/profile", h.handleProfile)
}

// =============================================================================
// Authentication Handlers
// =============================================================================

func (h *AuthHandler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.views.render(w, r, http.StatusOK, "login.html", LoginPageData{
		PageData: page(r, "Admin Login - Marquee"),
	})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		h.renderLoginError(w, r, "", NoticeMissingCredentials)
		return
	}

	username := r.PostFormValue("username")
	principal, err := h.auth.Login(r.Context(), service.LoginInput{
		Username: username,
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		switch domain.KindOf(err) {
		case domain.KindValidation:
			h.renderLoginError(w, r, username, NoticeMissingCredentials)
		case domain.KindAuthentication:
			h.renderLoginError(w, r, username, NoticeInvalidCredentials)
		default:
			h.logger.Error().Err(err).Str("username", username).Msg("Login failed")
			h.renderLoginError(w, r, username, NoticeLoginError)
		}
		return
	}

	s := session.FromContext(r.Context())
	target := s.TakeReturnTo()
	if !guard.IsLocalPath(target) {
		target = guard.AdminHomePath
	}

	h.sessions.Regenerate(s)
	s.SetPrincipal(principal)
	s.FlashSuccess(fmt.Sprintf("Welcome back, %s!", principal.DisplayName))

	http.Redirect(w, r, target, http.StatusFound)
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	username := "Unknown user"
	if p := s.Principal(); p != nil {
		username = p.Username
	}

	if err := h.sessions.Destroy(r.Context(), s); err != nil {
		h.logger.Error().Err(err).Str("username", username).Msg("Logout failed")
		s.FlashError(NoticeLogoutFailed)
		http.Redirect(w, r, guard.AdminHomePath, http.StatusFound)
		return
	}

	h.logger.Info().Str("username", username).Msg("Manager logged out")
	http.Redirect(w, r, guard.HomePath, http.StatusFound)
}

func (h *AuthHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	principal := domain.PrincipalFromContext(r.Context())
	if principal == nil {
		session.FromContext(r.Context()).FlashError(NoticeLoginFirst)
		http.Redirect(w, r, guard.LoginPath, http.StatusFound)
		return
	}

	manager, err := h.auth.GetManager(r.Context(), principal.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.views.render(w, r, http.StatusOK, "profile.html", ProfilePageData{
		PageData: page(r, "Admin Profile - Marquee"),
		Manager:  manager,
	})
}

func (h *AuthHandler) renderLoginError(w http.ResponseWriter, r *http.Request, username, message string) {
	data := LoginPageData{
		PageData: page(r, "Admin Login - Marquee"),
		Username: strings.TrimSpace(username),
	}
	data.Error = message
	h.views.render(w, r, http.StatusOK, "login.html", data)
}

// =============================================================================
// Token Login
// =============================================================================

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	*auth.IssuedToken
	Manager *domain.Principal `json:"manager"`
}

func (h *AuthHandler) handleToken(w http.ResponseWriter, r *http.Request) {
	if h.tokens == nil {
		writeJSON(w, http.StatusNotImplemented, Envelope{Success: false, Message: NoticeTokensDisabled})
		return
	}

	var req tokenRequest
	if isForm(r) {
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.apiFail(w, r, fmt.Errorf("%w: malformed request body", domain.ErrValidation), NoticeMissingCredentials)
		return
	}

	principal, err := h.auth.Login(r.Context(), service.LoginInput{Username: req.Username, Password: req.Password})
	if err != nil {
		message := NoticeInvalidCredentials
		if domain.KindOf(err) == domain.KindValidation {
			message = NoticeMissingCredentials
		}
		h.apiFail(w, r, err, message)
		return
	}

	token, err := h.tokens.Issue(principal)
	if err != nil {
		h.apiFail(w, r, err, NoticeGenericError)
		return
	}

	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data:    tokenResponse{IssuedToken: token, Manager: principal},
	})
}
