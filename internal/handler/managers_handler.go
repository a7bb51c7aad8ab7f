package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/repository"
	"github.com/prn-tf/marquee/internal/service"
	"github.com/prn-tf/marquee/internal/session"
)

const (
	managersPath = "/admin/managers"

	// managerPageSize bounds the console listing.
	managerPageSize = 100
)

// Manager console notices.
const (
	NoticeCannotDeactivateSelf  = "You cannot deactivate your own account"
	noticeManagerCreatedFormat  = "Manager %q created successfully!"
	noticeManagerEnabledFormat  = "Manager %q has been activated"
	noticeManagerDisabledFormat = "Manager %q has been deactivated"
)

// ManagersHandler serves the superadmin account console.
type ManagersHandler struct {
	auth *service.AuthService
	*responder
	logger zerolog.Logger
}

// ManagerForm holds the values of the create form.
type ManagerForm struct {
	Username    string
	Email       string
	DisplayName string
	Role        string
}

// ManagersPageData contains the manager console page data.
type ManagersPageData struct {
	PageData
	Managers []*domain.Manager
	Total    int64
	Form     ManagerForm
	Fields   map[string]string
}

// RegisterRoutes registers the console routes. Callers apply the superadmin guard.
func (h *ManagersHandler) RegisterRoutes(r chi.Router) {
	r.Get("/managers", h.handleList)
	r.Post("/managers", h.handleCreate)
	r.Post("/managers/{id}/active", h.handleSetActive)
}

func (h *ManagersHandler) handleList(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, http.StatusOK, ManagersPageData{
		PageData: page(r, "Managers - Marquee"),
		Form:     ManagerForm{Role: string(domain.RoleAdmin)},
	})
}

func (h *ManagersHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		h.fail(w, r, fmt.Errorf("%w: unreadable form: %v", domain.ErrValidation, err))
		return
	}

	form := ManagerForm{
		Username:    r.PostForm.Get("username"),
		Email:       r.PostForm.Get("email"),
		DisplayName: r.PostForm.Get("displayName"),
		Role:        r.PostForm.Get("role"),
	}

	manager, err := h.auth.CreateManager(r.Context(), service.CreateManagerInput{
		Username:    form.Username,
		Email:       form.Email,
		Password:    r.PostForm.Get("password"),
		DisplayName: form.DisplayName,
		Role:        form.Role,
	})
	if err != nil {
		switch domain.KindOf(err) {
		case domain.KindValidation, domain.KindConflict:
			data := ManagersPageData{PageData: page(r, "Managers - Marquee"), Form: form}
			data.Error = err.Error()
			data.Fields = fieldErrors(err)
			h.renderList(w, r, statusOf(err), data)
		default:
			h.fail(w, r, err)
		}
		return
	}

	session.FromContext(r.Context()).FlashSuccess(fmt.Sprintf(noticeManagerCreatedFormat, manager.Username))
	http.Redirect(w, r, managersPath, http.StatusFound)
}

func (h *ManagersHandler) handleSetActive(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.fail(w, r, domain.ErrManagerNotFound)
		return
	}
	if err := parseForm(r); err != nil {
		h.fail(w, r, fmt.Errorf("%w: unreadable form: %v", domain.ErrValidation, err))
		return
	}

	active := r.PostForm.Get("active") == "true"
	if p := domain.PrincipalFromContext(r.Context()); p != nil && p.ID == id && !active {
		s.FlashError(NoticeCannotDeactivateSelf)
		http.Redirect(w, r, managersPath, http.StatusFound)
		return
	}

	manager, err := h.auth.SetActive(r.Context(), id, active)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	format := noticeManagerDisabledFormat
	if manager.IsActive {
		format = noticeManagerEnabledFormat
	}
	s.FlashSuccess(fmt.Sprintf(format, manager.Username))
	http.Redirect(w, r, managersPath, http.StatusFound)
}

func (h *ManagersHandler) renderList(w http.ResponseWriter, r *http.Request, status int, data ManagersPageData) {
	result, err := h.auth.ListManagers(r.Context(), repository.ListOptions{Limit: managerPageSize})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data.Managers = result.Items
	data.Total = result.Total
	h.views.render(w, r, status, "managers.html", data)
}
