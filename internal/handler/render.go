package handler

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "templates/layout.html"

// =============================================================================
// Template Data Structs
// =============================================================================

// PageData contains common page data.
type PageData struct {
	Title       string
	User        *domain.Principal
	CurrentPath string
	Success     string
	Error       string
}

func (p PageData) notices() (success, failure string) {
	return p.Success, p.Error
}

// ErrorPageData contains error page data.
type ErrorPageData struct {
	PageData
	Status  int
	Message string
	Detail  string
}

// =============================================================================
// Renderer
// =============================================================================

// renderer holds one template set per page, each parsed together with the layout.
type renderer struct {
	pages  map[string]*template.Template
	logger zerolog.Logger
}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2006-01-02")
	},
	"datetime": func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return "Never"
		}
		return t.UTC().Format("2006-01-02 15:04")
	},
	"join": func(items []string) string {
		return strings.Join(items, ", ")
	},
	"hasRole": func(p *domain.Principal, role string) bool {
		return p.HasRole(domain.Role(role))
	},
	"ratings": func() []domain.Rating {
		return domain.Ratings
	},
}

func newRenderer(logger zerolog.Logger) (*renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		if name == layoutTemplate {
			continue
		}
		tmpl, err := template.New(path.Base(name)).Funcs(templateFuncs).ParseFS(templateFS, layoutTemplate, name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		pages[path.Base(name)] = tmpl
	}

	return &renderer{pages: pages, logger: logger}, nil
}

// render writes the named page inside the layout with the given status.
// When the page cannot be rendered, the notices it carried go back into the
// session so the next page shows them.
func (rd *renderer) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	tmpl, ok := rd.pages[name]
	if !ok {
		rd.logger.Error().Str("template", name).Msg("Unknown template")
		requeueNotices(r, data)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf strings.Builder
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		rd.logger.Error().Err(err).Str("template", name).Msg("Failed to render template")
		requeueNotices(r, data)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

func requeueNotices(r *http.Request, data any) {
	if v, ok := data.(interface{ notices() (string, string) }); ok {
		session.FromContext(r.Context()).Requeue(v.notices())
	}
}

// page builds the common page data for r and consumes the session notices.
func page(r *http.Request, title string) PageData {
	success, failure := session.FromContext(r.Context()).Notices()
	return PageData{
		Title:       title,
		User:        domain.PrincipalFromContext(r.Context()),
		CurrentPath: r.URL.Path,
		Success:     success,
		Error:       failure,
	}
}
