// Package handler provides the HTTP surface of Marquee: the public pages, the
// admin console, the JSON API and the operational endpoints.
package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/prn-tf/marquee/internal/auth"
	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/guard"
	"github.com/prn-tf/marquee/internal/metrics"
	"github.com/prn-tf/marquee/internal/repository"
	"github.com/prn-tf/marquee/internal/service"
	"github.com/prn-tf/marquee/internal/session"
)

// Router assembles the handlers behind one chi mux.
type Router struct {
	public   *PublicHandler
	auth     *AuthHandler
	admin    *AdminHandler
	managers *ManagersHandler
	api      *APIHandler
	health   *HealthHandler

	sessions    *session.Manager
	tokens      *auth.TokenIssuer
	metrics     *metrics.Metrics
	maxBodySize int64
	responder   *responder
	logger      zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	Sessions *session.Manager
	Auth     *service.AuthService
	Movies   *service.MovieService
	Catalog  *service.CatalogService

	// Tokens enables bearer authentication on the API. Nil disables it.
	Tokens *auth.TokenIssuer

	// Metrics records request counters. Nil disables them.
	Metrics *metrics.Metrics

	Database    repository.DatabaseHealth
	MaxBodySize int64
	Environment string

	// Development exposes failure detail on error pages and API responses.
	Development bool

	Logger zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(config RouterConfig) (*Router, error) {
	if config.Sessions == nil || config.Auth == nil || config.Movies == nil || config.Catalog == nil {
		return nil, errors.New("router requires sessions and every service")
	}

	logger := config.Logger.With().Str("component", "router").Logger()

	views, err := newRenderer(logger)
	if err != nil {
		return nil, err
	}

	resp := &responder{views: views, development: config.Development, logger: logger}

	return &Router{
		public:   &PublicHandler{catalog: config.Catalog, movies: config.Movies, responder: resp, logger: logger},
		auth:     &AuthHandler{auth: config.Auth, sessions: config.Sessions, tokens: config.Tokens, responder: resp, logger: logger},
		admin:    &AdminHandler{movies: config.Movies, catalog: config.Catalog, responder: resp, logger: logger},
		managers: &ManagersHandler{auth: config.Auth, responder: resp, logger: logger},
		api:      &APIHandler{catalog: config.Catalog, movies: config.Movies, responder: resp, logger: logger},
		health: &HealthHandler{
			database:    config.Database,
			environment: config.Environment,
			started:     time.Now(),
			now:         time.Now,
			logger:      logger,
		},
		sessions:    config.Sessions,
		tokens:      config.Tokens,
		metrics:     config.Metrics,
		maxBodySize: config.MaxBodySize,
		responder:   resp,
		logger:      logger,
	}, nil
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(rt.responder.recoverer)
	r.Use(rt.metrics.Middleware)
	r.Use(rt.sessions.Middleware)
	r.Use(guard.AttachCurrentPrincipal)
	r.Use(RequestLogger(rt.logger))
	r.Use(LimitBody(rt.maxBodySize))
	r.Use(MethodOverride)

	r.NotFound(rt.notFound)
	r.MethodNotAllowed(rt.notFound)

	// Operational
	r.Method(http.MethodGet, "/health", rt.health)

	// Public pages
	rt.public.RegisterRoutes(r)

	// Manager authentication
	r.Route("/auth", func(r chi.Router) {
		rt.auth.RegisterRoutes(r)
		rt.auth.RegisterProfileRoute(r)
	})

	// Admin console
	r.Route("/admin", func(r chi.Router) {
		rt.auth.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware(guard.Chain(guard.RequireAuthenticated, guard.RequireRole(domain.RoleAdmin))))
			rt.admin.RegisterRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(guard.Middleware(guard.RequireRole(domain.RoleSuperAdmin)))
				rt.managers.RegisterRoutes(r)
			})
		})
	})

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Bearer(rt.tokens, rt.logger))

		rt.api.RegisterRoutes(r)
		r.Post("/auth/token", rt.auth.handleToken)
		r.Group(rt.api.RegisterWriteRoutes)
	})

	return r
}

// notFound answers unmatched routes with the 404 page, or a JSON envelope
// under /api.
func (rt *Router) notFound(w http.ResponseWriter, r *http.Request) {
	if isAPIPath(r) {
		writeJSON(w, http.StatusNotFound, Envelope{
			Success: false,
			Message: "Endpoint not found",
			Error:   domain.ErrNotFound.Error(),
		})
		return
	}
	rt.responder.notFound(w, r)
}

func isAPIPath(r *http.Request) bool {
	return r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/")
}
