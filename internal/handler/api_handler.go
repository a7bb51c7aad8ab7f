package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/guard"
	"github.com/prn-tf/marquee/internal/service"
	"github.com/prn-tf/marquee/internal/validation"
)

// API messages.
const (
	MessageMovieCreated    = "Movie created successfully"
	MessageMovieUpdated    = "Movie updated successfully"
	MessageMovieDeleted    = "Movie deleted successfully"
	MessageMovieToggled    = "Movie availability updated"
	MessageInvalidMovie    = "Invalid movie data"
	MessageMoviesFailed    = "Failed to load movies"
	MessageStatsFailed     = "Failed to load statistics"
	MessageMalformedBody   = "Request body must be a JSON object"
	MessageMutationFailed  = "Failed to save movie"
	MessageMovieNotDeleted = "Failed to delete movie"
)

// APIHandler serves the JSON catalog API.
type APIHandler struct {
	catalog *service.CatalogService
	movies  *service.MovieService
	*responder
	logger zerolog.Logger
}

// RegisterRoutes registers the read endpoints. Writes are registered by
// RegisterWriteRoutes behind the API guard.
func (h *APIHandler) RegisterRoutes(r chi.Router) {
	r.Get("/movies", h.handleList)
	r.Get("/movies/{id}", h.handleGet)
	r.Get("/stats/movies", h.handleStats)
}

// RegisterWriteRoutes registers the mutating endpoints.
func (h *APIHandler) RegisterWriteRoutes(r chi.Router) {
	r.Use(guard.APIMiddleware(guard.Chain(guard.RequireAuthenticated, guard.RequireRole(domain.RoleAdmin))))

	r.Post("/movies", h.handleCreate)
	r.Put("/movies/{id}", h.handleUpdate)
	r.Delete("/movies/{id}", h.handleDelete)
	r.Post("/movies/{id}/toggle-full", h.handleToggleFull)
}

// =============================================================================
// Read Endpoints
// =============================================================================

func (h *APIHandler) handleList(w http.ResponseWriter, r *http.Request) {
	result, err := h.catalog.FindMany(r.Context(), service.ParseCatalogQuery(r.URL.Query()))
	if err != nil {
		h.apiFail(w, r, err, MessageMoviesFailed)
		return
	}

	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data:    domain.Views(result.Movies, h.catalog.Now()),
		Pagination: &Pagination{
			Page:  result.Page,
			Limit: result.Limit,
			Total: result.Total,
			Pages: result.TotalPages,
		},
	})
}

func (h *APIHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := service.ParseMovieID(chi.URLParam(r, "id"))
	if err != nil {
		h.apiFail(w, r, err, NoticeMovieNotFound)
		return
	}

	movie, err := h.movies.Get(r.Context(), id)
	if err != nil {
		h.apiFail(w, r, err, NoticeMovieNotFound)
		return
	}

	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: movie.View(h.movies.Now())})
}

func (h *APIHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		h.apiFail(w, r, err, MessageStatsFailed)
		return
	}

	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: stats})
}

// =============================================================================
// Write Endpoints
// =============================================================================

func (h *APIHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	input, err := decodeMovieInput(r)
	if err != nil {
		h.apiFail(w, r, err, MessageMalformedBody)
		return
	}

	movie, err := h.movies.Create(r.Context(), input)
	if err != nil {
		h.apiFail(w, r, err, mutationMessage(err))
		return
	}

	writeJSON(w, http.StatusCreated, Envelope{
		Success: true,
		Data:    movie.View(h.movies.Now()),
		Message: MessageMovieCreated,
	})
}

func (h *APIHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := service.ParseMovieID(chi.URLParam(r, "id"))
	if err != nil {
		h.apiFail(w, r, err, NoticeMovieNotFound)
		return
	}

	input, err := decodeMovieInput(r)
	if err != nil {
		h.apiFail(w, r, err, MessageMalformedBody)
		return
	}

	movie, err := h.movies.Update(r.Context(), id, input)
	if err != nil {
		h.apiFail(w, r, err, mutationMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data:    movie.View(h.movies.Now()),
		Message: MessageMovieUpdated,
	})
}

func (h *APIHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := service.ParseMovieID(chi.URLParam(r, "id"))
	if err == nil {
		err = h.movies.Delete(r.Context(), id)
	}
	if err != nil {
		message := MessageMovieNotDeleted
		if domain.KindOf(err) == domain.KindNotFound {
			message = NoticeMovieNotFound
		}
		h.apiFail(w, r, err, message)
		return
	}

	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: MessageMovieDeleted})
}

func (h *APIHandler) handleToggleFull(w http.ResponseWriter, r *http.Request) {
	var movie *domain.Movie
	id, err := service.ParseMovieID(chi.URLParam(r, "id"))
	if err == nil {
		movie, err = h.movies.ToggleFull(r.Context(), id)
	}
	if err != nil {
		h.apiFail(w, r, err, mutationMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data:    movie.View(h.movies.Now()),
		Message: MessageMovieToggled,
	})
}

// =============================================================================
// Helper Functions
// =============================================================================

// decodeMovieInput reads a JSON movie candidate. An empty or malformed body is
// a validation failure.
func decodeMovieInput(r *http.Request) (validation.MovieInput, error) {
	var input validation.MovieInput

	if isForm(r) {
		in, _, err := parseMovieForm(r)
		return in, err
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return input, fmt.Errorf("%w: request body exceeds %d bytes", domain.ErrValidation, tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return input, fmt.Errorf("%w: request body is empty", domain.ErrValidation)
		default:
			return input, fmt.Errorf("%w: malformed JSON: %v", domain.ErrValidation, err)
		}
	}
	return input, nil
}

func mutationMessage(err error) string {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return MessageInvalidMovie
	case domain.KindNotFound:
		return NoticeMovieNotFound
	default:
		return MessageMutationFailed
	}
}
