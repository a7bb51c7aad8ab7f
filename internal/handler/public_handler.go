package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/service"
	"github.com/prn-tf/marquee/internal/session"
)

// Public notices.
const (
	NoticeMovieNotFound = "Movie not found"
)

// PublicHandler serves the visitor-facing pages.
type PublicHandler struct {
	catalog *service.CatalogService
	movies  *service.MovieService
	*responder
	logger zerolog.Logger
}

// MovieListPageData contains home and listing page data.
type MovieListPageData struct {
	PageData
	Heading string
	Rating  string
	Movies  []domain.MovieView
}

// MovieDetailPageData contains movie detail page data.
type MovieDetailPageData struct {
	PageData
	Movie domain.MovieView
}

// RegisterRoutes registers the public pages.
func (h *PublicHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleHome)
	r.Get("/movies", h.handleAll)
	r.Get("/movies/rating/{rating}", h.handleByRating)
	r.Get("/movies/{id}", h.handleDetail)
}

func (h *PublicHandler) handleHome(w http.ResponseWriter, r *http.Request) {
	h.renderReleased(w, r, "index.html", "", MovieListPageData{
		PageData: page(r, "Marquee - Home"),
		Heading:  "Now Showing",
	})
}

func (h *PublicHandler) handleAll(w http.ResponseWriter, r *http.Request) {
	h.renderReleased(w, r, "movies.html", "", MovieListPageData{
		PageData: page(r, "All Movies - Marquee"),
		Heading:  "All Movies",
		Rating:   "All",
	})
}

func (h *PublicHandler) handleByRating(w http.ResponseWriter, r *http.Request) {
	rating := domain.Rating(chi.URLParam(r, "rating"))
	h.renderReleased(w, r, "movies.html", rating, MovieListPageData{
		PageData: page(r, "Movies Rated "+string(rating)+" - Marquee"),
		Heading:  "Movies Rated " + string(rating),
		Rating:   string(rating),
	})
}

func (h *PublicHandler) renderReleased(w http.ResponseWriter, r *http.Request, name string, rating domain.Rating, data MovieListPageData) {
	movies, err := h.catalog.Released(r.Context(), rating)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data.Movies = domain.Views(movies, h.catalog.Now())
	h.views.render(w, r, http.StatusOK, name, data)
}

func (h *PublicHandler) handleDetail(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	id, err := service.ParseMovieID(chi.URLParam(r, "id"))
	if err != nil {
		s.FlashError(NoticeMovieNotFound)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	movie, err := h.movies.Get(r.Context(), id)
	if err != nil {
		if domain.KindOf(err) != domain.KindNotFound {
			h.logger.Error().Err(err).Str("movie_id", id.String()).Msg("Failed to get movie")
			s.FlashError(NoticeGenericError)
		} else {
			s.FlashError(NoticeMovieNotFound)
		}
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	h.views.render(w, r, http.StatusOK, "detail.html", MovieDetailPageData{
		PageData: page(r, movie.Title+" - Details"),
		Movie:    movie.View(h.movies.Now()),
	})
}
