package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/guard"
	"github.com/prn-tf/marquee/internal/repository"
	"github.com/prn-tf/marquee/internal/service"
	"github.com/prn-tf/marquee/internal/session"
	"github.com/prn-tf/marquee/internal/validation"
)

// Admin notices.
const (
	NoticeMovieMissing        = "The movie does not exist."
	NoticeMovieDeleted        = "Movie successfully deleted!"
	NoticeMovieDeleteFailed   = "Movie deletion failed"
	NoticeOperationFailed     = "Operation failed"
	noticeMovieCreatedFormat  = "Movie %q created successfully!"
	noticeMovieUpdatedFormat  = "Movie %q updated successfully!"
	noticeMovieToggledFormat  = "The movie has been marked as %s"
	noticeDashboardLoadFailed = "Data loading failed"
)

// dashboardSort lists the newest records first.
var dashboardSort = repository.MovieSort{Field: repository.SortCreatedAt, Descending: true}

// AdminHandler handles the movie management dashboard.
type AdminHandler struct {
	movies  *service.MovieService
	catalog *service.CatalogService
	*responder
	logger zerolog.Logger
}

// =============================================================================
// Template Data Structs
// =============================================================================

// DashboardPageData contains main dashboard page data.
type DashboardPageData struct {
	PageData
	Movies []domain.MovieView
	Stats  *domain.CatalogStats
}

// MovieForm holds the values shown in the create and edit forms.
type MovieForm struct {
	Title            string
	Director         string
	Description      string
	PosterURL        string
	Rating           string
	ReleaseDate      string
	// ShownReleaseDate is the value the edit form was rendered with. A
	// submission that leaves it unchanged keeps the stored timestamp.
	ShownReleaseDate string
	Duration         string
	Cast             string
	Genres           string
	ShowTimes        string
	Language         string
	TheaterLocation  string
	IsFull           bool
}

// MovieFormPageData contains create and edit form page data.
type MovieFormPageData struct {
	PageData
	Heading string
	Action  string
	Method  string
	Form    MovieForm
	Fields  map[string]string
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers dashboard routes. Callers apply the admin guard.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleDashboard)

	// Movie management
	r.Get("/movies/create", h.handleCreatePage)
	r.Post("/movies", h.handleCreate)
	r.Get("/movies/{id}/edit", h.handleEditPage)
	r.Put("/movies/{id}", h.handleUpdate)
	r.Delete("/movies/{id}", h.handleDelete)
	r.Post("/movies/{id}/toggle-full", h.handleToggleFull)
}

// =============================================================================
// Dashboard Handlers
// =============================================================================

func (h *AdminHandler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := DashboardPageData{PageData: page(r, "Admin - Dashboard")}

	movies, err := h.catalog.All(r.Context(), dashboardSort)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load dashboard movies")
		data.Error = noticeDashboardLoadFailed
		data.Stats = &domain.CatalogStats{}
		h.views.render(w, r, http.StatusInternalServerError, "dashboard.html", data)
		return
	}

	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load dashboard stats")
		data.Error = noticeDashboardLoadFailed
		stats = &domain.CatalogStats{}
	}

	data.Movies = domain.Views(movies, h.catalog.Now())
	data.Stats = stats
	h.views.render(w, r, http.StatusOK, "dashboard.html", data)
}

// =============================================================================
// Movie Handlers
// =============================================================================

func (h *AdminHandler) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	h.views.render(w, r, http.StatusOK, "movie_form.html", MovieFormPageData{
		PageData: page(r, "Add New Movie - Marquee"),
		Heading:  "Add New Movie",
		Action:   "/admin/movies",
		Method:   http.MethodPost,
		Form:     MovieForm{Language: domain.DefaultLanguage, TheaterLocation: domain.DefaultTheaterLocation},
	})
}

func (h *AdminHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	input, form, err := parseMovieForm(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	movie, err := h.movies.Create(r.Context(), input)
	if err != nil {
		if domain.KindOf(err) == domain.KindValidation {
			h.renderFormError(w, r, MovieFormPageData{
				PageData: page(r, "Add New Movie - Marquee"),
				Heading:  "Add New Movie",
				Action:   "/admin/movies",
				Method:   http.MethodPost,
				Form:     form,
			}, err)
			return
		}
		h.fail(w, r, err)
		return
	}

	session.FromContext(r.Context()).FlashSuccess(fmt.Sprintf(noticeMovieCreatedFormat, movie.Title))
	http.Redirect(w, r, guard.AdminHomePath, http.StatusFound)
}

func (h *AdminHandler) handleEditPage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.movieID(w, r)
	if !ok {
		return
	}

	movie, err := h.movies.Get(r.Context(), id)
	if err != nil {
		h.redirectMissing(w, r, err)
		return
	}

	h.views.render(w, r, http.StatusOK, "movie_form.html", MovieFormPageData{
		PageData: page(r, "Edit Movie - "+movie.Title),
		Heading:  "Edit Movie",
		Action:   editAction(id),
		Method:   http.MethodPut,
		Form:     formFromMovie(movie),
	})
}

func (h *AdminHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.movieID(w, r)
	if !ok {
		return
	}

	input, form, err := parseMovieForm(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	movie, err := h.movies.Update(r.Context(), id, input)
	if err != nil {
		switch domain.KindOf(err) {
		case domain.KindValidation:
			h.renderFormError(w, r, MovieFormPageData{
				PageData: page(r, "Edit Movie - "+form.Title),
				Heading:  "Edit Movie",
				Action:   editAction(id),
				Method:   http.MethodPut,
				Form:     form,
			}, err)
		case domain.KindNotFound:
			h.redirectMissing(w, r, err)
		default:
			h.fail(w, r, err)
		}
		return
	}

	session.FromContext(r.Context()).FlashSuccess(fmt.Sprintf(noticeMovieUpdatedFormat, movie.Title))
	http.Redirect(w, r, guard.AdminHomePath, http.StatusFound)
}

func (h *AdminHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	id, err := service.ParseMovieID(chi.URLParam(r, "id"))
	if err == nil {
		err = h.movies.Delete(r.Context(), id)
	}
	if err != nil {
		h.logger.Warn().Err(err).Str("movie_id", chi.URLParam(r, "id")).Msg("Failed to delete movie")
		s.FlashError(NoticeMovieDeleteFailed)
		http.Redirect(w, r, guard.AdminHomePath, http.StatusFound)
		return
	}

	s.FlashSuccess(NoticeMovieDeleted)
	http.Redirect(w, r, guard.AdminHomePath, http.StatusFound)
}

func (h *AdminHandler) handleToggleFull(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	var movie *domain.Movie
	id, err := service.ParseMovieID(chi.URLParam(r, "id"))
	if err == nil {
		movie, err = h.movies.ToggleFull(r.Context(), id)
	}
	if err != nil {
		h.logger.Warn().Err(err).Str("movie_id", chi.URLParam(r, "id")).Msg("Failed to toggle movie")
		s.FlashError(NoticeOperationFailed)
		http.Redirect(w, r, guard.AdminHomePath, http.StatusFound)
		return
	}

	state := "Seats Available"
	if movie.IsFull {
		state = "Full"
	}
	s.FlashSuccess(fmt.Sprintf(noticeMovieToggledFormat, state))
	http.Redirect(w, r, guard.AdminHomePath, http.StatusFound)
}

// =============================================================================
// Helper Methods
// =============================================================================

// movieID parses the path id. Malformed ids get the missing-movie redirect.
func (h *AdminHandler) movieID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := service.ParseMovieID(chi.URLParam(r, "id"))
	if err != nil {
		h.redirectMissing(w, r, err)
		return uuid.Nil, false
	}
	return id, true
}

// redirectMissing sends the manager back to the dashboard for absent movies
// and to the error page for anything else.
func (h *AdminHandler) redirectMissing(w http.ResponseWriter, r *http.Request, err error) {
	if domain.KindOf(err) != domain.KindNotFound {
		h.fail(w, r, err)
		return
	}
	session.FromContext(r.Context()).FlashError(NoticeMovieMissing)
	http.Redirect(w, r, guard.AdminHomePath, http.StatusFound)
}

func (h *AdminHandler) renderFormError(w http.ResponseWriter, r *http.Request, data MovieFormPageData, err error) {
	data.Error = err.Error()
	data.Fields = fieldErrors(err)
	h.views.render(w, r, http.StatusBadRequest, "movie_form.html", data)
}

func editAction(id uuid.UUID) string {
	return "/admin/movies/" + id.String()
}

// maxFormMemory is how much of a multipart body is held in memory. The rest
// spills to temporary files; LimitBody caps the total.
const maxFormMemory = 1 << 20

// parseForm fills r.PostForm from a urlencoded or multipart body.
func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(maxFormMemory)
	}
	return r.ParseForm()
}

// parseMovieForm reads a create or edit form. Genres may arrive as repeated
// checkbox values or as one comma-separated field.
func parseMovieForm(r *http.Request) (validation.MovieInput, MovieForm, error) {
	if err := parseForm(r); err != nil {
		return validation.MovieInput{}, MovieForm{}, fmt.Errorf("%w: unreadable form: %v", domain.ErrValidation, err)
	}
	f := r.PostForm

	form := MovieForm{
		Title:            f.Get("title"),
		Director:         f.Get("director"),
		Description:      f.Get("description"),
		PosterURL:        f.Get("posterUrl"),
		Rating:           f.Get("rating"),
		ReleaseDate:      f.Get("releaseDate"),
		ShownReleaseDate: f.Get("shownReleaseDate"),
		Duration:         f.Get("duration"),
		Cast:             f.Get("cast"),
		Genres:           strings.Join(f["genres"], ", "),
		ShowTimes:        f.Get("showTimes"),
		Language:         f.Get("language"),
		TheaterLocation:  f.Get("theaterLocation"),
		IsFull:           validation.ScalarOf(f.Get("isFull")).Truthy(),
	}

	input := validation.MovieInput{
		Title:           form.Title,
		Director:        form.Director,
		Description:     form.Description,
		PosterURL:       form.PosterURL,
		Rating:          form.Rating,
		ReleaseDate:     validation.ScalarOf(form.ReleaseDate),
		Duration:        validation.ScalarOf(form.Duration),
		Cast:            validation.ListFromString(form.Cast),
		ShowTimes:       validation.ListFromString(form.ShowTimes),
		Language:        form.Language,
		TheaterLocation: form.TheaterLocation,
		IsFull:          validation.ScalarOf(strconv.FormatBool(form.IsFull)),
	}
	if form.ShownReleaseDate != "" && form.ReleaseDate == form.ShownReleaseDate {
		input.ReleaseDate = validation.Scalar{}
	}
	if genres := f["genres"]; len(genres) > 1 {
		input.Genres = validation.ListFromSlice(genres)
	} else {
		input.Genres = validation.ListFromString(f.Get("genres"))
	}

	return input, form, nil
}

// formDateLayout matches a datetime-local input with one-second steps.
const formDateLayout = "2006-01-02T15:04:05"

func formFromMovie(m *domain.Movie) MovieForm {
	return MovieForm{
		Title:            m.Title,
		Director:         m.Director,
		Description:      m.Description,
		PosterURL:        m.PosterURL,
		Rating:           string(m.Rating),
		ReleaseDate:      m.ReleaseDate.UTC().Format(formDateLayout),
		ShownReleaseDate: m.ReleaseDate.UTC().Format(formDateLayout),
		Duration:         strconv.Itoa(m.Duration),
		Cast:             strings.Join(m.Cast, ", "),
		Genres:           strings.Join(m.Genres, ", "),
		ShowTimes:        strings.Join(m.ShowTimes, ", "),
		Language:         m.Language,
		TheaterLocation:  m.TheaterLocation,
		IsFull:           m.IsFull,
	}
}
