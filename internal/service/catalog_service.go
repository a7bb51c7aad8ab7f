package service

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/repository"
)

// Pagination bounds.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// CatalogQuery is a filtered, sorted, paginated catalog request.
type CatalogQuery struct {
	Filter repository.MovieFilter
	Sort   repository.MovieSort
	Page   int
	Limit  int
}

// CatalogPage is one page of results.
type CatalogPage struct {
	Movies     []*domain.Movie
	Page       int
	Limit      int
	Total      int64
	TotalPages int
}

// CatalogService answers read queries over the movie catalog.
type CatalogService struct {
	movies repository.MovieRepository
	now    func() time.Time
	logger zerolog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(movies repository.MovieRepository, logger zerolog.Logger) *CatalogService {
	return &CatalogService{
		movies: movies,
		now:    time.Now,
		logger: logger.With().Str("service", "catalog").Logger(),
	}
}

// Now returns the reference instant used for release windows.
func (s *CatalogService) Now() time.Time {
	return s.now().UTC()
}

// ParseCatalogQuery reads the public query-string contract:
// rating, genre, director, isFull, comingSoon, page, limit and sort.
func ParseCatalogQuery(v url.Values) CatalogQuery {
	q := CatalogQuery{
		Filter: repository.MovieFilter{
			Rating:   domain.Rating(strings.TrimSpace(v.Get("rating"))),
			Genre:    strings.TrimSpace(v.Get("genre")),
			Director: strings.TrimSpace(v.Get("director")),
		},
		Sort:  ParseSort(v.Get("sort")),
		Page:  parseInt(v.Get("page"), DefaultPage),
		Limit: parseInt(v.Get("limit"), DefaultLimit),
	}

	if v.Has("isFull") {
		full := v.Get("isFull") == "true"
		q.Filter.IsFull = &full
	}

	switch v.Get("comingSoon") {
	case "true":
		yes := true
		q.Filter.ComingSoon = &yes
	case "false":
		no := false
		q.Filter.ComingSoon = &no
	}

	return q
}

// ParseSort reads "[-]field". Unknown fields fall back to the default order.
func ParseSort(raw string) repository.MovieSort {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return repository.DefaultMovieSort
	}

	sort := repository.MovieSort{}
	if strings.HasPrefix(raw, "-") {
		sort.Descending = true
		raw = raw[1:]
	}
	sort.Field = repository.SortField(raw)

	if !sort.Field.IsValid() {
		return repository.DefaultMovieSort
	}
	return sort
}

func parseInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return n
}

// normalize clamps page and limit and fills the defaults.
func (q CatalogQuery) normalize() CatalogQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 1
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if !q.Sort.Field.IsValid() {
		q.Sort = repository.DefaultMovieSort
	}
	return q
}

// FindMany returns one page of matching movies and the pagination totals.
func (s *CatalogService) FindMany(ctx context.Context, q CatalogQuery) (*CatalogPage, error) {
	q = q.normalize()
	if q.Filter.Now.IsZero() {
		q.Filter.Now = s.Now()
	}

	total, err := s.movies.Count(ctx, q.Filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count movies")
		return nil, storageError(err, "count movies")
	}

	movies, err := s.movies.Find(ctx, repository.MovieQuery{
		Filter: q.Filter,
		Sort:   q.Sort,
		Offset: (q.Page - 1) * q.Limit,
		Limit:  q.Limit,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to find movies")
		return nil, storageError(err, "find movies")
	}

	return &CatalogPage{
		Movies:     movies,
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: int((total + int64(q.Limit) - 1) / int64(q.Limit)),
	}, nil
}

// Released returns every released movie, newest release first, optionally
// restricted to one rating.
func (s *CatalogService) Released(ctx context.Context, rating domain.Rating) ([]*domain.Movie, error) {
	released := false
	return s.list(ctx, repository.MovieFilter{Rating: rating, ComingSoon: &released}, repository.DefaultMovieSort)
}

// All returns every movie in the given order.
func (s *CatalogService) All(ctx context.Context, sort repository.MovieSort) ([]*domain.Movie, error) {
	return s.list(ctx, repository.MovieFilter{}, sort)
}

func (s *CatalogService) list(ctx context.Context, filter repository.MovieFilter, sort repository.MovieSort) ([]*domain.Movie, error) {
	if filter.Now.IsZero() {
		filter.Now = s.Now()
	}

	movies, err := s.movies.Find(ctx, repository.MovieQuery{Filter: filter, Sort: sort})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list movies")
		return nil, storageError(err, "list movies")
	}
	return movies, nil
}

// Stats aggregates the catalog live, using the same filter semantics as FindMany.
func (s *CatalogService) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	now := s.Now()
	yes, no := true, false

	total, err := s.movies.Count(ctx, repository.MovieFilter{Now: now})
	if err != nil {
		return nil, storageError(err, "count movies")
	}

	byRating, err := s.movies.CountByRating(ctx)
	if err != nil {
		return nil, storageError(err, "group movies by rating")
	}

	showing, err := s.movies.Count(ctx, repository.MovieFilter{ComingSoon: &no, IsFull: &no, Now: now})
	if err != nil {
		return nil, storageError(err, "count showing movies")
	}

	comingSoon, err := s.movies.Count(ctx, repository.MovieFilter{ComingSoon: &yes, Now: now})
	if err != nil {
		return nil, storageError(err, "count upcoming movies")
	}

	full, err := s.movies.Count(ctx, repository.MovieFilter{IsFull: &yes, Now: now})
	if err != nil {
		return nil, storageError(err, "count full movies")
	}

	return &domain.CatalogStats{
		Total:    total,
		ByRating: byRating,
		ByStatus: domain.StatusCounts{
			Showing:    showing,
			ComingSoon: comingSoon,
			Full:       full,
		},
	}, nil
}
