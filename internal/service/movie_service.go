package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/metrics"
	"github.com/prn-tf/marquee/internal/repository"
	"github.com/prn-tf/marquee/internal/validation"
)

// MovieService handles the movie record lifecycle.
type MovieService struct {
	movies  repository.MovieRepository
	metrics *metrics.Metrics
	now     func() time.Time
	logger  zerolog.Logger
}

// NewMovieService creates a new MovieService.
func NewMovieService(movies repository.MovieRepository, m *metrics.Metrics, logger zerolog.Logger) *MovieService {
	return &MovieService{
		movies:  movies,
		metrics: m,
		now:     time.Now,
		logger:  logger.With().Str("service", "movie").Logger(),
	}
}

// Now returns the service clock, used to derive presentation state.
func (s *MovieService) Now() time.Time {
	return s.now().UTC()
}

// ParseMovieID parses a path id. Malformed ids are reported as not found.
func ParseMovieID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, domain.ErrMovieNotFound
	}
	return id, nil
}

// Get retrieves a movie by ID.
func (s *MovieService) Get(ctx context.Context, id uuid.UUID) (*domain.Movie, error) {
	movie, err := s.movies.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "get movie")
	}
	return movie, nil
}

// Create validates a candidate and persists it.
func (s *MovieService) Create(ctx context.Context, input validation.MovieInput) (movie *domain.Movie, err error) {
	defer func() { s.metrics.RecordMovieMutation("create", err) }()

	movie, err = validation.Normalize(input)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	movie.CreatedAt = now
	movie.UpdatedAt = now

	if err := s.movies.Create(ctx, movie); err != nil {
		s.logger.Error().Err(err).Str("title", movie.Title).Msg("failed to create movie")
		return nil, storageError(err, "create movie")
	}

	s.logger.Info().
		Str("movie_id", movie.ID.String()).
		Str("title", movie.Title).
		Str("rating", string(movie.Rating)).
		Msg("movie created")

	return movie, nil
}

// Update merges the supplied fields onto the stored record, re-validates the
// result and persists it. Concurrent updates are last-write-wins.
func (s *MovieService) Update(ctx context.Context, id uuid.UUID, patch validation.MovieInput) (movie *domain.Movie, err error) {
	defer func() { s.metrics.RecordMovieMutation("update", err) }()

	existing, err := s.movies.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "get movie")
	}

	movie, err = validation.Normalize(validation.Merge(existing, patch))
	if err != nil {
		return nil, err
	}

	movie.ID = existing.ID
	movie.CreatedAt = existing.CreatedAt
	movie.UpdatedAt = s.Now()

	if err := s.movies.Update(ctx, movie); err != nil {
		s.logger.Error().Err(err).Str("movie_id", id.String()).Msg("failed to update movie")
		return nil, storageError(err, "update movie")
	}

	s.logger.Info().
		Str("movie_id", movie.ID.String()).
		Str("title", movie.Title).
		Msg("movie updated")

	return movie, nil
}

// ToggleFull flips the full flag atomically and returns the updated movie.
func (s *MovieService) ToggleFull(ctx context.Context, id uuid.UUID) (movie *domain.Movie, err error) {
	defer func() { s.metrics.RecordMovieMutation("toggle_full", err) }()

	movie, err = s.movies.ToggleFull(ctx, id, s.Now())
	if err != nil {
		if domain.KindOf(err) != domain.KindNotFound {
			s.logger.Error().Err(err).Str("movie_id", id.String()).Msg("failed to toggle movie")
		}
		return nil, storageError(err, "toggle movie")
	}

	s.logger.Info().
		Str("movie_id", movie.ID.String()).
		Bool("is_full", movie.IsFull).
		Msg("movie availability toggled")

	return movie, nil
}

// Delete removes a movie permanently.
func (s *MovieService) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer func() { s.metrics.RecordMovieMutation("delete", err) }()

	if err := s.movies.Delete(ctx, id); err != nil {
		if domain.KindOf(err) != domain.KindNotFound {
			s.logger.Error().Err(err).Str("movie_id", id.String()).Msg("failed to delete movie")
		}
		return storageError(err, "delete movie")
	}

	s.logger.Info().Str("movie_id", id.String()).Msg("movie deleted")
	return nil
}
