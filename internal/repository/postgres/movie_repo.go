package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/repository"
)

const movieColumns = `id, title, slug, director, description, poster_url, rating, release_date, duration,
	cast_members, genres, show_times, language, theater_location, is_full, created_at, updated_at`

// movieRepository implements repository.MovieRepository.
type movieRepository struct {
	db *DB
}

// NewMovieRepository creates a new PostgreSQL movie repository.
func NewMovieRepository(db *DB) repository.MovieRepository {
	return &movieRepository{db: db}
}

// Create persists a new movie.
func (r *movieRepository) Create(ctx context.Context, movie *domain.Movie) error {
	if movie.ID == uuid.Nil {
		movie.ID = uuid.New()
	}
	movie.ReleaseDate = movie.ReleaseDate.UTC().Truncate(time.Microsecond)
	movie.CreatedAt = movie.CreatedAt.UTC().Truncate(time.Microsecond)
	movie.UpdatedAt = movie.UpdatedAt.UTC().Truncate(time.Microsecond)

	query := `
		INSERT INTO movies (` + movieColumns + `, director_folded)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		movie.ID,
		movie.Title,
		movie.Slug,
		movie.Director,
		movie.Description,
		movie.PosterURL,
		string(movie.Rating),
		movie.ReleaseDate,
		movie.Duration,
		nonNil(movie.Cast),
		nonNil(movie.Genres),
		nonNil(movie.ShowTimes),
		movie.Language,
		movie.TheaterLocation,
		movie.IsFull,
		movie.CreatedAt,
		movie.UpdatedAt,
		strings.ToLower(movie.Director),
	)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: movie violates a stored constraint: %v", domain.ErrValidation, err)
		}
		return fmt.Errorf("failed to create movie: %w", err)
	}

	return nil
}

// GetByID retrieves a movie by ID.
func (r *movieRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Movie, error) {
	movie, err := scanMovie(r.db.Pool.QueryRow(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	return movie, nil
}

// Update replaces every mutable field. updated_at never moves backwards.
func (r *movieRepository) Update(ctx context.Context, movie *domain.Movie) error {
	movie.ReleaseDate = movie.ReleaseDate.UTC().Truncate(time.Microsecond)

	query := `
		UPDATE movies
		SET title = $1, slug = $2, director = $3, description = $4, poster_url = $5, rating = $6,
		    release_date = $7, duration = $8, cast_members = $9, genres = $10, show_times = $11,
		    language = $12, theater_location = $13, is_full = $14, updated_at = GREATEST(updated_at, $15),
		    director_folded = $17
		WHERE id = $16
		RETURNING updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		movie.Title,
		movie.Slug,
		movie.Director,
		movie.Description,
		movie.PosterURL,
		string(movie.Rating),
		movie.ReleaseDate,
		movie.Duration,
		nonNil(movie.Cast),
		nonNil(movie.Genres),
		nonNil(movie.ShowTimes),
		movie.Language,
		movie.TheaterLocation,
		movie.IsFull,
		movie.UpdatedAt.UTC(),
		movie.ID,
		strings.ToLower(movie.Director),
	).Scan(&movie.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return domain.ErrMovieNotFound
		}
		if isCheckViolation(err) {
			return fmt.Errorf("%w: movie violates a stored constraint: %v", domain.ErrValidation, err)
		}
		return fmt.Errorf("failed to update movie: %w", err)
	}

	movie.UpdatedAt = movie.UpdatedAt.UTC()
	return nil
}

// ToggleFull flips is_full in a single statement.
func (r *movieRepository) ToggleFull(ctx context.Context, id uuid.UUID, at time.Time) (*domain.Movie, error) {
	query := `
		UPDATE movies
		SET is_full = NOT is_full, updated_at = GREATEST(updated_at, $1)
		WHERE id = $2
		RETURNING ` + movieColumns

	movie, err := scanMovie(r.db.Pool.QueryRow(ctx, query, at.UTC(), id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to toggle movie: %w", err)
	}
	return movie, nil
}

// Delete removes a movie permanently.
func (r *movieRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrMovieNotFound
	}

	return nil
}

// Find returns the movies matching the query.
func (r *movieRepository) Find(ctx context.Context, q repository.MovieQuery) ([]*domain.Movie, error) {
	where, args := buildMovieFilter(q.Filter)

	var b strings.Builder
	b.WriteString(`SELECT ` + movieColumns + ` FROM movies`)
	b.WriteString(where)
	b.WriteString(" ")
	b.WriteString(repository.OrderBy(q.Sort))

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}

	rows, err := r.db.Pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	movies := []*domain.Movie{}
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, movie)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movies: %w", err)
	}

	return movies, nil
}

// Count returns the number of movies matching the filter.
func (r *movieRepository) Count(ctx context.Context, filter repository.MovieFilter) (int64, error) {
	where, args := buildMovieFilter(filter)

	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM movies`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count movies: %w", err)
	}
	return total, nil
}

// CountByRating groups all movies by rating.
func (r *movieRepository) CountByRating(ctx context.Context) ([]domain.RatingCount, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT rating, COUNT(*) FROM movies GROUP BY rating ORDER BY rating COLLATE "C"`)
	if err != nil {
		return nil, fmt.Errorf("failed to group movies by rating: %w", err)
	}
	defer rows.Close()

	counts := []domain.RatingCount{}
	for rows.Next() {
		var rating string
		var count int64
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, fmt.Errorf("failed to scan rating count: %w", err)
		}
		counts = append(counts, domain.RatingCount{Rating: domain.Rating(rating), Count: count})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rating counts: %w", err)
	}

	return counts, nil
}

// buildMovieFilter renders the WHERE clause (with a leading space) and its
// positional arguments starting at $1.
func buildMovieFilter(f repository.MovieFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Rating != "" {
		add("rating = $%d", string(f.Rating))
	}
	if f.Genre != "" {
		add("$%d = ANY(genres)", f.Genre)
	}
	if f.Director != "" {
		add(`director_folded LIKE $%d ESCAPE '\'`, repository.ContainsPattern(f.Director))
	}
	if f.IsFull != nil {
		add("is_full = $%d", *f.IsFull)
	}
	if f.ComingSoon != nil {
		if *f.ComingSoon {
			add("release_date > $%d", f.ReferenceTime())
		} else {
			add("release_date <= $%d", f.ReferenceTime())
		}
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func scanMovie(row pgx.Row) (*domain.Movie, error) {
	movie := &domain.Movie{}
	var rating string

	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Slug,
		&movie.Director,
		&movie.Description,
		&movie.PosterURL,
		&rating,
		&movie.ReleaseDate,
		&movie.Duration,
		&movie.Cast,
		&movie.Genres,
		&movie.ShowTimes,
		&movie.Language,
		&movie.TheaterLocation,
		&movie.IsFull,
		&movie.CreatedAt,
		&movie.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	movie.Rating = domain.Rating(rating)
	movie.ReleaseDate = movie.ReleaseDate.UTC()
	movie.CreatedAt = movie.CreatedAt.UTC()
	movie.UpdatedAt = movie.UpdatedAt.UTC()
	movie.Cast = nonNil(movie.Cast)
	movie.Genres = nonNil(movie.Genres)
	movie.ShowTimes = nonNil(movie.ShowTimes)

	return movie, nil
}

// Ensure movieRepository implements repository.MovieRepository.
var _ repository.MovieRepository = (*movieRepository)(nil)
