package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/repository"
)

const movieColumns = `id, title, slug, director, description, poster_url, rating, release_date, duration,
	cast_members, genres, show_times, language, theater_location, is_full, created_at, updated_at`

// movieRepository implements repository.MovieRepository for SQLite.
// List fields are stored as JSON arrays; genre membership uses json_each.
type movieRepository struct {
	db *DB
}

// NewMovieRepository creates a new SQLite movie repository.
func NewMovieRepository(db *DB) repository.MovieRepository {
	return &movieRepository{db: db}
}

// Create persists a new movie.
func (r *movieRepository) Create(ctx context.Context, movie *domain.Movie) error {
	if movie.ID == uuid.Nil {
		movie.ID = uuid.New()
	}
	movie.ReleaseDate = truncate(movie.ReleaseDate)
	movie.CreatedAt = truncate(movie.CreatedAt)
	movie.UpdatedAt = truncate(movie.UpdatedAt)

	cast, genres, showTimes, err := encodeLists(movie)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO movies (` + movieColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		movie.ID.String(),
		movie.Title,
		movie.Slug,
		movie.Director,
		movie.Description,
		movie.PosterURL,
		string(movie.Rating),
		formatTime(movie.ReleaseDate),
		movie.Duration,
		cast,
		genres,
		showTimes,
		movie.Language,
		movie.TheaterLocation,
		boolToInt(movie.IsFull),
		formatTime(movie.CreatedAt),
		formatTime(movie.UpdatedAt),
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
	query := `SELECT ` + movieColumns + ` FROM movies WHERE id = ?`

	movie, err := scanMovie(r.db.QueryRowContext(ctx, query, id.String()))
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
	movie.ReleaseDate = truncate(movie.ReleaseDate)

	cast, genres, showTimes, err := encodeLists(movie)
	if err != nil {
		return err
	}

	query := `
		UPDATE movies
		SET title = ?, slug = ?, director = ?, description = ?, poster_url = ?, rating = ?,
		    release_date = ?, duration = ?, cast_members = ?, genres = ?, show_times = ?,
		    language = ?, theater_location = ?, is_full = ?, updated_at = MAX(updated_at, ?)
		WHERE id = ?
		RETURNING updated_at
	`

	var updatedAt string
	err = r.db.QueryRowContext(ctx, query,
		movie.Title,
		movie.Slug,
		movie.Director,
		movie.Description,
		movie.PosterURL,
		string(movie.Rating),
		formatTime(movie.ReleaseDate),
		movie.Duration,
		cast,
		genres,
		showTimes,
		movie.Language,
		movie.TheaterLocation,
		boolToInt(movie.IsFull),
		formatTime(movie.UpdatedAt),
		movie.ID.String(),
	).Scan(&updatedAt)
	if err != nil {
		if isNoRows(err) {
			return domain.ErrMovieNotFound
		}
		if isCheckViolation(err) {
			return fmt.Errorf("%w: movie violates a stored constraint: %v", domain.ErrValidation, err)
		}
		return fmt.Errorf("failed to update movie: %w", err)
	}

	if movie.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return err
	}
	return nil
}

// ToggleFull flips is_full in a single statement.
func (r *movieRepository) ToggleFull(ctx context.Context, id uuid.UUID, at time.Time) (*domain.Movie, error) {
	query := `
		UPDATE movies
		SET is_full = 1 - is_full, updated_at = MAX(updated_at, ?)
		WHERE id = ?
		RETURNING ` + movieColumns

	movie, err := scanMovie(r.db.QueryRowContext(ctx, query, formatTime(at), id.String()))
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
	result, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}
	if rowsAffected == 0 {
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

	if q.Limit > 0 || q.Offset > 0 {
		limit := q.Limit
		if limit <= 0 {
			limit = -1
		}
		b.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, limit, q.Offset)
	}

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
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
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count movies: %w", err)
	}
	return total, nil
}

// CountByRating groups all movies by rating.
func (r *movieRepository) CountByRating(ctx context.Context) ([]domain.RatingCount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT rating, COUNT(*) FROM movies GROUP BY rating ORDER BY rating`)
	if err != nil {
		return nil, fmt.Errorf("failed to group movies by rating: %w", err)
	}
	defer rows.Close()

	counts := []domain.RatingCount{}
	for rows.Next() {
		var rc domain.RatingCount
		var rating string
		if err := rows.Scan(&rating, &rc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan rating count: %w", err)
		}
		rc.Rating = domain.Rating(rating)
		counts = append(counts, rc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rating counts: %w", err)
	}

	return counts, nil
}

// buildMovieFilter renders the WHERE clause (with a leading space) and its arguments.
func buildMovieFilter(f repository.MovieFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if f.Rating != "" {
		conds = append(conds, "rating = ?")
		args = append(args, string(f.Rating))
	}
	if f.Genre != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM json_each(movies.genres) AS g WHERE g.value = ?)")
		args = append(args, f.Genre)
	}
	if f.Director != "" {
		conds = append(conds, foldFunc+`(director) LIKE ? ESCAPE '\'`)
		args = append(args, repository.ContainsPattern(f.Director))
	}
	if f.IsFull != nil {
		conds = append(conds, "is_full = ?")
		args = append(args, boolToInt(*f.IsFull))
	}
	if f.ComingSoon != nil {
		if *f.ComingSoon {
			conds = append(conds, "release_date > ?")
		} else {
			conds = append(conds, "release_date <= ?")
		}
		args = append(args, formatTime(f.ReferenceTime()))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func encodeLists(movie *domain.Movie) (cast, genres, showTimes string, err error) {
	encode := func(items []string) (string, error) {
		if items == nil {
			items = []string{}
		}
		b, err := json.Marshal(items)
		if err != nil {
			return "", fmt.Errorf("failed to encode list: %w", err)
		}
		return string(b), nil
	}

	if cast, err = encode(movie.Cast); err != nil {
		return
	}
	if genres, err = encode(movie.Genres); err != nil {
		return
	}
	showTimes, err = encode(movie.ShowTimes)
	return
}

func scanMovie(row rowScanner) (*domain.Movie, error) {
	movie := &domain.Movie{}
	var id, rating, releaseDate, createdAt, updatedAt string
	var cast, genres, showTimes string
	var isFull int

	err := row.Scan(
		&id,
		&movie.Title,
		&movie.Slug,
		&movie.Director,
		&movie.Description,
		&movie.PosterURL,
		&rating,
		&releaseDate,
		&movie.Duration,
		&cast,
		&genres,
		&showTimes,
		&movie.Language,
		&movie.TheaterLocation,
		&isFull,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if movie.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("malformed movie id %q: %w", id, err)
	}
	movie.Rating = domain.Rating(rating)
	movie.IsFull = isFull != 0

	for _, list := range []struct {
		raw string
		dst *[]string
	}{
		{cast, &movie.Cast},
		{genres, &movie.Genres},
		{showTimes, &movie.ShowTimes},
	} {
		*list.dst = []string{}
		if err := json.Unmarshal([]byte(list.raw), list.dst); err != nil {
			return nil, fmt.Errorf("malformed stored list: %w", err)
		}
	}

	if movie.ReleaseDate, err = parseTime(releaseDate); err != nil {
		return nil, err
	}
	if movie.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if movie.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return movie, nil
}

// Ensure movieRepository implements repository.MovieRepository.
var _ repository.MovieRepository = (*movieRepository)(nil)
