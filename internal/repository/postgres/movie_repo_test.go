package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/marquee/internal/config"
	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/repository"
)

// newTestDB connects to the database named by MARQUEE_TEST_POSTGRES_DSN,
// migrates it and empties both tables. The test is skipped without a DSN.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("MARQUEE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MARQUEE_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	db, err := NewDB(ctx, config.DatabaseConfig{Driver: "postgres", URL: dsn}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))
	_, err = db.Pool.Exec(ctx, `TRUNCATE movies, managers RESTART IDENTITY`)
	require.NoError(t, err)

	return db
}

var referenceNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newMovie(title string, rating domain.Rating, release time.Time, genres ...string) *domain.Movie {
	if len(genres) == 0 {
		genres = []string{"Drama"}
	}
	return &domain.Movie{
		Title:           title,
		Slug:            title,
		Director:        "Ann Hui",
		Description:     "A film.",
		PosterURL:       "https://example.com/p.jpg",
		Rating:          rating,
		ReleaseDate:     release,
		Duration:        110,
		Cast:            []string{},
		Genres:          genres,
		ShowTimes:       []string{"20:00"},
		Language:        "Cantonese",
		TheaterLocation: domain.DefaultTheaterLocation,
		CreatedAt:       referenceNow,
		UpdatedAt:       referenceNow,
	}
}

func TestMovieRepository_Lifecycle(t *testing.T) {
	repo := NewMovieRepository(newTestDB(t))
	ctx := context.Background()

	movie := newMovie("A Simple Life", domain.RatingI, referenceNow.AddDate(0, 0, -3))
	require.NoError(t, repo.Create(ctx, movie))

	got, err := repo.GetByID(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, movie, got)

	toggled, err := repo.ToggleFull(ctx, movie.ID, referenceNow.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, toggled.IsFull)

	toggled, err = repo.ToggleFull(ctx, movie.ID, referenceNow.Add(2*time.Minute))
	require.NoError(t, err)
	assert.False(t, toggled.IsFull)

	require.NoError(t, repo.Delete(ctx, movie.ID))
	_, err = repo.GetByID(ctx, movie.ID)
	assert.ErrorIs(t, err, domain.ErrMovieNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), domain.ErrMovieNotFound)
}

func TestMovieRepository_QueryEngine(t *testing.T) {
	repo := NewMovieRepository(newTestDB(t))
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		genre := "Drama"
		if i%5 == 0 {
			genre = "Comedy"
		}
		m := newMovie(fmt.Sprintf("Movie %02d", i), domain.RatingIIA, referenceNow.AddDate(0, 0, 2-i), genre)
		require.NoError(t, repo.Create(ctx, m))
	}

	page, err := repo.Find(ctx, repository.MovieQuery{Sort: repository.DefaultMovieSort, Offset: 20, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page, 5)

	comedies, err := repo.Count(ctx, repository.MovieFilter{Genre: "Comedy"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), comedies)

	yes := true
	upcoming, err := repo.Count(ctx, repository.MovieFilter{ComingSoon: &yes, Now: referenceNow})
	require.NoError(t, err)
	assert.Equal(t, int64(2), upcoming)

	counts, err := repo.CountByRating(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.RatingCount{{Rating: domain.RatingIIA, Count: 25}}, counts)
}

func TestMovieRepository_DirectorFilterFoldsUnicode(t *testing.T) {
	repo := NewMovieRepository(newTestDB(t))
	ctx := context.Background()

	movie := newMovie("Le Voyage", domain.RatingIIA, referenceNow.AddDate(0, 0, -5))
	movie.Director = "ÉMILE Çava"
	require.NoError(t, repo.Create(ctx, movie))

	for _, q := range []string{"ÉMILE", "émile", "Émile", "çava"} {
		count, err := repo.Count(ctx, repository.MovieFilter{Director: q})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count, "director query %q", q)
	}
}

func TestManagerRepository_Lifecycle(t *testing.T) {
	repo := NewManagerRepository(newTestDB(t))
	ctx := context.Background()

	m := domain.NewManager("alice", "alice@example.com", "hash")
	require.NoError(t, repo.Create(ctx, m))
	assert.NotZero(t, m.ID)

	err := repo.Create(ctx, domain.NewManager("alice", "x@example.com", "hash"))
	assert.ErrorIs(t, err, domain.ErrManagerAlreadyExists)

	m.IsActive = false
	require.NoError(t, repo.Update(ctx, m))
	_, err = repo.GetActiveByUsername(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrManagerNotFound)

	require.NoError(t, repo.UpdateLastLogin(ctx, m.ID, referenceNow))
	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.True(t, got.LastLogin.Equal(referenceNow))
}
