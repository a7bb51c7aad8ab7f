// Package repository defines data access interfaces for Marquee.
// These interfaces abstract database operations, allowing for different implementations
// (SQLite, PostgreSQL, in-memory for testing) while keeping the service layer clean.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/marquee/internal/domain"
)

// =============================================================================
// Manager Repository
// =============================================================================

// ManagerRepository defines the interface for manager account data access.
type ManagerRepository interface {
	// Create creates a new manager and assigns its ID.
	// Returns domain.ErrManagerAlreadyExists on a username or email collision.
	Create(ctx context.Context, manager *domain.Manager) error

	// GetByID retrieves a manager by ID.
	GetByID(ctx context.Context, id int64) (*domain.Manager, error)

	// GetByUsername retrieves a manager by (lowercase) username regardless of status.
	GetByUsername(ctx context.Context, username string) (*domain.Manager, error)

	// GetActiveByUsername retrieves an active manager by (lowercase) username.
	// This is the lookup used for login.
	GetActiveByUsername(ctx context.Context, username string) (*domain.Manager, error)

	// Update updates an existing manager.
	Update(ctx context.Context, manager *domain.Manager) error

	// UpdateLastLogin sets the last_login timestamp.
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error

	// List returns managers with pagination, newest first.
	List(ctx context.Context, opts ListOptions) (*ListResult[domain.Manager], error)

	// Count returns the number of manager accounts.
	Count(ctx context.Context) (int64, error)

	// ExistsByUsername checks if a manager with the given username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail checks if a manager with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// =============================================================================
// Movie Repository
// =============================================================================

// MovieRepository defines the interface for movie data access.
type MovieRepository interface {
	// Create persists a new movie. A zero ID is replaced with a fresh UUID.
	Create(ctx context.Context, movie *domain.Movie) error

	// GetByID retrieves a movie by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Movie, error)

	// Update replaces every mutable field of an existing movie.
	// Concurrent updates of the same movie are last-write-wins.
	Update(ctx context.Context, movie *domain.Movie) error

	// ToggleFull atomically flips is_full and returns the updated movie.
	ToggleFull(ctx context.Context, id uuid.UUID, at time.Time) (*domain.Movie, error)

	// Delete removes a movie permanently.
	Delete(ctx context.Context, id uuid.UUID) error

	// Find returns the movies matching the query in the requested order.
	Find(ctx context.Context, query MovieQuery) ([]*domain.Movie, error)

	// Count returns the number of movies matching the filter.
	Count(ctx context.Context, filter MovieFilter) (int64, error)

	// CountByRating groups all movies by rating, ordered by rating.
	CountByRating(ctx context.Context) ([]domain.RatingCount, error)
}

// MovieFilter restricts which movies a query matches. Zero values mean "no constraint".
type MovieFilter struct {
	// Rating matches exactly.
	Rating domain.Rating

	// Genre must be a member of the movie's genres.
	Genre string

	// Director matches as a case-insensitive substring.
	Director string

	// IsFull matches exactly when set.
	IsFull *bool

	// ComingSoon selects unreleased (true) or released (false) movies when set.
	ComingSoon *bool

	// Now is the reference instant for ComingSoon. Zero means time.Now().
	Now time.Time
}

// ReferenceTime returns the instant used to evaluate release windows.
func (f MovieFilter) ReferenceTime() time.Time {
	if f.Now.IsZero() {
		return time.Now().UTC()
	}
	return f.Now.UTC()
}

// SortField names a sortable movie attribute.
type SortField string

const (
	SortReleaseDate SortField = "releaseDate"
	SortCreatedAt   SortField = "createdAt"
	SortUpdatedAt   SortField = "updatedAt"
	SortTitle       SortField = "title"
	SortDirector    SortField = "director"
	SortDuration    SortField = "duration"
	SortRating      SortField = "rating"
)

// IsValid returns true if the field may be sorted on.
func (f SortField) IsValid() bool {
	switch f {
	case SortReleaseDate, SortCreatedAt, SortUpdatedAt, SortTitle, SortDirector, SortDuration, SortRating:
		return true
	default:
		return false
	}
}

// MovieSort is an ordering over one field.
type MovieSort struct {
	Field      SortField
	Descending bool
}

// DefaultMovieSort is newest release first.
var DefaultMovieSort = MovieSort{Field: SortReleaseDate, Descending: true}

// MovieQuery combines a filter, an ordering and an optional window.
type MovieQuery struct {
	Filter MovieFilter
	Sort   MovieSort

	// Offset is the number of matching movies to skip.
	Offset int

	// Limit is the maximum number of movies to return. Zero means no limit.
	Limit int
}

// =============================================================================
// Common Types
// =============================================================================

// ListOptions contains common pagination options.
type ListOptions struct {
	// Offset is the number of items to skip.
	Offset int

	// Limit is the maximum number of items to return.
	Limit int
}

// ListResult contains a paginated list result.
type ListResult[T any] struct {
	// Items contains the returned items.
	Items []*T

	// Total is the total number of items (for pagination).
	Total int64

	// Offset is the offset used in the query.
	Offset int

	// Limit is the limit used in the query.
	Limit int
}

// Repositories holds all repository instances.
type Repositories struct {
	Manager ManagerRepository
	Movie   MovieRepository
}

// DatabaseHealth is an interface for database health checks.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}

// Migrator applies the embedded schema migrations.
type Migrator interface {
	Migrate(ctx context.Context) error
	Version(ctx context.Context) (int, error)
}
