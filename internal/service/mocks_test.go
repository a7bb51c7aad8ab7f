package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/repository"
)

// MockManagerRepository is an in-memory implementation of repository.ManagerRepository.
type MockManagerRepository struct {
	mu       sync.Mutex
	managers map[int64]*domain.Manager
	nextID   int64
	calls    int
}

func NewMockManagerRepository() *MockManagerRepository {
	return &MockManagerRepository{
		managers: make(map[int64]*domain.Manager),
		nextID:   1,
	}
}

func (m *MockManagerRepository) touch() {
	m.calls++
}

func (m *MockManagerRepository) Create(ctx context.Context, manager *domain.Manager) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	for _, existing := range m.managers {
		if existing.Username == manager.Username || existing.Email == manager.Email {
			return domain.ErrManagerAlreadyExists
		}
	}
	manager.ID = m.nextID
	m.nextID++
	cp := *manager
	m.managers[manager.ID] = &cp
	return nil
}

func (m *MockManagerRepository) GetByID(ctx context.Context, id int64) (*domain.Manager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	if existing, ok := m.managers[id]; ok {
		cp := *existing
		return &cp, nil
	}
	return nil, domain.ErrManagerNotFound
}

func (m *MockManagerRepository) GetByUsername(ctx context.Context, username string) (*domain.Manager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	for _, existing := range m.managers {
		if existing.Username == username {
			cp := *existing
			return &cp, nil
		}
	}
	return nil, domain.ErrManagerNotFound
}

func (m *MockManagerRepository) GetActiveByUsername(ctx context.Context, username string) (*domain.Manager, error) {
	manager, err := m.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !manager.IsActive {
		return nil, domain.ErrManagerNotFound
	}
	return manager, nil
}

func (m *MockManagerRepository) Update(ctx context.Context, manager *domain.Manager) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	if _, ok := m.managers[manager.ID]; !ok {
		return domain.ErrManagerNotFound
	}
	cp := *manager
	m.managers[manager.ID] = &cp
	return nil
}

func (m *MockManagerRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	existing, ok := m.managers[id]
	if !ok {
		return domain.ErrManagerNotFound
	}
	existing.LastLogin = &at
	return nil
}

func (m *MockManagerRepository) List(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[domain.Manager], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	items := make([]*domain.Manager, 0, len(m.managers))
	for _, existing := range m.managers {
		cp := *existing
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return &repository.ListResult[domain.Manager]{Items: items, Total: int64(len(items)), Limit: opts.Limit}, nil
}

func (m *MockManagerRepository) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	return int64(len(m.managers)), nil
}

func (m *MockManagerRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := m.GetByUsername(ctx, username)
	return err == nil, nil
}

func (m *MockManagerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.managers {
		if existing.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// FaultyManagerRepository scripts repository failures with testify/mock.
type FaultyManagerRepository struct {
	mock.Mock
}

func (m *FaultyManagerRepository) Create(ctx context.Context, manager *domain.Manager) error {
	return m.Called(ctx, manager).Error(0)
}

func (m *FaultyManagerRepository) GetByID(ctx context.Context, id int64) (*domain.Manager, error) {
	args := m.Called(ctx, id)
	manager, _ := args.Get(0).(*domain.Manager)
	return manager, args.Error(1)
}

func (m *FaultyManagerRepository) GetByUsername(ctx context.Context, username string) (*domain.Manager, error) {
	args := m.Called(ctx, username)
	manager, _ := args.Get(0).(*domain.Manager)
	return manager, args.Error(1)
}

func (m *FaultyManagerRepository) GetActiveByUsername(ctx context.Context, username string) (*domain.Manager, error) {
	args := m.Called(ctx, username)
	manager, _ := args.Get(0).(*domain.Manager)
	return manager, args.Error(1)
}

func (m *FaultyManagerRepository) Update(ctx context.Context, manager *domain.Manager) error {
	return m.Called(ctx, manager).Error(0)
}

func (m *FaultyManagerRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *FaultyManagerRepository) List(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[domain.Manager], error) {
	args := m.Called(ctx, opts)
	result, _ := args.Get(0).(*repository.ListResult[domain.Manager])
	return result, args.Error(1)
}

func (m *FaultyManagerRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *FaultyManagerRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *FaultyManagerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockMovieRepository is an in-memory implementation of repository.MovieRepository.
type MockMovieRepository struct {
	mu     sync.Mutex
	movies map[uuid.UUID]*domain.Movie
	err    error
}

func NewMockMovieRepository() *MockMovieRepository {
	return &MockMovieRepository{movies: make(map[uuid.UUID]*domain.Movie)}
}

func clone(m *domain.Movie) *domain.Movie {
	cp := *m
	cp.Cast = append([]string{}, m.Cast...)
	cp.Genres = append([]string{}, m.Genres...)
	cp.ShowTimes = append([]string{}, m.ShowTimes...)
	return &cp
}

func (r *MockMovieRepository) Create(ctx context.Context, movie *domain.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if movie.ID == uuid.Nil {
		movie.ID = uuid.New()
	}
	r.movies[movie.ID] = clone(movie)
	return nil
}

func (r *MockMovieRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if m, ok := r.movies[id]; ok {
		return clone(m), nil
	}
	return nil, domain.ErrMovieNotFound
}

func (r *MockMovieRepository) Update(ctx context.Context, movie *domain.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	existing, ok := r.movies[movie.ID]
	if !ok {
		return domain.ErrMovieNotFound
	}
	if movie.UpdatedAt.Before(existing.UpdatedAt) {
		movie.UpdatedAt = existing.UpdatedAt
	}
	r.movies[movie.ID] = clone(movie)
	return nil
}

func (r *MockMovieRepository) ToggleFull(ctx context.Context, id uuid.UUID, at time.Time) (*domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	existing, ok := r.movies[id]
	if !ok {
		return nil, domain.ErrMovieNotFound
	}
	existing.IsFull = !existing.IsFull
	if at.After(existing.UpdatedAt) {
		existing.UpdatedAt = at
	}
	return clone(existing), nil
}

func (r *MockMovieRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.movies[id]; !ok {
		return domain.ErrMovieNotFound
	}
	delete(r.movies, id)
	return nil
}

func matches(m *domain.Movie, f repository.MovieFilter) bool {
	if f.Rating != "" && m.Rating != f.Rating {
		return false
	}
	if f.Genre != "" {
		found := false
		for _, g := range m.Genres {
			if g == f.Genre {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if f.Director != "" && !strings.Contains(strings.ToLower(m.Director), strings.ToLower(f.Director)) {
		return false
	}
	if f.IsFull != nil && m.IsFull != *f.IsFull {
		return false
	}
	if f.ComingSoon != nil && m.ReleaseDate.After(f.ReferenceTime()) != *f.ComingSoon {
		return false
	}
	return true
}

func (r *MockMovieRepository) filter(f repository.MovieFilter) []*domain.Movie {
	var out []*domain.Movie
	for _, m := range r.movies {
		if matches(m, f) {
			out = append(out, clone(m))
		}
	}
	return out
}

func (r *MockMovieRepository) Find(ctx context.Context, q repository.MovieQuery) ([]*domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}

	out := r.filter(q.Filter)
	less := func(a, b *domain.Movie) bool {
		switch q.Sort.Field {
		case repository.SortTitle:
			return a.Title < b.Title
		case repository.SortCreatedAt:
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.ReleaseDate.Before(b.ReleaseDate)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.Sort.Descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})

	if q.Offset >= len(out) {
		return []*domain.Movie{}, nil
	}
	out = out[q.Offset:]
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *MockMovieRepository) Count(ctx context.Context, f repository.MovieFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	return int64(len(r.filter(f))), nil
}

func (r *MockMovieRepository) CountByRating(ctx context.Context) ([]domain.RatingCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	counts := map[domain.Rating]int64{}
	for _, m := range r.movies {
		counts[m.Rating]++
	}
	out := []domain.RatingCount{}
	for _, rating := range domain.Ratings {
		if n := counts[rating]; n > 0 {
			out = append(out, domain.RatingCount{Rating: rating, Count: n})
		}
	}
	return out, nil
}

var (
	_ repository.ManagerRepository = (*MockManagerRepository)(nil)
	_ repository.ManagerRepository = (*FaultyManagerRepository)(nil)
	_ repository.MovieRepository   = (*MockMovieRepository)(nil)
)
