package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/repository"
)

const managerColumns = `id, username, email, display_name, password_hash, role, is_active, last_login, created_at, updated_at`

// managerRepository implements repository.ManagerRepository.
type managerRepository struct {
	db *DB
}

// NewManagerRepository creates a new PostgreSQL manager repository.
func NewManagerRepository(db *DB) repository.ManagerRepository {
	return &managerRepository{db: db}
}

// Create creates a new manager.
func (r *managerRepository) Create(ctx context.Context, manager *domain.Manager) error {
	manager.CreatedAt = manager.CreatedAt.UTC().Truncate(time.Microsecond)
	manager.UpdatedAt = manager.UpdatedAt.UTC().Truncate(time.Microsecond)

	query := `
		INSERT INTO managers (username, email, display_name, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		manager.Username,
		manager.Email,
		manager.DisplayName,
		manager.PasswordHash,
		string(manager.Role),
		manager.IsActive,
		manager.CreatedAt,
		manager.UpdatedAt,
	).Scan(&manager.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username or email already exists", domain.ErrManagerAlreadyExists)
		}
		if isCheckViolation(err) {
			return fmt.Errorf("%w: role %q", domain.ErrValidation, manager.Role)
		}
		return fmt.Errorf("failed to create manager: %w", err)
	}

	return nil
}

// GetByID retrieves a manager by ID.
func (r *managerRepository) GetByID(ctx context.Context, id int64) (*domain.Manager, error) {
	return r.getOne(ctx, `SELECT `+managerColumns+` FROM managers WHERE id = $1`, id)
}

// GetByUsername retrieves a manager by username.
func (r *managerRepository) GetByUsername(ctx context.Context, username string) (*domain.Manager, error) {
	return r.getOne(ctx, `SELECT `+managerColumns+` FROM managers WHERE username = $1`, username)
}

// GetActiveByUsername retrieves an active manager by username.
func (r *managerRepository) GetActiveByUsername(ctx context.Context, username string) (*domain.Manager, error) {
	return r.getOne(ctx, `SELECT `+managerColumns+` FROM managers WHERE username = $1 AND is_active`, username)
}

func (r *managerRepository) getOne(ctx context.Context, query string, arg any) (*domain.Manager, error) {
	manager, err := scanManager(r.db.Pool.QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrManagerNotFound
		}
		return nil, fmt.Errorf("failed to get manager: %w", err)
	}
	return manager, nil
}

// Update updates an existing manager.
func (r *managerRepository) Update(ctx context.Context, manager *domain.Manager) error {
	manager.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	query := `
		UPDATE managers
		SET username = $1, email = $2, display_name = $3, password_hash = $4, role = $5, is_active = $6, updated_at = $7
		WHERE id = $8
	`

	result, err := r.db.Pool.Exec(ctx, query,
		manager.Username,
		manager.Email,
		manager.DisplayName,
		manager.PasswordHash,
		string(manager.Role),
		manager.IsActive,
		manager.UpdatedAt,
		manager.ID,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username or email already exists", domain.ErrManagerAlreadyExists)
		}
		if isCheckViolation(err) {
			return fmt.Errorf("%w: role %q", domain.ErrValidation, manager.Role)
		}
		return fmt.Errorf("failed to update manager: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrManagerNotFound
	}

	return nil
}

// UpdateLastLogin sets the last_login timestamp.
func (r *managerRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	result, err := r.db.Pool.Exec(ctx, `UPDATE managers SET last_login = $1 WHERE id = $2`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrManagerNotFound
	}

	return nil
}

// List returns all managers with pagination.
func (r *managerRepository) List(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[domain.Manager], error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}

	// LIMIT NULL means no limit.
	var limit *int
	if opts.Limit > 0 {
		limit = &opts.Limit
	}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+managerColumns+` FROM managers ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list managers: %w", err)
	}
	defer rows.Close()

	var managers []*domain.Manager
	for rows.Next() {
		manager, err := scanManager(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan manager: %w", err)
		}
		managers = append(managers, manager)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating managers: %w", err)
	}

	return &repository.ListResult[domain.Manager]{
		Items:  managers,
		Total:  total,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

// Count returns the number of manager accounts.
func (r *managerRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM managers`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count managers: %w", err)
	}
	return total, nil
}

// ExistsByUsername checks if a manager with the given username exists.
func (r *managerRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM managers WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return exists, nil
}

// ExistsByEmail checks if a manager with the given email exists.
func (r *managerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM managers WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

func scanManager(row pgx.Row) (*domain.Manager, error) {
	manager := &domain.Manager{}
	var role string

	err := row.Scan(
		&manager.ID,
		&manager.Username,
		&manager.Email,
		&manager.DisplayName,
		&manager.PasswordHash,
		&role,
		&manager.IsActive,
		&manager.LastLogin,
		&manager.CreatedAt,
		&manager.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	manager.Role = domain.Role(role)
	manager.CreatedAt = manager.CreatedAt.UTC()
	manager.UpdatedAt = manager.UpdatedAt.UTC()
	if manager.LastLogin != nil {
		t := manager.LastLogin.UTC()
		manager.LastLogin = &t
	}

	return manager, nil
}

// Ensure managerRepository implements repository.ManagerRepository.
var _ repository.ManagerRepository = (*managerRepository)(nil)
