package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/repository"
)

const managerColumns = `id, username, email, display_name, password_hash, role, is_active, last_login, created_at, updated_at`

// managerRepository implements repository.ManagerRepository for SQLite.
type managerRepository struct {
	db *DB
}

// NewManagerRepository creates a new SQLite manager repository.
func NewManagerRepository(db *DB) repository.ManagerRepository {
	return &managerRepository{db: db}
}

// Create creates a new manager.
func (r *managerRepository) Create(ctx context.Context, manager *domain.Manager) error {
	manager.CreatedAt = truncate(manager.CreatedAt)
	manager.UpdatedAt = truncate(manager.UpdatedAt)

	query := `
		INSERT INTO managers (username, email, display_name, password_hash, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		manager.Username,
		manager.Email,
		manager.DisplayName,
		manager.PasswordHash,
		string(manager.Role),
		boolToInt(manager.IsActive),
		formatTime(manager.CreatedAt),
		formatTime(manager.UpdatedAt),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username or email already exists", domain.ErrManagerAlreadyExists)
		}
		if isCheckViolation(err) {
			return fmt.Errorf("%w: role %q", domain.ErrValidation, manager.Role)
		}
		return fmt.Errorf("failed to create manager: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	manager.ID = id

	return nil
}

// GetByID retrieves a manager by ID.
func (r *managerRepository) GetByID(ctx context.Context, id int64) (*domain.Manager, error) {
	query := `SELECT ` + managerColumns + ` FROM managers WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByUsername retrieves a manager by username.
func (r *managerRepository) GetByUsername(ctx context.Context, username string) (*domain.Manager, error) {
	query := `SELECT ` + managerColumns + ` FROM managers WHERE username = ?`
	return r.getOne(ctx, query, username)
}

// GetActiveByUsername retrieves an active manager by username.
func (r *managerRepository) GetActiveByUsername(ctx context.Context, username string) (*domain.Manager, error) {
	query := `SELECT ` + managerColumns + ` FROM managers WHERE username = ? AND is_active = 1`
	return r.getOne(ctx, query, username)
}

func (r *managerRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.Manager, error) {
	manager, err := scanManager(r.db.QueryRowContext(ctx, query, arg))
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
	manager.UpdatedAt = truncate(time.Now())

	query := `
		UPDATE managers
		SET username = ?, email = ?, display_name = ?, password_hash = ?, role = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		manager.Username,
		manager.Email,
		manager.DisplayName,
		manager.PasswordHash,
		string(manager.Role),
		boolToInt(manager.IsActive),
		formatTime(manager.UpdatedAt),
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

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update manager: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrManagerNotFound
	}

	return nil
}

// UpdateLastLogin sets the last_login timestamp.
func (r *managerRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE managers SET last_login = ? WHERE id = ?`,
		formatTime(at), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	if rowsAffected == 0 {
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

	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}

	query := `SELECT ` + managerColumns + ` FROM managers ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, opts.Offset)
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
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM managers`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count managers: %w", err)
	}
	return total, nil
}

// ExistsByUsername checks if a manager with the given username exists.
func (r *managerRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM managers WHERE username = ?`, username).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return count > 0, nil
}

// ExistsByEmail checks if a manager with the given email exists.
func (r *managerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM managers WHERE email = ?`, email).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return count > 0, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanManager(row rowScanner) (*domain.Manager, error) {
	manager := &domain.Manager{}
	var role string
	var isActive int
	var lastLogin sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&manager.ID,
		&manager.Username,
		&manager.Email,
		&manager.DisplayName,
		&manager.PasswordHash,
		&role,
		&isActive,
		&lastLogin,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	manager.Role = domain.Role(role)
	manager.IsActive = isActive != 0

	if s := scanNullString(lastLogin); s != nil {
		t, err := parseTime(*s)
		if err != nil {
			return nil, err
		}
		manager.LastLogin = &t
	}
	if manager.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if manager.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return manager, nil
}

// boolToInt converts a boolean to an integer (SQLite doesn't have native boolean).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// scanNullString handles nullable string columns.
func scanNullString(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

// Ensure managerRepository implements repository.ManagerRepository.
var _ repository.ManagerRepository = (*managerRepository)(nil)
