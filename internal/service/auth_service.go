package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/marquee/internal/config"
	"github.com/prn-tf/marquee/internal/domain"
	"github.com/prn-tf/marquee/internal/lock"
	"github.com/prn-tf/marquee/internal/metrics"
	"github.com/prn-tf/marquee/internal/repository"
	"github.com/prn-tf/marquee/internal/validation"
)

// seedLockTTL bounds how long one instance may hold the seeding lock.
const seedLockTTL = time.Minute

// AuthService handles manager authentication and account provisioning.
type AuthService struct {
	managers   repository.ManagerRepository
	locker     lock.Locker
	metrics    *metrics.Metrics
	bcryptCost int
	now        func() time.Time
	logger     zerolog.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	managers repository.ManagerRepository,
	locker lock.Locker,
	m *metrics.Metrics,
	cfg config.AuthConfig,
	logger zerolog.Logger,
) *AuthService {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if locker == nil {
		locker = lock.NewNoOpLocker()
	}

	return &AuthService{
		managers:   managers,
		locker:     locker,
		metrics:    m,
		bcryptCost: cost,
		now:        time.Now,
		logger:     logger.With().Str("service", "auth").Logger(),
	}
}

// LoginInput contains the submitted credentials.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns the principal to bind to the session.
// Unknown, inactive and wrong-password cases all return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (principal *domain.Principal, err error) {
	defer func() { s.metrics.RecordLogin(err) }()

	username := domain.NormalizeUsername(input.Username)
	if username == "" || input.Password == "" {
		return nil, domain.ErrMissingCredentials
	}

	manager, err := s.managers.GetActiveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrManagerNotFound) {
			s.equalizeTiming(input.Password)
			s.logger.Debug().Str("username", username).Msg("login rejected: no active manager")
			return nil, domain.ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Str("username", username).Msg("failed to look up manager")
		return nil, storageError(err, "look up manager")
	}

	if !manager.CanAuthenticate() {
		s.equalizeTiming(input.Password)
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(manager.PasswordHash), []byte(input.Password)); err != nil {
		s.logger.Debug().Str("username", username).Msg("login rejected: password mismatch")
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.managers.UpdateLastLogin(ctx, manager.ID, now); err != nil {
		s.logger.Error().Err(err).Int64("manager_id", manager.ID).Msg("failed to record last login")
		return nil, storageError(err, "record last login")
	}
	manager.LastLogin = &now

	principal, err = PrincipalOf(manager)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("manager_id", manager.ID).
		Str("username", manager.Username).
		Str("role", string(manager.Role)).
		Msg("manager logged in")

	return principal, nil
}

// equalizeTiming runs a bcrypt comparison against a throwaway hash so that
// unknown usernames cost about as much as wrong passwords.
func (s *AuthService) equalizeTiming(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("marquee-dummy-password"), s.bcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

// PrincipalOf projects a manager onto the identity stored in sessions and tokens.
func PrincipalOf(m *domain.Manager) (*domain.Principal, error) {
	p := &domain.Principal{}
	if err := copier.CopyWithOption(p, m, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("failed to build principal: %w", err)
	}
	p.DisplayName = m.Name()
	return p, nil
}

// CreateManagerInput contains the data needed to provision a manager.
type CreateManagerInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	Role        string
}

// CreateManager provisions a new manager account.
func (s *AuthService) CreateManager(ctx context.Context, input CreateManagerInput) (*domain.Manager, error) {
	if err := validation.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	role := domain.RoleAdmin
	if strings.TrimSpace(input.Role) != "" {
		parsed, ok := domain.ParseRole(input.Role)
		if !ok {
			verr := domain.NewValidationError()
			verr.AddField("role", "must be one of admin, superadmin")
			return nil, verr
		}
		role = parsed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("%w: failed to hash password", domain.ErrStorage)
	}

	manager := domain.NewManager(input.Username, input.Email, string(hash))
	manager.DisplayName = strings.TrimSpace(input.DisplayName)
	manager.Role = role
	now := s.now().UTC()
	manager.CreatedAt, manager.UpdatedAt = now, now

	if err := validation.ValidateManager(manager); err != nil {
		return nil, err
	}

	exists, err := s.managers.ExistsByUsername(ctx, manager.Username)
	if err != nil {
		return nil, storageError(err, "check username")
	}
	if exists {
		return nil, fmt.Errorf("%w: username '%s'", domain.ErrManagerAlreadyExists, manager.Username)
	}

	exists, err = s.managers.ExistsByEmail(ctx, manager.Email)
	if err != nil {
		return nil, storageError(err, "check email")
	}
	if exists {
		return nil, fmt.Errorf("%w: email '%s'", domain.ErrManagerAlreadyExists, manager.Email)
	}

	if err := s.managers.Create(ctx, manager); err != nil {
		s.logger.Error().Err(err).Str("username", manager.Username).Msg("failed to create manager")
		return nil, storageError(err, "create manager")
	}

	s.logger.Info().
		Int64("manager_id", manager.ID).
		Str("username", manager.Username).
		Str("role", string(manager.Role)).
		Msg("manager created")

	return manager, nil
}

// EnsureDefaultManager creates the configured default account when the store
// holds no managers at all. Only one instance seeds at a time.
func (s *AuthService) EnsureDefaultManager(ctx context.Context, seed config.SeedConfig) (bool, error) {
	if !seed.Enabled {
		return false, nil
	}

	created := false
	ran, err := lock.Run(ctx, s.locker, lock.Keys.SeedManagers(), seedLockTTL, func(ctx context.Context) error {
		count, err := s.managers.Count(ctx)
		if err != nil {
			return storageError(err, "count managers")
		}
		if count > 0 {
			s.logger.Debug().Int64("managers", count).Msg("manager accounts exist, skipping seed")
			return nil
		}

		manager, err := s.CreateManager(ctx, CreateManagerInput{
			Username:    seed.Username,
			Email:       seed.Email,
			Password:    seed.Password,
			DisplayName: seed.DisplayName,
			Role:        strings.ToLower(seed.Role),
		})
		if err != nil {
			return err
		}

		created = true
		s.logger.Warn().
			Str("username", manager.Username).
			Msg("default manager account created; change its password")
		return nil
	})
	if err != nil {
		return false, err
	}
	if !ran {
		s.logger.Info().Msg("another instance is seeding managers")
	}
	return created, nil
}

// GetManager retrieves a manager by ID.
func (s *AuthService) GetManager(ctx context.Context, id int64) (*domain.Manager, error) {
	manager, err := s.managers.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "get manager")
	}
	return manager, nil
}

// GetManagerByUsername retrieves a manager by username regardless of status.
func (s *AuthService) GetManagerByUsername(ctx context.Context, username string) (*domain.Manager, error) {
	manager, err := s.managers.GetByUsername(ctx, domain.NormalizeUsername(username))
	if err != nil {
		return nil, storageError(err, "get manager")
	}
	return manager, nil
}

// ListManagers returns manager accounts, newest first.
func (s *AuthService) ListManagers(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[domain.Manager], error) {
	result, err := s.managers.List(ctx, opts)
	if err != nil {
		return nil, storageError(err, "list managers")
	}
	return result, nil
}

// SetRole changes a manager's role.
func (s *AuthService) SetRole(ctx context.Context, id int64, role string) (*domain.Manager, error) {
	parsed, ok := domain.ParseRole(role)
	if !ok {
		verr := domain.NewValidationError()
		verr.AddField("role", "must be one of admin, superadmin")
		return nil, verr
	}

	return s.mutate(ctx, id, "role changed", func(m *domain.Manager) {
		m.Role = parsed
	})
}

// SetActive enables or disables a manager's login.
func (s *AuthService) SetActive(ctx context.Context, id int64, active bool) (*domain.Manager, error) {
	return s.mutate(ctx, id, "activation changed", func(m *domain.Manager) {
		m.IsActive = active
	})
}

// ChangePassword replaces a manager's password.
func (s *AuthService) ChangePassword(ctx context.Context, id int64, password string) error {
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("%w: failed to hash password", domain.ErrStorage)
	}

	_, err = s.mutate(ctx, id, "password changed", func(m *domain.Manager) {
		m.PasswordHash = string(hash)
	})
	return err
}

func (s *AuthService) mutate(ctx context.Context, id int64, event string, apply func(*domain.Manager)) (*domain.Manager, error) {
	manager, err := s.managers.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "get manager")
	}

	apply(manager)
	manager.UpdatedAt = s.now().UTC()

	if err := s.managers.Update(ctx, manager); err != nil {
		s.logger.Error().Err(err).Int64("manager_id", id).Msg("failed to update manager")
		return nil, storageError(err, "update manager")
	}

	s.logger.Info().
		Int64("manager_id", manager.ID).
		Str("username", manager.Username).
		Str("role", string(manager.Role)).
		Bool("active", manager.IsActive).
		Msg(event)

	return manager, nil
}
