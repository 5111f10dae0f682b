package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hongquyngo/authority-management-system/internal/core/domain"
	"github.com/hongquyngo/authority-management-system/internal/core/port"
	"github.com/hongquyngo/authority-management-system/internal/infra/security"
	"github.com/hongquyngo/authority-management-system/internal/repository"
)

const resetPasswordLength = 12

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken indicates another account already holds the username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrInvalidRole indicates the submitted role is not one of the known roles.
	ErrInvalidRole = errors.New("invalid role")
	// ErrLastAdminDeactivate indicates deactivation would leave no active admin.
	ErrLastAdminDeactivate = errors.New("cannot deactivate the last admin user")
	// ErrLastAdminDelete indicates deletion would leave no active admin.
	ErrLastAdminDelete = errors.New("cannot delete the last admin user")
	// ErrWeakPassword indicates the password fails the strength policy.
	ErrWeakPassword = errors.New("password does not meet policy")
)

// CreateUserInput captures the payload for creating a user account.
type CreateUserInput struct {
	Username   string
	Password   string
	Email      *string
	Role       domain.Role
	EmployeeID *int64
}

// UpdateUserInput captures the payload for updating a user account.
type UpdateUserInput struct {
	Username   string
	Email      *string
	Role       domain.Role
	EmployeeID *int64
	IsActive   bool
}

// UserService handles user account lifecycle operations.
type UserService struct {
	users             port.UserRepository
	employees         port.EmployeeRepository
	events            port.EventPublisher
	passwordValidator *security.PasswordValidator
	logger            *zap.Logger
	now               func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(
	users port.UserRepository,
	employees port.EmployeeRepository,
	events port.EventPublisher,
	validator *security.PasswordValidator,
	logger *zap.Logger,
) *UserService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	service := &UserService{
		users:             users,
		employees:         employees,
		events:            events,
		passwordValidator: validator,
		logger:            logger,
	}
	service.now = func() time.Time { return time.Now() }
	return service
}

// WithClock overrides the internal clock for deterministic tests.
func (s *UserService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Create provisions a new account with a hashed password.
func (s *UserService) Create(ctx context.Context, actor string, input CreateUserInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if err := s.passwordValidator.Validate(input.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	taken, err := s.users.UsernameTaken(ctx, username, nil)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		Username:     username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		EmployeeID:   input.EmployeeID,
		IsActive:     true,
		CreatedAt:    s.now(),
		CreatedBy:    &actor,
	}

	id, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if s.events != nil {
		event := domain.UserCreatedEvent{
			EventID:   uuid.NewString(),
			UserID:    id,
			Username:  username,
			Role:      string(input.Role),
			CreatedBy: actor,
			CreatedAt: user.CreatedAt,
		}
		if err := s.events.PublishUserCreated(ctx, event); err != nil {
			s.logger.Warn("publish user created event", zap.Error(err))
		}
	}

	created, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	return created, nil
}

// Update modifies an account's profile fields. The username stays unique
// among non-deleted accounts, excluding the account itself.
func (s *UserService) Update(ctx context.Context, id int64, input UpdateUserInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	taken, err := s.users.UsernameTaken(ctx, username, &id)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	user.Username = username
	user.Email = input.Email
	user.Role = input.Role
	user.EmployeeID = input.EmployeeID
	user.IsActive = input.IsActive

	if err := s.users.Update(ctx, *user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	updated, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	return updated, nil
}

// List returns users matching the filter, joined with employee names.
func (s *UserService) List(ctx context.Context, filter port.UserFilter) ([]domain.UserDetail, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Get returns one user account.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ToggleActive flips an account's active flag and returns the new state.
// Deactivating the last remaining active admin is refused.
func (s *UserService) ToggleActive(ctx context.Context, actor string, id int64) (bool, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("lookup user: %w", err)
	}

	if user.IsActive && user.Role == domain.RoleAdmin {
		others, err := s.users.CountOtherActiveAdmins(ctx, id)
		if err != nil {
			return false, fmt.Errorf("count admins: %w", err)
		}
		if others == 0 {
			return false, ErrLastAdminDeactivate
		}
	}

	newState := !user.IsActive
	if err := s.users.SetActive(ctx, id, newState); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("set user active: %w", err)
	}

	if s.events != nil {
		event := domain.UserStatusChangedEvent{
			EventID:   uuid.NewString(),
			UserID:    id,
			IsActive:  newState,
			ChangedBy: actor,
			ChangedAt: s.now(),
		}
		if err := s.events.PublishUserStatusChanged(ctx, event); err != nil {
			s.logger.Warn("publish user status changed event", zap.Error(err))
		}
	}

	return newState, nil
}

// Delete soft-deletes an account; a deleted account is also inactive.
// Deleting an active admin is refused when no other active admin remains.
func (s *UserService) Delete(ctx context.Context, actor string, id int64) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if user.Role == domain.RoleAdmin {
		others, err := s.users.CountOtherActiveAdmins(ctx, id)
		if err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		if others == 0 {
			return ErrLastAdminDelete
		}
	}

	if err := s.users.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}

	if s.events != nil {
		event := domain.UserDeletedEvent{
			EventID:   uuid.NewString(),
			UserID:    id,
			DeletedBy: actor,
			DeletedAt: s.now(),
		}
		if err := s.events.PublishUserDeleted(ctx, event); err != nil {
			s.logger.Warn("publish user deleted event", zap.Error(err))
		}
	}

	return nil
}

// ResetPassword replaces the account's password with a generated one and
// returns the plaintext exactly once.
func (s *UserService) ResetPassword(ctx context.Context, actor string, id int64) (string, error) {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	password, err := security.GeneratePassword(resetPasswordLength)
	if err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("update password: %w", err)
	}

	if s.events != nil {
		event := domain.PasswordResetEvent{
			EventID: uuid.NewString(),
			UserID:  id,
			ResetBy: actor,
			ResetAt: s.now(),
		}
		if err := s.events.PublishPasswordReset(ctx, event); err != nil {
			s.logger.Warn("publish password reset event", zap.Error(err))
		}
	}

	return password, nil
}

// Stats returns the user-management headline numbers.
func (s *UserService) Stats(ctx context.Context) (*domain.UserStats, error) {
	stats, err := s.users.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load user stats: %w", err)
	}
	return stats, nil
}

// AvailableEmployees returns active employees without a user account.
func (s *UserService) AvailableEmployees(ctx context.Context) ([]domain.Employee, error) {
	employees, err := s.employees.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list available employees: %w", err)
	}
	return employees, nil
}
