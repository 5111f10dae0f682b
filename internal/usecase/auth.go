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

var (
	// ErrInvalidCredentials indicates the username or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount indicates the account exists but is deactivated.
	ErrInactiveAccount = errors.New("user account is inactive")
	// ErrCurrentPasswordInvalid indicates the provided current password is incorrect.
	ErrCurrentPasswordInvalid = errors.New("current password is incorrect")
	// ErrInvalidAccessToken indicates the token is malformed, forged or expired.
	ErrInvalidAccessToken = errors.New("invalid access token")
)

// LoginResult carries the issued token and the authenticated identity.
type LoginResult struct {
	Token       string
	ExpiresAt   time.Time
	User        domain.User
	Permissions domain.Permissions
}

// AuthService coordinates authentication and session token flows.
type AuthService struct {
	users  port.UserRepository
	tokens port.TokenManager
	events port.EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(users port.UserRepository, tokens port.TokenManager, events port.EventPublisher, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	service := &AuthService{
		users:  users,
		tokens: tokens,
		events: events,
		logger: logger,
	}
	service.now = func() time.Time { return time.Now() }
	return service
}

// WithClock overrides the internal clock for deterministic tests.
func (s *AuthService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Login validates credentials and issues a session token. A failed
// last-login stamp is logged but does not fail the login.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrInactiveAccount
	}

	token, expiresAt, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	loginAt := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, loginAt); err != nil {
		s.logger.Warn("stamp last login", zap.Int64("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLogin = &loginAt
	}

	if s.events != nil {
		event := domain.UserLoggedInEvent{
			EventID:  uuid.NewString(),
			UserID:   user.ID,
			Username: user.Username,
			LoginAt:  loginAt,
		}
		if err := s.events.PublishUserLoggedIn(ctx, event); err != nil {
			s.logger.Warn("publish user logged in event", zap.Error(err))
		}
	}

	sanitized := *user
	sanitized.PasswordHash = ""

	return &LoginResult{
		Token:       token,
		ExpiresAt:   expiresAt,
		User:        sanitized,
		Permissions: domain.PermissionsForRole(user.Role),
	}, nil
}

// ChangePassword verifies the current password and replaces it.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	ok, err := security.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify current password: %w", err)
	}
	if !ok {
		return ErrCurrentPasswordInvalid
	}

	inputs := []string{user.Username}
	if user.Email != nil {
		inputs = append(inputs, *user.Email)
	}
	validator := security.PasswordValidatorWithContext(inputs...)
	if err := validator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}
	if err := security.RequireDifferentFrom(currentPassword).Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if s.events != nil {
		event := domain.PasswordChangedEvent{
			EventID:   uuid.NewString(),
			UserID:    userID,
			ChangedAt: s.now(),
			ChangedBy: user.Username,
		}
		if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
			s.logger.Warn("publish password changed event", zap.Error(err))
		}
	}

	return nil
}

// ValidateToken resolves a bearer token into claims and confirms the
// account is still present and active.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*port.TokenClaims, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, ErrInvalidAccessToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidAccessToken
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInactiveAccount
	}

	// Role changes take effect on the next request, not the next login.
	claims.Role = user.Role
	claims.Username = user.Username

	return claims, nil
}

// Permissions resolves the capability set for a role.
func (s *AuthService) Permissions(role domain.Role) domain.Permissions {
	return domain.PermissionsForRole(role)
}
