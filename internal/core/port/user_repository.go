package port

import (
	"context"
	"time"

	"github.com/hongquyngo/authority-management-system/internal/core/domain"
)

// UserFilter narrows user listings. Zero/nil fields are skipped.
type UserFilter struct {
	Username string
	Role     *domain.Role
	IsActive *bool
}

// UserRepository exposes persistence behavior for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.UserDetail, error)
	Update(ctx context.Context, user domain.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	SetActive(ctx context.Context, id int64, active bool) error
	SoftDelete(ctx context.Context, id int64) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	UsernameTaken(ctx context.Context, username string, excludeID *int64) (bool, error)
	CountOtherActiveAdmins(ctx context.Context, excludeID int64) (int64, error)
	Stats(ctx context.Context) (*domain.UserStats, error)
}
