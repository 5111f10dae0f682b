package port

import (
	"context"

	"github.com/hongquyngo/authority-management-system/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishAuthorityCreated(ctx context.Context, event domain.AuthorityCreatedEvent) error
	PublishAuthorityUpdated(ctx context.Context, event domain.AuthorityUpdatedEvent) error
	PublishAuthorityStatusChanged(ctx context.Context, event domain.AuthorityStatusChangedEvent) error
	PublishAuthorityDeleted(ctx context.Context, event domain.AuthorityDeletedEvent) error
	PublishUserCreated(ctx context.Context, event domain.UserCreatedEvent) error
	PublishUserStatusChanged(ctx context.Context, event domain.UserStatusChangedEvent) error
	PublishUserDeleted(ctx context.Context, event domain.UserDeletedEvent) error
	PublishUserLoggedIn(ctx context.Context, event domain.UserLoggedInEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishPasswordReset(ctx context.Context, event domain.PasswordResetEvent) error
}
