package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hongquyngo/authority-management-system/internal/core/domain"
	"github.com/hongquyngo/authority-management-system/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType string, entityID int64, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.Int64("entity_id", entityID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishAuthorityCreated logs ams.authority.created events.
func (p *StubPublisher) PublishAuthorityCreated(_ context.Context, event domain.AuthorityCreatedEvent) error {
	payload := map[string]any{
		"authority_id":     event.AuthorityID,
		"employee_id":      event.EmployeeID,
		"approval_type_id": event.ApprovalTypeID,
		"company_id":       event.CompanyID,
		"valid_from":       event.ValidFrom,
		"valid_to":         event.ValidTo,
		"max_amount":       event.MaxAmount,
		"created_by":       event.CreatedBy,
		"metadata":         event.Metadata,
	}
	p.logEvent("ams.authority.created", event.AuthorityID, event.CreatedAt, payload)
	return nil
}

// PublishAuthorityUpdated logs ams.authority.updated events.
func (p *StubPublisher) PublishAuthorityUpdated(_ context.Context, event domain.AuthorityUpdatedEvent) error {
	payload := map[string]any{
		"authority_id": event.AuthorityID,
		"modified_by":  event.ModifiedBy,
		"metadata":     event.Metadata,
	}
	p.logEvent("ams.authority.updated", event.AuthorityID, event.ModifiedAt, payload)
	return nil
}

// PublishAuthorityStatusChanged logs ams.authority.status_changed events.
func (p *StubPublisher) PublishAuthorityStatusChanged(_ context.Context, event domain.AuthorityStatusChangedEvent) error {
	payload := map[string]any{
		"authority_id": event.AuthorityID,
		"is_active":    event.IsActive,
		"changed_by":   event.ChangedBy,
		"metadata":     event.Metadata,
	}
	p.logEvent("ams.authority.status_changed", event.AuthorityID, event.ChangedAt, payload)
	return nil
}

// PublishAuthorityDeleted logs ams.authority.deleted events.
func (p *StubPublisher) PublishAuthorityDeleted(_ context.Context, event domain.AuthorityDeletedEvent) error {
	payload := map[string]any{
		"authority_id": event.AuthorityID,
		"deleted_by":   event.DeletedBy,
		"metadata":     event.Metadata,
	}
	p.logEvent("ams.authority.deleted", event.AuthorityID, event.DeletedAt, payload)
	return nil
}

// PublishUserCreated logs ams.user.created events.
func (p *StubPublisher) PublishUserCreated(_ context.Context, event domain.UserCreatedEvent) error {
	payload := map[string]any{
		"user_id":    event.UserID,
		"username":   event.Username,
		"role":       event.Role,
		"created_by": event.CreatedBy,
		"metadata":   event.Metadata,
	}
	p.logEvent("ams.user.created", event.UserID, event.CreatedAt, payload)
	return nil
}

// PublishUserStatusChanged logs ams.user.status_changed events.
func (p *StubPublisher) PublishUserStatusChanged(_ context.Context, event domain.UserStatusChangedEvent) error {
	payload := map[string]any{
		"user_id":    event.UserID,
		"is_active":  event.IsActive,
		"changed_by": event.ChangedBy,
		"metadata":   event.Metadata,
	}
	p.logEvent("ams.user.status_changed", event.UserID, event.ChangedAt, payload)
	return nil
}

// PublishUserDeleted logs ams.user.deleted events.
func (p *StubPublisher) PublishUserDeleted(_ context.Context, event domain.UserDeletedEvent) error {
	payload := map[string]any{
		"user_id":    event.UserID,
		"deleted_by": event.DeletedBy,
		"metadata":   event.Metadata,
	}
	p.logEvent("ams.user.deleted", event.UserID, event.DeletedAt, payload)
	return nil
}

// PublishUserLoggedIn logs ams.user.logged_in events.
func (p *StubPublisher) PublishUserLoggedIn(_ context.Context, event domain.UserLoggedInEvent) error {
	payload := map[string]any{
		"user_id":  event.UserID,
		"username": event.Username,
		"metadata": event.Metadata,
	}
	p.logEvent("ams.user.logged_in", event.UserID, event.LoginAt, payload)
	return nil
}

// PublishPasswordChanged logs ams.user.password.changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	payload := map[string]any{
		"user_id":    event.UserID,
		"changed_by": event.ChangedBy,
		"metadata":   event.Metadata,
	}
	p.logEvent("ams.user.password.changed", event.UserID, event.ChangedAt, payload)
	return nil
}

// PublishPasswordReset logs ams.user.password.reset events.
func (p *StubPublisher) PublishPasswordReset(_ context.Context, event domain.PasswordResetEvent) error {
	payload := map[string]any{
		"user_id":  event.UserID,
		"reset_by": event.ResetBy,
		"metadata": event.Metadata,
	}
	p.logEvent("ams.user.password.reset", event.UserID, event.ResetAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
