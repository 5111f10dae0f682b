package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hongquyngo/authority-management-system/internal/core/domain"
	"github.com/hongquyngo/authority-management-system/internal/core/port"
	"github.com/hongquyngo/authority-management-system/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	EntityID  string           `json:"entity_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType string, entityID int64, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		EntityID:  strconv.FormatInt(entityID, 10),
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Key:   sarama.StringEncoder(envelope.EntityID),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAuthorityCreated publishes ams.authority.created events.
func (p *EventPublisher) PublishAuthorityCreated(ctx context.Context, event domain.AuthorityCreatedEvent) error {
	payload := struct {
		AuthorityID    int64          `json:"authority_id"`
		EmployeeID     int64          `json:"employee_id"`
		ApprovalTypeID int64          `json:"approval_type_id"`
		CompanyID      *int64         `json:"company_id,omitempty"`
		ValidFrom      time.Time      `json:"valid_from"`
		ValidTo        *time.Time     `json:"valid_to,omitempty"`
		MaxAmount      *float64       `json:"max_amount,omitempty"`
		CreatedBy      string         `json:"created_by"`
		CreatedAt      time.Time      `json:"created_at"`
		Metadata       map[string]any `json:"metadata,omitempty"`
	}{
		AuthorityID:    event.AuthorityID,
		EmployeeID:     event.EmployeeID,
		ApprovalTypeID: event.ApprovalTypeID,
		CompanyID:      event.CompanyID,
		ValidFrom:      event.ValidFrom.UTC(),
		ValidTo:        event.ValidTo,
		MaxAmount:      event.MaxAmount,
		CreatedBy:      event.CreatedBy,
		CreatedAt:      event.CreatedAt.UTC(),
		Metadata:       event.Metadata,
	}

	return p.publish(ctx, event.EventID, "ams.authority.created", event.AuthorityID, event.CreatedAt, payload)
}

// PublishAuthorityUpdated publishes ams.authority.updated events.
func (p *EventPublisher) PublishAuthorityUpdated(ctx context.Context, event domain.AuthorityUpdatedEvent) error {
	payload := struct {
		AuthorityID int64          `json:"authority_id"`
		ModifiedBy  string         `json:"modified_by"`
		ModifiedAt  time.Time      `json:"modified_at"`
		Metadata    map[string]any `json:"metadata,omitempty"`
	}{
		AuthorityID: event.AuthorityID,
		ModifiedBy:  event.ModifiedBy,
		ModifiedAt:  event.ModifiedAt.UTC(),
		Metadata:    event.Metadata,
	}

	return p.publish(ctx, event.EventID, "ams.authority.updated", event.AuthorityID, event.ModifiedAt, payload)
}

// PublishAuthorityStatusChanged publishes ams.authority.status_changed events.
func (p *EventPublisher) PublishAuthorityStatusChanged(ctx context.Context, event domain.AuthorityStatusChangedEvent) error {
	payload := struct {
		AuthorityID int64          `json:"authority_id"`
		IsActive    bool           `json:"is_active"`
		ChangedBy   string         `json:"changed_by"`
		ChangedAt   time.Time      `json:"changed_at"`
		Metadata    map[string]any `json:"metadata,omitempty"`
	}{
		AuthorityID: event.AuthorityID,
		IsActive:    event.IsActive,
		ChangedBy:   event.ChangedBy,
		ChangedAt:   event.ChangedAt.UTC(),
		Metadata:    event.Metadata,
	}

	return p.publish(ctx, event.EventID, "ams.authority.status_changed", event.AuthorityID, event.ChangedAt, payload)
}

// PublishAuthorityDeleted publishes ams.authority.deleted events.
func (p *EventPublisher) PublishAuthorityDeleted(ctx context.Context, event domain.AuthorityDeletedEvent) error {
	payload := struct {
		AuthorityID int64          `json:"authority_id"`
		DeletedBy   string         `json:"deleted_by"`
		DeletedAt   time.Time      `json:"deleted_at"`
		Metadata    map[string]any `json:"metadata,omitempty"`
	}{
		AuthorityID: event.AuthorityID,
		DeletedBy:   event.DeletedBy,
		DeletedAt:   event.DeletedAt.UTC(),
		Metadata:    event.Metadata,
	}

	return p.publish(ctx, event.EventID, "ams.authority.deleted", event.AuthorityID, event.DeletedAt, payload)
}

// PublishUserCreated publishes ams.user.created events.
func (p *EventPublisher) PublishUserCreated(ctx context.Context, event domain.UserCreatedEvent) error {
	payload := struct {
		UserID    int64          `json:"user_id"`
		Username  string         `json:"username"`
		Role      string         `json:"role"`
		CreatedBy string         `json:"created_by"`
		CreatedAt time.Time      `json:"created_at"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		UserID:    event.UserID,
		Username:  event.Username,
		Role:      event.Role,
		CreatedBy: event.CreatedBy,
		CreatedAt: event.CreatedAt.UTC(),
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, "ams.user.created", event.UserID, event.CreatedAt, payload)
}

// PublishUserStatusChanged publishes ams.user.status_changed events.
func (p *EventPublisher) PublishUserStatusChanged(ctx context.Context, event domain.UserStatusChangedEvent) error {
	payload := struct {
		UserID    int64          `json:"user_id"`
		IsActive  bool           `json:"is_active"`
		ChangedBy string         `json:"changed_by"`
		ChangedAt time.Time      `json:"changed_at"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		UserID:    event.UserID,
		IsActive:  event.IsActive,
		ChangedBy: event.ChangedBy,
		ChangedAt: event.ChangedAt.UTC(),
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, "ams.user.status_changed", event.UserID, event.ChangedAt, payload)
}

// PublishUserDeleted publishes ams.user.deleted events.
func (p *EventPublisher) PublishUserDeleted(ctx context.Context, event domain.UserDeletedEvent) error {
	payload := struct {
		UserID    int64          `json:"user_id"`
		DeletedBy string         `json:"deleted_by"`
		DeletedAt time.Time      `json:"deleted_at"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		UserID:    event.UserID,
		DeletedBy: event.DeletedBy,
		DeletedAt: event.DeletedAt.UTC(),
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, "ams.user.deleted", event.UserID, event.DeletedAt, payload)
}

// PublishUserLoggedIn publishes ams.user.logged_in events.
func (p *EventPublisher) PublishUserLoggedIn(ctx context.Context, event domain.UserLoggedInEvent) error {
	payload := struct {
		UserID   int64          `json:"user_id"`
		Username string         `json:"username"`
		LoginAt  time.Time      `json:"login_at"`
		Metadata map[string]any `json:"metadata,omitempty"`
	}{
		UserID:   event.UserID,
		Username: event.Username,
		LoginAt:  event.LoginAt.UTC(),
		Metadata: event.Metadata,
	}

	return p.publish(ctx, event.EventID, "ams.user.logged_in", event.UserID, event.LoginAt, payload)
}

// PublishPasswordChanged publishes ams.user.password.changed events.
func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	payload := struct {
		UserID    int64          `json:"user_id"`
		ChangedAt time.Time      `json:"changed_at"`
		ChangedBy string         `json:"changed_by"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		UserID:    event.UserID,
		ChangedAt: event.ChangedAt.UTC(),
		ChangedBy: event.ChangedBy,
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, "ams.user.password.changed", event.UserID, event.ChangedAt, payload)
}

// PublishPasswordReset publishes ams.user.password.reset events.
func (p *EventPublisher) PublishPasswordReset(ctx context.Context, event domain.PasswordResetEvent) error {
	payload := struct {
		UserID   int64          `json:"user_id"`
		ResetBy  string         `json:"reset_by"`
		ResetAt  time.Time      `json:"reset_at"`
		Metadata map[string]any `json:"metadata,omitempty"`
	}{
		UserID:   event.UserID,
		ResetBy:  event.ResetBy,
		ResetAt:  event.ResetAt.UTC(),
		Metadata: event.Metadata,
	}

	return p.publish(ctx, event.EventID, "ams.user.password.reset", event.UserID, event.ResetAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
