package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"

	"github.com/hongquyngo/authority-management-system/internal/core/domain"
	"github.com/hongquyngo/authority-management-system/internal/infra/config"
)

type fakeAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeAsyncProducer(buffer int) *fakeAsyncProducer {
	return &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, buffer),
		errors: make(chan *sarama.ProducerError, 1),
	}
}

func (f *fakeAsyncProducer) AsyncClose() {}

func (f *fakeAsyncProducer) Close() error { return nil }

func (f *fakeAsyncProducer) Input() chan<- *sarama.ProducerMessage { return f.input }

func (f *fakeAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return nil }

func (f *fakeAsyncProducer) Errors() <-chan *sarama.ProducerError { return f.errors }

func (f *fakeAsyncProducer) IsTransactional() bool { return false }

func (f *fakeAsyncProducer) BeginTxn() error { return nil }

func (f *fakeAsyncProducer) CommitTxn() error { return nil }

func (f *fakeAsyncProducer) AbortTxn() error { return nil }

func (f *fakeAsyncProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (f *fakeAsyncProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func (f *fakeAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnStatusFlag(0)
}

func newTestPublisher(t *testing.T, asyncProducer *fakeAsyncProducer) *EventPublisher {
	t.Helper()

	producer := &Producer{
		producer: asyncProducer,
		logger:   zaptest.NewLogger(t),
		cfg: config.KafkaSettings{
			TopicPrefix: "ams",
		},
		errChan: make(chan error, 1),
		done:    make(chan struct{}),
	}

	return NewEventPublisher(producer, config.AppSettings{
		Name: "authority-management-system",
		Env:  "test",
	}, zaptest.NewLogger(t))
}

func TestPublishAuthorityCreated(t *testing.T) {
	asyncProducer := newFakeAsyncProducer(1)
	publisher := newTestPublisher(t, asyncProducer)

	createdAt := time.Date(2025, 12, 1, 10, 30, 0, 0, time.UTC)
	validFrom := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	companyID := int64(3)
	maxAmount := 50000.0
	event := domain.AuthorityCreatedEvent{
		EventID:        "event-123",
		AuthorityID:    77,
		EmployeeID:     12,
		ApprovalTypeID: 4,
		CompanyID:      &companyID,
		ValidFrom:      validFrom,
		MaxAmount:      &maxAmount,
		CreatedBy:      "admin",
		CreatedAt:      createdAt,
		Metadata:       map[string]any{"source": "unit-test"},
	}

	if err := publisher.PublishAuthorityCreated(context.Background(), event); err != nil {
		t.Fatalf("PublishAuthorityCreated returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "ams.authority.created" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		key, err := msg.Key.Encode()
		if err != nil {
			t.Fatalf("Key.Encode returned error: %v", err)
		}
		if string(key) != "77" {
			t.Fatalf("unexpected partition key: %s", key)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}

		if got := envelope["event_id"]; got != "event-123" {
			t.Fatalf("unexpected event_id: %v", got)
		}

		if got := envelope["event_type"]; got != "ams.authority.created" {
			t.Fatalf("unexpected event_type: %v", got)
		}

		if got := envelope["entity_id"]; got != "77" {
			t.Fatalf("unexpected entity_id: %v", got)
		}

		if got := envelope["version"]; got != "1.0" {
			t.Fatalf("unexpected envelope version: %v", got)
		}

		timestamp, ok := envelope["timestamp"].(string)
		if !ok {
			t.Fatalf("timestamp not a string: %T", envelope["timestamp"])
		}
		if timestamp != createdAt.Format(time.RFC3339Nano) {
			t.Fatalf("unexpected timestamp: %s", timestamp)
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not a map: %T", envelope["payload"])
		}

		authorityID, ok := payload["authority_id"].(float64)
		if !ok {
			t.Fatalf("authority_id not numeric: %T", payload["authority_id"])
		}
		if int64(authorityID) != event.AuthorityID {
			t.Fatalf("unexpected authority_id: %v", authorityID)
		}

		employeeID, ok := payload["employee_id"].(float64)
		if !ok {
			t.Fatalf("employee_id not numeric: %T", payload["employee_id"])
		}
		if int64(employeeID) != event.EmployeeID {
			t.Fatalf("unexpected employee_id: %v", employeeID)
		}

		company, ok := payload["company_id"].(float64)
		if !ok {
			t.Fatalf("company_id not numeric: %T", payload["company_id"])
		}
		if int64(company) != companyID {
			t.Fatalf("unexpected company_id: %v", company)
		}

		amount, ok := payload["max_amount"].(float64)
		if !ok {
			t.Fatalf("max_amount not numeric: %T", payload["max_amount"])
		}
		if amount != maxAmount {
			t.Fatalf("unexpected max_amount: %v", amount)
		}

		validFromValue, ok := payload["valid_from"].(string)
		if !ok {
			t.Fatalf("valid_from not a string: %T", payload["valid_from"])
		}
		if validFromValue != validFrom.Format(time.RFC3339Nano) {
			t.Fatalf("unexpected valid_from: %s", validFromValue)
		}

		if _, present := payload["valid_to"]; present {
			t.Fatalf("expected open-ended authority to omit valid_to")
		}

		if got := payload["created_by"]; got != "admin" {
			t.Fatalf("unexpected created_by: %v", got)
		}

		metadata, ok := payload["metadata"].(map[string]any)
		if !ok {
			t.Fatalf("payload metadata not a map: %T", payload["metadata"])
		}
		if metadata["source"] != "unit-test" {
			t.Fatalf("metadata did not round-trip: %v", metadata)
		}

		envelopeMetadata, ok := envelope["metadata"].(map[string]any)
		if !ok {
			t.Fatalf("envelope metadata not a map: %T", envelope["metadata"])
		}
		if envelopeMetadata["service"] != "authority-management-system" {
			t.Fatalf("unexpected metadata service: %v", envelopeMetadata["service"])
		}
		if envelopeMetadata["environment"] != "test" {
			t.Fatalf("unexpected metadata environment: %v", envelopeMetadata["environment"])
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
	}
}

func TestPublishUserStatusChanged(t *testing.T) {
	asyncProducer := newFakeAsyncProducer(1)
	publisher := newTestPublisher(t, asyncProducer)

	changedAt := time.Date(2025, 12, 2, 16, 45, 0, 0, time.UTC)
	event := domain.UserStatusChangedEvent{
		EventID:   "event-456",
		UserID:    9,
		IsActive:  false,
		ChangedBy: "admin",
		ChangedAt: changedAt,
	}

	if err := publisher.PublishUserStatusChanged(context.Background(), event); err != nil {
		t.Fatalf("PublishUserStatusChanged returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "ams.user.status_changed" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}

		if got := envelope["entity_id"]; got != "9" {
			t.Fatalf("unexpected entity_id: %v", got)
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not a map: %T", envelope["payload"])
		}

		userID, ok := payload["user_id"].(float64)
		if !ok {
			t.Fatalf("user_id not numeric: %T", payload["user_id"])
		}
		if int64(userID) != event.UserID {
			t.Fatalf("unexpected user_id: %v", userID)
		}

		isActive, ok := payload["is_active"].(bool)
		if !ok {
			t.Fatalf("is_active not a bool: %T", payload["is_active"])
		}
		if isActive {
			t.Fatalf("expected is_active false")
		}

		if got := payload["changed_by"]; got != "admin" {
			t.Fatalf("unexpected changed_by: %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
	}
}

func TestPublishRespectsContextCancellation(t *testing.T) {
	asyncProducer := newFakeAsyncProducer(0)
	publisher := newTestPublisher(t, asyncProducer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	event := domain.AuthorityDeletedEvent{
		EventID:     "event-789",
		AuthorityID: 5,
		DeletedBy:   "admin",
		DeletedAt:   time.Date(2025, 12, 3, 9, 0, 0, 0, time.UTC),
	}

	err := publisher.PublishAuthorityDeleted(ctx, event)
	if err == nil {
		t.Fatal("expected error when context already cancelled")
	}
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
