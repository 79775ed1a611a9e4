package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blackinsure/rainyday/internal/core/domain"
	"github.com/blackinsure/rainyday/internal/core/port"
	"github.com/blackinsure/rainyday/internal/infra/config"
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
	EventID        string           `json:"event_id"`
	EventType      string           `json:"event_type"`
	PolicyHolderID string           `json:"policy_holder_id,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
	Version        string           `json:"version"`
	Payload        any              `json:"payload"`
	Metadata       envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, policyHolderID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:        id,
		EventType:      eventType,
		PolicyHolderID: policyHolderID,
		Timestamp:      ts.UTC(),
		Version:        schemaVersion,
		Payload:        payload,
		Metadata: envelopeMetadata{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishPolicyHolderRegistered publishes policy.holder.registered events.
func (p *EventPublisher) PublishPolicyHolderRegistered(ctx context.Context, event domain.PolicyHolderRegisteredEvent) error {
	payload := struct {
		PolicyHolderID string         `json:"policy_holder_id"`
		Email          string         `json:"email,omitempty"`
		RegisteredAt   time.Time      `json:"registered_at"`
		Method         string         `json:"method"`
		Metadata       map[string]any `json:"metadata,omitempty"`
	}{
		PolicyHolderID: event.PolicyHolderID,
		Email:          event.Email,
		RegisteredAt:   event.RegisteredAt.UTC(),
		Method:         event.Method,
		Metadata:       event.Metadata,
	}

	return p.publish(ctx, event.EventID, "policy.holder.registered", event.PolicyHolderID, event.RegisteredAt, payload)
}

// PublishPolicyCreated publishes policy.created events.
func (p *EventPublisher) PublishPolicyCreated(ctx context.Context, event domain.PolicyCreatedEvent) error {
	payload := struct {
		PolicyID       string         `json:"policy_id"`
		PolicyHolderID string         `json:"policy_holder_id"`
		CoveredCity    string         `json:"covered_city"`
		StartDate      time.Time      `json:"start_date"`
		EndDate        time.Time      `json:"end_date"`
		CreatedAt      time.Time      `json:"created_at"`
		Metadata       map[string]any `json:"metadata,omitempty"`
	}{
		PolicyID:       event.PolicyID,
		PolicyHolderID: event.PolicyHolderID,
		CoveredCity:    event.CoveredCity,
		StartDate:      event.StartDate.UTC(),
		EndDate:        event.EndDate.UTC(),
		CreatedAt:      event.CreatedAt.UTC(),
		Metadata:       event.Metadata,
	}

	return p.publish(ctx, event.EventID, "policy.created", event.PolicyHolderID, event.CreatedAt, payload)
}

// PublishPolicyConfirmed publishes policy.confirmed events.
func (p *EventPublisher) PublishPolicyConfirmed(ctx context.Context, event domain.PolicyConfirmedEvent) error {
	payload := struct {
		PolicyID       string         `json:"policy_id"`
		PolicyHolderID string         `json:"policy_holder_id"`
		ConfirmedAt    time.Time      `json:"confirmed_at"`
		Metadata       map[string]any `json:"metadata,omitempty"`
	}{
		PolicyID:       event.PolicyID,
		PolicyHolderID: event.PolicyHolderID,
		ConfirmedAt:    event.ConfirmedAt.UTC(),
		Metadata:       event.Metadata,
	}

	return p.publish(ctx, event.EventID, "policy.confirmed", event.PolicyHolderID, event.ConfirmedAt, payload)
}

// PublishPayoutAddressBound publishes policy.payout_address.bound events.
func (p *EventPublisher) PublishPayoutAddressBound(ctx context.Context, event domain.PayoutAddressBoundEvent) error {
	payload := struct {
		PolicyID        string         `json:"policy_id"`
		EthereumAddress string         `json:"ethereum_address"`
		BoundAt         time.Time      `json:"bound_at"`
		Metadata        map[string]any `json:"metadata,omitempty"`
	}{
		PolicyID:        event.PolicyID,
		EthereumAddress: event.EthereumAddress,
		BoundAt:         event.BoundAt.UTC(),
		Metadata:        event.Metadata,
	}

	return p.publish(ctx, event.EventID, "policy.payout_address.bound", "", event.BoundAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
