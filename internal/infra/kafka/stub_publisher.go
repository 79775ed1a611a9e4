package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/blackinsure/rainyday/internal/core/domain"
	"github.com/blackinsure/rainyday/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, policyHolderID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("policy_holder_id", policyHolderID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishPolicyHolderRegistered logs policy.holder.registered events.
func (p *StubPublisher) PublishPolicyHolderRegistered(_ context.Context, event domain.PolicyHolderRegisteredEvent) error {
	payload := map[string]any{
		"policy_holder_id": event.PolicyHolderID,
		"email":            event.Email,
		"registered_at":    event.RegisteredAt,
		"method":           event.Method,
		"metadata":         event.Metadata,
	}
	p.logEvent("policy.holder.registered", event.PolicyHolderID, event.RegisteredAt, payload)
	return nil
}

// PublishPolicyCreated logs policy.created events.
func (p *StubPublisher) PublishPolicyCreated(_ context.Context, event domain.PolicyCreatedEvent) error {
	payload := map[string]any{
		"policy_id":        event.PolicyID,
		"policy_holder_id": event.PolicyHolderID,
		"covered_city":     event.CoveredCity,
		"start_date":       event.StartDate,
		"end_date":         event.EndDate,
		"created_at":       event.CreatedAt,
		"metadata":         event.Metadata,
	}
	p.logEvent("policy.created", event.PolicyHolderID, event.CreatedAt, payload)
	return nil
}

// PublishPolicyConfirmed logs policy.confirmed events.
func (p *StubPublisher) PublishPolicyConfirmed(_ context.Context, event domain.PolicyConfirmedEvent) error {
	payload := map[string]any{
		"policy_id":        event.PolicyID,
		"policy_holder_id": event.PolicyHolderID,
		"confirmed_at":     event.ConfirmedAt,
		"metadata":         event.Metadata,
	}
	p.logEvent("policy.confirmed", event.PolicyHolderID, event.ConfirmedAt, payload)
	return nil
}

// PublishPayoutAddressBound logs policy.payout_address.bound events.
func (p *StubPublisher) PublishPayoutAddressBound(_ context.Context, event domain.PayoutAddressBoundEvent) error {
	payload := map[string]any{
		"policy_id":        event.PolicyID,
		"ethereum_address": event.EthereumAddress,
		"bound_at":         event.BoundAt,
		"metadata":         event.Metadata,
	}
	p.logEvent("policy.payout_address.bound", "", event.BoundAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
