package port

import (
	"context"

	"github.com/blackinsure/rainyday/internal/core/domain"
)

// EventPublisher publishes policy lifecycle events to the message bus.
type EventPublisher interface {
	PublishPolicyHolderRegistered(ctx context.Context, event domain.PolicyHolderRegisteredEvent) error
	PublishPolicyCreated(ctx context.Context, event domain.PolicyCreatedEvent) error
	PublishPolicyConfirmed(ctx context.Context, event domain.PolicyConfirmedEvent) error
	PublishPayoutAddressBound(ctx context.Context, event domain.PayoutAddressBoundEvent) error
}
