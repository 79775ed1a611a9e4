package port

import (
	"context"

	"github.com/blackinsure/rainyday/internal/core/domain"
)

// PolicyRepository exposes persistence behavior for policies.
type PolicyRepository interface {
	Create(ctx context.Context, policy domain.Policy) error
	GetByPolicyID(ctx context.Context, policyID string) (*domain.Policy, error)
	GetByHolderID(ctx context.Context, holderID string) (*domain.Policy, error)
	UpdateStatus(ctx context.Context, id string, status domain.PolicyStatus) error
	SetEthereumAddress(ctx context.Context, id string, address string) error
}
