package port

import (
	"context"

	"github.com/blackinsure/rainyday/internal/core/domain"
)

// PolicyHolderRepository exposes persistence behavior for policy holders.
type PolicyHolderRepository interface {
	Create(ctx context.Context, holder domain.PolicyHolder) error
	GetByID(ctx context.Context, id string) (*domain.PolicyHolder, error)
	GetByPolicyHolderID(ctx context.Context, policyHolderID string) (*domain.PolicyHolder, error)
	GetByEmail(ctx context.Context, email string) (*domain.PolicyHolder, error)
	GetByConfirmationID(ctx context.Context, confirmationID string) (*domain.PolicyHolder, error)
}
