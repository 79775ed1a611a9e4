package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blackinsure/rainyday/internal/core/domain"
	"github.com/blackinsure/rainyday/internal/core/port"
	"github.com/blackinsure/rainyday/internal/infra/security"
	"github.com/blackinsure/rainyday/internal/repository"
)

var (
	// ErrBlankPolicyID indicates the request named no policy.
	ErrBlankPolicyID = errors.New("policy id is required")
	// ErrInvalidEthereumAddress indicates the payout address failed format or checksum validation.
	ErrInvalidEthereumAddress = errors.New("invalid ethereum address")
)

// PolicyService serves policy reads and payout-address updates for
// authenticated holders.
type PolicyService struct {
	holders  port.PolicyHolderRepository
	policies port.PolicyRepository
	events   port.EventPublisher
	tokens   TokenIssuer
	logger   *zap.Logger
}

// NewPolicyService constructs a policy service.
func NewPolicyService(
	holders port.PolicyHolderRepository,
	policies port.PolicyRepository,
	events port.EventPublisher,
	tokens TokenIssuer,
	log *zap.Logger,
) *PolicyService {
	return &PolicyService{
		holders:  holders,
		policies: policies,
		events:   events,
		tokens:   tokens,
		logger:   log,
	}
}

// GetPolicy loads the policy owned by the given holder. An unknown holder
// fails before any policy lookup happens.
func (s *PolicyService) GetPolicy(ctx context.Context, policyHolderID string) (*domain.Policy, error) {
	holder, err := s.holders.GetByPolicyHolderID(ctx, policyHolderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrHolderNotFound
		}
		return nil, fmt.Errorf("load policy holder: %w", err)
	}

	policy, err := s.policies.GetByHolderID(ctx, holder.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPolicyNotFound
		}
		return nil, fmt.Errorf("load policy: %w", err)
	}

	return policy, nil
}

// SetEthereumAddress validates and binds a payout address to a policy.
func (s *PolicyService) SetEthereumAddress(ctx context.Context, policyID, address string) error {
	if strings.TrimSpace(policyID) == "" {
		return ErrBlankPolicyID
	}
	if !security.IsEthereumAddress(address) {
		return ErrInvalidEthereumAddress
	}

	policy, err := s.policies.GetByPolicyID(ctx, policyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPolicyNotFound
		}
		return fmt.Errorf("load policy: %w", err)
	}

	if err := s.policies.SetEthereumAddress(ctx, policy.ID, address); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPolicyNotFound
		}
		return fmt.Errorf("bind ethereum address: %w", err)
	}

	s.publishAddressBound(ctx, policy.PolicyID, address)

	return nil
}

// FacebookLoginResult reports whether a social login maps onto an existing
// policy. HasPolicy false is a normal outcome for a first-time visitor.
type FacebookLoginResult struct {
	HasPolicy bool
	Holder    *domain.PolicyHolder
	Policy    *domain.Policy
	Token     string
}

// FacebookLogin resolves an authenticated social identity to its policy.
func (s *PolicyService) FacebookLogin(ctx context.Context, policyHolderID string) (FacebookLoginResult, error) {
	holder, err := s.holders.GetByPolicyHolderID(ctx, policyHolderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return FacebookLoginResult{HasPolicy: false}, nil
		}
		return FacebookLoginResult{}, fmt.Errorf("load policy holder: %w", err)
	}

	policy, err := s.policies.GetByHolderID(ctx, holder.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return FacebookLoginResult{HasPolicy: false, Holder: holder}, nil
		}
		return FacebookLoginResult{}, fmt.Errorf("load policy: %w", err)
	}

	token, err := s.tokens.Issue(holder.DisplayName(), holder.PolicyHolderID, policy.CoveredCity.Name)
	if err != nil {
		return FacebookLoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	return FacebookLoginResult{HasPolicy: true, Holder: holder, Policy: policy, Token: token}, nil
}

func (s *PolicyService) publishAddressBound(ctx context.Context, policyID, address string) {
	event := domain.PayoutAddressBoundEvent{
		EventID:         uuid.NewString(),
		PolicyID:        policyID,
		EthereumAddress: address,
		BoundAt:         time.Now().UTC(),
	}
	if err := s.events.PublishPayoutAddressBound(ctx, event); err != nil {
		s.logger.Warn("publish payout address bound event failed", zap.Error(err))
	}
}
