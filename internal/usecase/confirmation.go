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
	"github.com/blackinsure/rainyday/internal/repository"
)

// ConfirmationOutcome describes what a confirmation visit did.
type ConfirmationOutcome int

const (
	// ConfirmationNothing means the code was blank or unknown; the visit
	// just loads the application.
	ConfirmationNothing ConfirmationOutcome = iota
	// ConfirmationCompleted means the policy moved to Confirmed on this visit.
	ConfirmationCompleted
	// ConfirmationAlreadyDone means the policy was confirmed on an earlier visit.
	ConfirmationAlreadyDone
)

// ConfirmationResult carries the outcome and, for a completed confirmation,
// a freshly issued session token.
type ConfirmationResult struct {
	Outcome ConfirmationOutcome
	Token   string
}

// ConfirmationService resolves emailed confirmation links.
type ConfirmationService struct {
	holders  port.PolicyHolderRepository
	policies port.PolicyRepository
	events   port.EventPublisher
	tokens   TokenIssuer
	logger   *zap.Logger
}

// NewConfirmationService constructs a confirmation service.
func NewConfirmationService(
	holders port.PolicyHolderRepository,
	policies port.PolicyRepository,
	events port.EventPublisher,
	tokens TokenIssuer,
	log *zap.Logger,
) *ConfirmationService {
	return &ConfirmationService{
		holders:  holders,
		policies: policies,
		events:   events,
		tokens:   tokens,
		logger:   log,
	}
}

// Confirm resolves a confirmation code. Unknown or blank codes are not an
// error; the visit falls through to loading the application. Confirming an
// already-confirmed policy is a no-op, so revisiting a link is safe.
func (s *ConfirmationService) Confirm(ctx context.Context, confirmationID string) (ConfirmationResult, error) {
	if strings.TrimSpace(confirmationID) == "" {
		return ConfirmationResult{Outcome: ConfirmationNothing}, nil
	}

	holder, err := s.holders.GetByConfirmationID(ctx, confirmationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ConfirmationResult{Outcome: ConfirmationNothing}, nil
		}
		return ConfirmationResult{}, fmt.Errorf("load policy holder: %w", err)
	}

	policy, err := s.policies.GetByHolderID(ctx, holder.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ConfirmationResult{Outcome: ConfirmationNothing}, nil
		}
		return ConfirmationResult{}, fmt.Errorf("load policy: %w", err)
	}

	if policy.Status == domain.PolicyStatusConfirmed {
		return ConfirmationResult{Outcome: ConfirmationAlreadyDone}, nil
	}

	if err := s.policies.UpdateStatus(ctx, policy.ID, domain.PolicyStatusConfirmed); err != nil {
		return ConfirmationResult{}, fmt.Errorf("confirm policy: %w", err)
	}

	s.publishConfirmed(ctx, policy, holder)

	token, err := s.tokens.Issue(holder.DisplayName(), holder.PolicyHolderID, policy.CoveredCity.Name)
	if err != nil {
		return ConfirmationResult{}, fmt.Errorf("issue token: %w", err)
	}

	return ConfirmationResult{Outcome: ConfirmationCompleted, Token: token}, nil
}

func (s *ConfirmationService) publishConfirmed(ctx context.Context, policy *domain.Policy, holder *domain.PolicyHolder) {
	event := domain.PolicyConfirmedEvent{
		EventID:        uuid.NewString(),
		PolicyID:       policy.PolicyID,
		PolicyHolderID: holder.PolicyHolderID,
		ConfirmedAt:    time.Now().UTC(),
	}
	if err := s.events.PublishPolicyConfirmed(ctx, event); err != nil {
		s.logger.Warn("publish policy confirmed event failed", zap.Error(err))
	}
}
