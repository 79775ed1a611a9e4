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
	"github.com/blackinsure/rainyday/internal/infra/logger"
	"github.com/blackinsure/rainyday/internal/infra/security"
	"github.com/blackinsure/rainyday/internal/repository"
)

const (
	confirmationTokenBytes = 24
	policyHolderIDLength   = 22
	mailDispatchTimeout    = 30 * time.Second

	registrationMethodEmail  = "email"
	registrationMethodSocial = "social"
)

var (
	// ErrBlankCoveredCity indicates the covered city name or coordinates are missing.
	ErrBlankCoveredCity = errors.New("blank covered city")
	// ErrMissingSocialIdentity indicates a returning holder submission without a usable social profile.
	ErrMissingSocialIdentity = errors.New("social identity with a name is required")
	// ErrAlreadyAssociated indicates the holder already owns a policy.
	ErrAlreadyAssociated = errors.New("policy holder is already associated with a policy")
	// ErrEmailAlreadyAssociated indicates the email is already registered to a holder.
	ErrEmailAlreadyAssociated = errors.New("email is already associated with a policy holder")
	// ErrBlankEmail indicates a new holder submission without an email address.
	ErrBlankEmail = errors.New("email address is required")
	// ErrBlankPassword indicates a new holder submission without a password.
	ErrBlankPassword = errors.New("password is required")
	// ErrValidationFailed wraps unexpected failures during input validation.
	ErrValidationFailed = errors.New("failed while validating inputs")
)

// NewPolicyInput is the payload for a policy enrollment submission.
type NewPolicyInput struct {
	PolicyHolderID string
	CoveredCity    domain.CoveredCity
	Email          string
	Password       string
	Facebook       domain.SocialIdentity
	Google         domain.SocialIdentity

	// LinkHost is the host used to build the confirmation link, taken from
	// the incoming request.
	LinkHost string
}

func (in NewPolicyInput) hasSocialProfile() bool {
	if !in.Facebook.Blank() && strings.TrimSpace(in.Facebook.Name) != "" {
		return true
	}
	if !in.Google.Blank() && strings.TrimSpace(in.Google.Name) != "" {
		return true
	}
	return false
}

// EnrollmentService creates policy holders and their policies.
type EnrollmentService struct {
	holders     port.PolicyHolderRepository
	policies    port.PolicyRepository
	mailer      port.ConfirmationMailer
	events      port.EventPublisher
	tokens      TokenIssuer
	coverageEnd time.Time
	logger      *zap.Logger
}

// NewEnrollmentService constructs an enrollment service. coverageEnd is the
// fixed date every new policy's coverage runs to.
func NewEnrollmentService(
	holders port.PolicyHolderRepository,
	policies port.PolicyRepository,
	mailer port.ConfirmationMailer,
	events port.EventPublisher,
	tokens TokenIssuer,
	coverageEnd time.Time,
	log *zap.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		holders:     holders,
		policies:    policies,
		mailer:      mailer,
		events:      events,
		tokens:      tokens,
		coverageEnd: coverageEnd,
		logger:      log,
	}
}

// Validate applies the enrollment checks in submission order. Lookup failures
// other than a clean miss are wrapped in ErrValidationFailed so callers treat
// them as rejected input rather than a server fault.
func (s *EnrollmentService) Validate(ctx context.Context, in NewPolicyInput) error {
	if strings.TrimSpace(in.CoveredCity.Name) == "" ||
		in.CoveredCity.Latitude == 0 ||
		in.CoveredCity.Longitude == 0 {
		return ErrBlankCoveredCity
	}

	if strings.TrimSpace(in.PolicyHolderID) != "" {
		if !in.hasSocialProfile() {
			return ErrMissingSocialIdentity
		}

		holder, err := s.holders.GetByPolicyHolderID(ctx, in.PolicyHolderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrHolderNotFound
			}
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}

		if _, err := s.policies.GetByHolderID(ctx, holder.ID); err == nil {
			return ErrAlreadyAssociated
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}

		return nil
	}

	if strings.TrimSpace(in.Email) == "" {
		return ErrBlankEmail
	}
	if strings.TrimSpace(in.Password) == "" {
		return ErrBlankPassword
	}

	if _, err := s.holders.GetByEmail(ctx, strings.TrimSpace(in.Email)); err == nil {
		return ErrEmailAlreadyAssociated
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	return nil
}

// EnrollmentResult carries the created policy, its holder, and a session token.
type EnrollmentResult struct {
	Holder *domain.PolicyHolder
	Policy *domain.Policy
	Token  string
}

// CreatePolicy validates the submission and creates the policy, registering a
// new holder first when the request carries no existing identifier. The
// storage layer's uniqueness constraints are the final arbiter: a concurrent
// duplicate surfaces as ErrAlreadyAssociated or ErrEmailAlreadyAssociated
// even when validation raced past the lookup.
func (s *EnrollmentService) CreatePolicy(ctx context.Context, in NewPolicyInput) (EnrollmentResult, error) {
	var zero EnrollmentResult

	if err := s.Validate(ctx, in); err != nil {
		return zero, err
	}

	if strings.TrimSpace(in.PolicyHolderID) != "" {
		return s.createForExistingHolder(ctx, in)
	}
	return s.createForNewHolder(ctx, in)
}

func (s *EnrollmentService) createForExistingHolder(ctx context.Context, in NewPolicyInput) (EnrollmentResult, error) {
	var zero EnrollmentResult

	holder, err := s.holders.GetByPolicyHolderID(ctx, in.PolicyHolderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return zero, ErrHolderNotFound
		}
		return zero, fmt.Errorf("load policy holder: %w", err)
	}

	policy, err := s.savePolicy(ctx, holder, in.CoveredCity)
	if err != nil {
		return zero, err
	}

	s.dispatchConfirmation(holder, in.LinkHost, holder.SocialEmail(), holder.DisplayName())

	token, err := s.tokens.Issue(holder.DisplayName(), holder.PolicyHolderID, policy.CoveredCity.Name)
	if err != nil {
		return zero, fmt.Errorf("issue token: %w", err)
	}

	return EnrollmentResult{Holder: holder, Policy: policy, Token: token}, nil
}

func (s *EnrollmentService) createForNewHolder(ctx context.Context, in NewPolicyInput) (EnrollmentResult, error) {
	var zero EnrollmentResult

	passwordHash, err := security.HashPassword(strings.TrimSpace(in.Password))
	if err != nil {
		return zero, fmt.Errorf("hash password: %w", err)
	}

	confirmationID, err := security.GenerateSecureToken(confirmationTokenBytes)
	if err != nil {
		return zero, fmt.Errorf("generate confirmation id: %w", err)
	}

	policyHolderID, err := security.GenerateShortID(policyHolderIDLength)
	if err != nil {
		return zero, fmt.Errorf("generate policy holder id: %w", err)
	}

	now := time.Now().UTC()
	holder := domain.PolicyHolder{
		ID:             uuid.NewString(),
		PolicyHolderID: policyHolderID,
		Email:          strings.TrimSpace(in.Email),
		PasswordHash:   passwordHash,
		ConfirmationID: confirmationID,
		Facebook:       in.Facebook,
		Google:         in.Google,
		CreatedAt:      now,
	}

	if err := s.holders.Create(ctx, holder); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return zero, ErrEmailAlreadyAssociated
		}
		return zero, fmt.Errorf("create policy holder: %w", err)
	}

	// Re-fetch so the policy references the stored identity.
	stored, err := s.holders.GetByPolicyHolderID(ctx, holder.PolicyHolderID)
	if err != nil {
		return zero, fmt.Errorf("reload policy holder: %w", err)
	}

	s.publishHolderRegistered(ctx, stored, registrationMethodEmail)

	policy, err := s.savePolicy(ctx, stored, in.CoveredCity)
	if err != nil {
		return zero, err
	}

	s.dispatchConfirmation(stored, in.LinkHost, stored.Email, stored.DisplayName())

	token, err := s.tokens.Issue(stored.DisplayName(), stored.PolicyHolderID, policy.CoveredCity.Name)
	if err != nil {
		return zero, fmt.Errorf("issue token: %w", err)
	}

	return EnrollmentResult{Holder: stored, Policy: policy, Token: token}, nil
}

func (s *EnrollmentService) savePolicy(ctx context.Context, holder *domain.PolicyHolder, city domain.CoveredCity) (*domain.Policy, error) {
	now := time.Now().UTC()
	policy := domain.Policy{
		ID:          uuid.NewString(),
		PolicyID:    uuid.NewString(),
		HolderID:    holder.ID,
		CoveredCity: city,
		StartDate:   time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		EndDate:     s.coverageEnd,
		Status:      domain.PolicyStatusUnconfirmed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.policies.Create(ctx, policy); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyAssociated
		}
		return nil, fmt.Errorf("create policy: %w", err)
	}

	s.publishPolicyCreated(ctx, policy, holder.PolicyHolderID)

	return &policy, nil
}

// dispatchConfirmation sends the confirmation email without blocking the
// request. A holder with no resolvable name or address gets no email.
func (s *EnrollmentService) dispatchConfirmation(holder *domain.PolicyHolder, linkHost, email, name string) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(name) == "" {
		s.logger.Info("confirmation email suppressed: no resolvable recipient",
			zap.String("policy_holder_id", holder.PolicyHolderID),
		)
		return
	}

	msg := port.ConfirmationMessage{
		To:              email,
		RecipientName:   name,
		ConfirmationURL: fmt.Sprintf("https://%s/confirm/%s", linkHost, holder.ConfirmationID),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailDispatchTimeout)
		defer cancel()

		if err := s.mailer.SendPolicyConfirmation(ctx, msg); err != nil {
			s.logger.Error("confirmation email failed",
				zap.String("recipient", logger.MaskEmail(email)),
				zap.Error(err),
			)
		}
	}()
}

func (s *EnrollmentService) publishHolderRegistered(ctx context.Context, holder *domain.PolicyHolder, method string) {
	event := domain.PolicyHolderRegisteredEvent{
		EventID:        uuid.NewString(),
		PolicyHolderID: holder.PolicyHolderID,
		Email:          holder.Email,
		RegisteredAt:   holder.CreatedAt,
		Method:         method,
	}
	if err := s.events.PublishPolicyHolderRegistered(ctx, event); err != nil {
		s.logger.Warn("publish holder registered event failed", zap.Error(err))
	}
}

func (s *EnrollmentService) publishPolicyCreated(ctx context.Context, policy domain.Policy, policyHolderID string) {
	event := domain.PolicyCreatedEvent{
		EventID:        uuid.NewString(),
		PolicyID:       policy.PolicyID,
		PolicyHolderID: policyHolderID,
		CoveredCity:    policy.CoveredCity.Name,
		StartDate:      policy.StartDate,
		EndDate:        policy.EndDate,
		CreatedAt:      policy.CreatedAt,
	}
	if err := s.events.PublishPolicyCreated(ctx, event); err != nil {
		s.logger.Warn("publish policy created event failed", zap.Error(err))
	}
}
