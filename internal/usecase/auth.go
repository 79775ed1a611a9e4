package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/blackinsure/rainyday/internal/core/domain"
	"github.com/blackinsure/rainyday/internal/core/port"
	"github.com/blackinsure/rainyday/internal/infra/logger"
	"github.com/blackinsure/rainyday/internal/infra/security"
	"github.com/blackinsure/rainyday/internal/repository"
)

var (
	// ErrCaptchaTokenMissing indicates the login request carried no captcha token.
	ErrCaptchaTokenMissing = errors.New("captcha token is required")
	// ErrCaptchaFailed indicates the captcha verifier rejected the token or could not be reached.
	ErrCaptchaFailed = errors.New("captcha verification failed")
	// ErrHolderNotFound indicates no policy holder matches the given identifier or email.
	ErrHolderNotFound = errors.New("policy holder not found")
	// ErrIncorrectPassword indicates the account exists but the password does not match.
	ErrIncorrectPassword = errors.New("incorrect password")
	// ErrPolicyNotFound indicates the holder exists but owns no policy.
	ErrPolicyNotFound = errors.New("policy not found")
)

// TokenIssuer signs session tokens for authenticated policy holders.
type TokenIssuer interface {
	Issue(name, policyHolderID, coveredCityName string) (string, error)
}

// AuthService authenticates policy holders with email and password.
type AuthService struct {
	holders  port.PolicyHolderRepository
	policies port.PolicyRepository
	captcha  port.CaptchaVerifier
	tokens   TokenIssuer
	logger   *zap.Logger
}

// NewAuthService constructs an authentication service.
func NewAuthService(
	holders port.PolicyHolderRepository,
	policies port.PolicyRepository,
	captcha port.CaptchaVerifier,
	tokens TokenIssuer,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		holders:  holders,
		policies: policies,
		captcha:  captcha,
		tokens:   tokens,
		logger:   log,
	}
}

// LoginResult carries the authenticated holder, their policy, and a session token.
type LoginResult struct {
	Holder *domain.PolicyHolder
	Policy *domain.Policy
	Token  string
}

// Login verifies the captcha token, authenticates the credentials, and loads
// the holder's policy. Credential checks run only after the captcha passes.
func (s *AuthService) Login(ctx context.Context, email, password, captchaToken string) (LoginResult, error) {
	var zero LoginResult

	if strings.TrimSpace(captchaToken) == "" {
		return zero, ErrCaptchaTokenMissing
	}

	if err := s.captcha.Verify(ctx, captchaToken); err != nil {
		s.logger.Warn("captcha verification failed", zap.Error(err))
		return zero, fmt.Errorf("%w: %v", ErrCaptchaFailed, err)
	}

	holder, err := s.holders.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return zero, ErrHolderNotFound
		}
		return zero, fmt.Errorf("load policy holder: %w", err)
	}

	ok, err := security.VerifyPassword(password, holder.PasswordHash)
	if err != nil {
		return zero, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.logger.Info("login rejected",
			zap.String("email", logger.MaskEmail(holder.Email)),
		)
		return zero, ErrIncorrectPassword
	}

	policy, err := s.policies.GetByHolderID(ctx, holder.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return zero, ErrPolicyNotFound
		}
		return zero, fmt.Errorf("load policy: %w", err)
	}

	token, err := s.tokens.Issue(holder.DisplayName(), holder.PolicyHolderID, policy.CoveredCity.Name)
	if err != nil {
		return zero, fmt.Errorf("issue token: %w", err)
	}

	return LoginResult{Holder: holder, Policy: policy, Token: token}, nil
}
