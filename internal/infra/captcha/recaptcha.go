package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/blackinsure/rainyday/internal/core/port"
	"github.com/blackinsure/rainyday/internal/infra/config"
)

// ErrVerificationFailed indicates the captcha provider rejected the token.
var ErrVerificationFailed = errors.New("captcha: verification failed")

// RecaptchaVerifier validates captcha tokens against the Google reCAPTCHA
// siteverify endpoint.
type RecaptchaVerifier struct {
	secretKey string
	verifyURL string
	client    *http.Client
	logger    *zap.Logger
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// NewRecaptchaVerifier creates a verifier from configuration.
func NewRecaptchaVerifier(cfg config.CaptchaSettings, logger *zap.Logger) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		secretKey: cfg.SecretKey,
		verifyURL: cfg.VerifyURL,
		client:    &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
	}
}

// Verify posts the token to the siteverify endpoint and returns
// ErrVerificationFailed unless the provider confirms success.
func (v *RecaptchaVerifier) Verify(ctx context.Context, token string) error {
	form := url.Values{}
	form.Set("response", token)
	form.Set("secret", v.secretKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("call siteverify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("siteverify returned status %d", resp.StatusCode)
	}

	var body siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode siteverify response: %w", err)
	}

	if !body.Success {
		v.logger.Warn("captcha verification rejected", zap.Strings("error_codes", body.ErrorCodes))
		return ErrVerificationFailed
	}

	return nil
}

// AllowAllVerifier accepts every token. Used in development when no captcha
// secret is configured.
type AllowAllVerifier struct {
	logger *zap.Logger
}

// NewAllowAllVerifier creates the pass-through verifier.
func NewAllowAllVerifier(logger *zap.Logger) *AllowAllVerifier {
	return &AllowAllVerifier{logger: logger}
}

// Verify always succeeds.
func (v *AllowAllVerifier) Verify(ctx context.Context, token string) error {
	v.logger.Debug("captcha verification skipped")
	return nil
}

var (
	_ port.CaptchaVerifier = (*RecaptchaVerifier)(nil)
	_ port.CaptchaVerifier = (*AllowAllVerifier)(nil)
)
