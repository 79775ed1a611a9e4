package port

import "context"

// CaptchaVerifier checks an anti-abuse challenge token with the upstream
// verification service. A nil error means the token passed.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token string) error
}
