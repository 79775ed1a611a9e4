package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken indicates the token failed signature or claim validation.
	ErrInvalidToken = errors.New("security: invalid token")
	// ErrExpiredToken indicates the token is past its expiry.
	ErrExpiredToken = errors.New("security: expired token")
)

// PolicyClaims is the session payload issued after a confirmed login.
type PolicyClaims struct {
	Name            string `json:"name"`
	PolicyHolderID  string `json:"policyHolderID"`
	CoveredCityName string `json:"coveredCityName"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates HMAC-signed session tokens.
type TokenManager struct {
	secret   []byte
	issuer   string
	tokenTTL time.Duration
}

// NewTokenManager creates a TokenManager for HS256 tokens.
func NewTokenManager(secret, issuer string, tokenTTL time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if tokenTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	return &TokenManager{
		secret:   []byte(secret),
		issuer:   issuer,
		tokenTTL: tokenTTL,
	}, nil
}

// Issue signs a session token carrying the holder's display name, identifier
// and covered city.
func (m *TokenManager) Issue(name, policyHolderID, coveredCityName string) (string, error) {
	now := time.Now().UTC()

	claims := PolicyClaims{
		Name:            name,
		PolicyHolderID:  policyHolderID,
		CoveredCityName: coveredCityName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   policyHolderID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Parse validates a session token and returns its claims.
func (m *TokenManager) Parse(raw string) (*PolicyClaims, error) {
	claims := &PolicyClaims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.PolicyHolderID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
