package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blackinsure/rainyday/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// StatusResponse represents a simple status payload.
type StatusResponse struct {
	Status string `json:"status"`
}

// HealthResponse describes the liveness payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// SocialProfilePayload carries a social login's profile fields.
type SocialProfilePayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (p SocialProfilePayload) toDomain() domain.SocialIdentity {
	return domain.SocialIdentity{ID: p.ID, Name: p.Name, Email: p.Email}
}

// CoveredCityPayload carries the covered city fields of a submission.
type CoveredCityPayload struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LoginRequest defines the payload for the password login endpoint.
type LoginRequest struct {
	EmailAddress   string `json:"emailAddress"`
	Password       string `json:"password"`
	RecaptchaToken string `json:"recaptchaToken"`
}

// LoginFailureResponse reports a rejected login, flagging whether the
// account exists so the client can prompt accordingly.
type LoginFailureResponse struct {
	ExistingAccount bool   `json:"existingAccount"`
	Error           bool   `json:"error"`
	Message         string `json:"message"`
}

// LoginSuccessResponse carries the authenticated holder's policy.
type LoginSuccessResponse struct {
	ExistingAccount bool           `json:"existingAccount"`
	Policy          PolicyResponse `json:"policy"`
}

// PolicyHolderPayload identifies the submitting holder, either returning
// (policyHolderID plus a social profile) or new (email and password).
type PolicyHolderPayload struct {
	PolicyHolderID string               `json:"policyHolderID"`
	EmailAddress   string               `json:"emailAddress"`
	Password       string               `json:"password"`
	Facebook       SocialProfilePayload `json:"facebook"`
	Google         SocialProfilePayload `json:"google"`
}

// NewPolicyRequest defines the payload for policy enrollment.
type NewPolicyRequest struct {
	PolicyHolder PolicyHolderPayload `json:"policyHolder"`
	CoveredCity  CoveredCityPayload  `json:"coveredCity"`
}

// GetPolicyRequest defines the payload for the secured policy lookup.
type GetPolicyRequest struct {
	PolicyHolderID string `json:"policyHolderID"`
}

// SetEthereumAddressRequest defines the payload for binding a payout address.
type SetEthereumAddressRequest struct {
	PolicyID        string `json:"policyID"`
	EthereumAddress string `json:"ethereumAddress"`
}

// FacebookLoginResponse reports whether a social login maps to a policy.
type FacebookLoginResponse struct {
	HasPolicy      bool            `json:"hasPolicy"`
	AccountID      string          `json:"accountID,omitempty"`
	PolicyHolderID string          `json:"policyHolderID,omitempty"`
	Name           string          `json:"name,omitempty"`
	Email          string          `json:"email,omitempty"`
	Policy         *PolicyResponse `json:"policy,omitempty"`
}

// PolicyResponse is the wire representation of a policy.
type PolicyResponse struct {
	PolicyID           string             `json:"policyID"`
	PolicyHolder       string             `json:"policyHolder"`
	CoveredCity        CoveredCityPayload `json:"coveredCity"`
	StartDateISOString string             `json:"startDateISOString"`
	EndDateISOString   string             `json:"endDateISOString"`
	Status             string             `json:"status"`
	EthereumAddress    string             `json:"ethereumAddress,omitempty"`
}

// NewPolicyResponse maps a policy and its holder's public identifier to the
// wire representation.
func NewPolicyResponse(policy *domain.Policy, policyHolderID string) PolicyResponse {
	return PolicyResponse{
		PolicyID:     policy.PolicyID,
		PolicyHolder: policyHolderID,
		CoveredCity: CoveredCityPayload{
			Name:      policy.CoveredCity.Name,
			Latitude:  policy.CoveredCity.Latitude,
			Longitude: policy.CoveredCity.Longitude,
		},
		StartDateISOString: policy.StartDate.UTC().Format(time.RFC3339),
		EndDateISOString:   policy.EndDate.UTC().Format(time.RFC3339),
		Status:             string(policy.Status),
		EthereumAddress:    policy.EthereumAddress,
	}
}
