package domain

import (
	"strings"
	"time"
)

// PolicyStatus enumerates the lifecycle states of a policy.
type PolicyStatus string

const (
	PolicyStatusUnconfirmed PolicyStatus = "Unconfirmed"
	PolicyStatusConfirmed   PolicyStatus = "Confirmed"
)

// CoveredCity is the location whose weather the policy covers.
type CoveredCity struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Policy mirrors the persisted representation in the policies table.
type Policy struct {
	ID              string
	PolicyID        string
	HolderID        string
	CoveredCity     CoveredCity
	StartDate       time.Time
	EndDate         time.Time
	Status          PolicyStatus
	EthereumAddress string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SocialIdentity carries the profile fields of a linked social login.
type SocialIdentity struct {
	ID    string
	Name  string
	Email string
}

// Blank reports whether the identity carries no usable account reference.
func (s SocialIdentity) Blank() bool {
	return strings.TrimSpace(s.ID) == ""
}

// PolicyHolder mirrors the persisted representation in the policy_holders table.
type PolicyHolder struct {
	ID             string
	PolicyHolderID string
	Email          string
	PasswordHash   string
	ConfirmationID string
	BalanceBLCK    float64
	Facebook       SocialIdentity
	Google         SocialIdentity
	CreatedAt      time.Time
}

// DisplayName resolves the holder's presentable name: Facebook profile name
// first, then Google, then the account email.
func (h PolicyHolder) DisplayName() string {
	if name := strings.TrimSpace(h.Facebook.Name); name != "" {
		return name
	}
	if name := strings.TrimSpace(h.Google.Name); name != "" {
		return name
	}
	return h.Email
}

// SocialAccountID resolves the external account id of a social-login holder:
// Facebook profile id first, then Google. Empty for email-registered holders.
func (h PolicyHolder) SocialAccountID() string {
	if id := strings.TrimSpace(h.Facebook.ID); id != "" {
		return id
	}
	return strings.TrimSpace(h.Google.ID)
}

// SocialEmail resolves the deliverable address of a social-login holder:
// Facebook email first, then Google. Empty when neither profile carries one.
func (h PolicyHolder) SocialEmail() string {
	if email := strings.TrimSpace(h.Facebook.Email); email != "" {
		return email
	}
	return strings.TrimSpace(h.Google.Email)
}
