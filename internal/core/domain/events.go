package domain

import "time"

// PolicyHolderRegisteredEvent represents the payload for policy.holder.registered messages.
type PolicyHolderRegisteredEvent struct {
	EventID        string
	PolicyHolderID string
	Email          string
	RegisteredAt   time.Time
	Method         string
	Metadata       map[string]any
}

// PolicyCreatedEvent represents the payload for policy.created messages.
type PolicyCreatedEvent struct {
	EventID        string
	PolicyID       string
	PolicyHolderID string
	CoveredCity    string
	StartDate      time.Time
	EndDate        time.Time
	CreatedAt      time.Time
	Metadata       map[string]any
}

// PolicyConfirmedEvent represents the payload for policy.confirmed messages.
type PolicyConfirmedEvent struct {
	EventID        string
	PolicyID       string
	PolicyHolderID string
	ConfirmedAt    time.Time
	Metadata       map[string]any
}

// PayoutAddressBoundEvent represents the payload for policy.payout_address.bound messages.
type PayoutAddressBoundEvent struct {
	EventID         string
	PolicyID        string
	EthereumAddress string
	BoundAt         time.Time
	Metadata        map[string]any
}
