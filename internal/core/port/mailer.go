package port

import "context"

// ConfirmationMessage captures everything needed to deliver a policy
// confirmation email.
type ConfirmationMessage struct {
	To              string
	RecipientName   string
	ConfirmationURL string
}

// ConfirmationMailer delivers policy confirmation emails.
type ConfirmationMailer interface {
	SendPolicyConfirmation(ctx context.Context, msg ConfirmationMessage) error
}
