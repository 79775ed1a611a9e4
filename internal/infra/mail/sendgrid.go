package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/blackinsure/rainyday/internal/core/port"
	"github.com/blackinsure/rainyday/internal/infra/config"
	"github.com/blackinsure/rainyday/internal/infra/logger"
)

// SendGridMailer delivers confirmation emails through the SendGrid v3 API
// using a transactional template.
type SendGridMailer struct {
	apiKey     string
	templateID string
	from       string
	subject    string
	sendURL    string
	client     *http.Client
	logger     *zap.Logger
}

// NewSendGridMailer creates a mailer from configuration.
func NewSendGridMailer(cfg config.MailSettings, log *zap.Logger) *SendGridMailer {
	return &SendGridMailer{
		apiKey:     cfg.SendGridAPIKey,
		templateID: cfg.TemplateID,
		from:       cfg.FromAddress,
		subject:    cfg.Subject,
		sendURL:    cfg.SendURL,
		client:     &http.Client{Timeout: cfg.Timeout},
		logger:     log,
	}
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridPersonalization struct {
	To            []sendGridAddress `json:"to"`
	Substitutions map[string]string `json:"substitutions,omitempty"`
	DynamicData   map[string]string `json:"dynamic_template_data,omitempty"`
}

type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	TemplateID       string                    `json:"template_id,omitempty"`
}

// SendPolicyConfirmation posts the templated confirmation email. The template
// receives the confirmation link under both substitution styles so legacy and
// dynamic templates render it.
func (m *SendGridMailer) SendPolicyConfirmation(ctx context.Context, msg port.ConfirmationMessage) error {
	vars := map[string]string{
		"confirmationLink": msg.ConfirmationURL,
		"recipientName":    msg.RecipientName,
	}

	payload := sendGridRequest{
		Personalizations: []sendGridPersonalization{{
			To:            []sendGridAddress{{Email: msg.To, Name: msg.RecipientName}},
			Substitutions: vars,
			DynamicData:   vars,
		}},
		From:       sendGridAddress{Email: m.from},
		Subject:    m.subject,
		TemplateID: m.templateID,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.sendURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("call sendgrid: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}

	m.logger.Info("confirmation email dispatched",
		zap.String("recipient", logger.MaskEmail(msg.To)),
	)

	return nil
}

// LoggingMailer records confirmation emails instead of sending them. Used in
// development when no SendGrid API key is configured.
type LoggingMailer struct {
	logger *zap.Logger
}

// NewLoggingMailer creates the log-only mailer.
func NewLoggingMailer(log *zap.Logger) *LoggingMailer {
	return &LoggingMailer{logger: log}
}

// SendPolicyConfirmation logs the would-be email and succeeds.
func (m *LoggingMailer) SendPolicyConfirmation(ctx context.Context, msg port.ConfirmationMessage) error {
	m.logger.Info("confirmation email (log only)",
		zap.String("recipient", logger.MaskEmail(msg.To)),
		zap.String("confirmation_url", msg.ConfirmationURL),
	)
	return nil
}

var (
	_ port.ConfirmationMailer = (*SendGridMailer)(nil)
	_ port.ConfirmationMailer = (*LoggingMailer)(nil)
)
