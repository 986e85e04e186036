// Package mailer sends transactional email. Implementations can be swapped
// (SendGrid, SMTP, stub) without changing callers.
package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Config struct {
	APIKey    string `envconfig:"API_KEY" split_words:"true"`
	FromEmail string `envconfig:"FROM_EMAIL" split_words:"true"`
	FromName  string `envconfig:"FROM_NAME" split_words:"true" default:"Medical Appointment System"`
}

// Sender delivers one plain-text email and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) (string, error)
}

// SendGridSender sends email via the SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

// NewSendGridSender returns nil when no API key is configured; callers fall
// back to the stub.
func NewSendGridSender(cfg Config) *SendGridSender {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

func (s *SendGridSender) Send(ctx context.Context, to, subject, body string) (string, error) {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), body, body)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		log.Error().Str("to", to).Err(err).Msg("sendgrid send failed")
		return "", fmt.Errorf("sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		log.Error().Str("to", to).Int("status", response.StatusCode).Msg("sendgrid returned error status")
		return "", fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}

	messageID := ""
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}
	log.Info().Str("to", to).Str("subject", subject).Int("status", response.StatusCode).Msg("email sent")
	return messageID, nil
}

// StubSender logs instead of sending. Used when email is disabled.
type StubSender struct{}

func (StubSender) Send(_ context.Context, to, subject, _ string) (string, error) {
	log.Info().Str("to", to).Str("subject", subject).Msg("stub mailer: would send email")
	return "stub", nil
}
