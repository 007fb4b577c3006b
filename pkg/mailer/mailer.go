package mailer

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers transactional email.
type Mailer interface {
	Send(toName, toEmail, subject, plainBody, htmlBody string) error
}

// SendgridMailer delivers through the SendGrid v3 API.
type SendgridMailer struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

// NewSendgrid constructs a SendgridMailer.
func NewSendgrid(apiKey, fromName, fromEmail string) *SendgridMailer {
	return &SendgridMailer{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// Send delivers a single message.
func (m *SendgridMailer) Send(toName, toEmail, subject, plainBody, htmlBody string) error {
	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	if htmlBody == "" {
		htmlBody = plainBody
	}
	message := mail.NewSingleEmail(from, subject, to, plainBody, htmlBody)
	resp, err := m.client.Send(message)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("send mail: sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// Noop discards every message. Used when mail delivery is disabled.
type Noop struct{}

// Send implements Mailer.
func (Noop) Send(_, _, _, _, _ string) error {
	return nil
}
