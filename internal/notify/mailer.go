package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers a single confirmation email. Implementations own their
// retry and timeout policy.
type Mailer interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}

// SendgridMailer sends through the SendGrid v3 API.
type SendgridMailer struct {
	key  string
	from *sgmail.Email
}

// NewSendgridMailer creates a mailer for the given API key and sender.
func NewSendgridMailer(key, fromName, fromAddr string) *SendgridMailer {
	return &SendgridMailer{
		key:  key,
		from: sgmail.NewEmail(fromName, fromAddr),
	}
}

// Send delivers one message and returns the API error, if any.
func (m *SendgridMailer) Send(_ context.Context, to, subject, textBody, htmlBody string) error {
	p := sgmail.NewPersonalization()
	p.Subject = subject
	p.AddTos(sgmail.NewEmail("", to))

	msg := sgmail.NewV3Mail()
	msg.SetFrom(m.from)
	msg.AddPersonalizations(p)
	msg.AddContent(
		sgmail.NewContent("text/plain", textBody),
		sgmail.NewContent("text/html", htmlBody),
	)

	client := sendgrid.NewSendClient(m.key)
	resp, err := client.Send(msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// ConsoleMailer logs messages instead of sending them; the dev default.
type ConsoleMailer struct {
	log zerolog.Logger
}

// NewConsoleMailer creates a console mailer.
func NewConsoleMailer(log zerolog.Logger) *ConsoleMailer {
	return &ConsoleMailer{log: log}
}

// Send writes the message to the log.
func (m *ConsoleMailer) Send(_ context.Context, to, subject, textBody, _ string) error {
	m.log.Info().Str("to", to).Str("subject", subject).Str("body", textBody).Msg("mail (console)")
	return nil
}
