// Package mailer is the email delivery channel for confirmation codes.
package mailer

import (
	"fmt"
	"log/slog"

	"reviewhub/internal/config"

	"gopkg.in/gomail.v2"
)

// Mailer delivers a confirmation code to a recipient. Delivery is
// synchronous; a failure propagates to the caller as a server error.
type Mailer interface {
	SendConfirmationCode(to, username, code string) error
}

// SMTPMailer sends plain-text mail through a configured SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:   cfg.EmailFrom,
	}
}

func (m *SMTPMailer) SendConfirmationCode(to, username, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your confirmation code")
	msg.SetBody("text/plain", fmt.Sprintf("Hello %s,\n\nYour confirmation code: %s\n", username, code))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send confirmation email to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes the code to the log instead of sending mail. Used in
// development when no SMTP relay is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendConfirmationCode(to, username, code string) error {
	m.logger.Info("confirmation code issued", "email", to, "username", username, "code", code)
	return nil
}

// FromConfig picks the SMTP mailer when a relay is configured and the log
// fallback otherwise.
func FromConfig(cfg *config.Config, logger *slog.Logger) Mailer {
	if cfg.SMTPHost != "" {
		return NewSMTPMailer(cfg)
	}
	return NewLogMailer(logger)
}
