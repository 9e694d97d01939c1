package notification

import (
	"context"
	"fmt"

	"github.com/go-gomail/gomail"
	"github.com/rs/zerolog"
)

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers email through an SMTP relay.
type SMTPSender struct {
	from   string
	dialer mailDialer
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	if from == "" {
		from = username
	}
	return &SMTPSender{
		from:   from,
		dialer: gomail.NewDialer(host, port, username, password),
	}
}

func (s *SMTPSender) message(to, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return m
}

// SendEmail dials the relay for every message. The context is only checked
// before dialing.
func (s *SMTPSender) SendEmail(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(s.message(to, subject, body)); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	return nil
}

// LogSender writes outgoing email to the log instead of delivering it.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "mail").Logger()}
}

func (s *LogSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.logger.Info().
		Str("to", to).
		Str("subject", subject).
		Int("body_bytes", len(body)).
		Msg("email not delivered: no SMTP relay configured")
	return ErrDeliveryDisabled
}
