// Package mail composes and delivers notification emails.
package mail

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/helpdesk/it-helpdesk/internal/config"
)

// Message is a single email with plain-text and HTML bodies.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender returns an SMTP sender when mail is enabled, otherwise a sender that only logs.
func NewSender(cfg config.MailConfig, logger *zap.Logger) Sender {
	if !cfg.Enabled || cfg.Host == "" {
		logger.Warn("mail delivery disabled; notifications will be logged only")
		return &LogSender{logger: logger}
	}
	return NewSMTPSender(cfg)
}

// SMTPSender delivers through an SMTP relay.
type SMTPSender struct {
	cfg    config.MailConfig
	dialer *gomail.Dialer
}

// NewSMTPSender builds a sender from mail settings.
func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send dials the relay per message. The context is checked before dialing only;
// gomail has no cancellation hook.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.SenderEmail, s.cfg.SenderName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email to %s: %w", msg.To, err)
	}
	return nil
}

// LogSender records messages in the log instead of sending them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender returns a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email suppressed",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}
