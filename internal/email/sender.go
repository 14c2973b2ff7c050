package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"dwellhub/backend/internal/config"
)

// Sender defines the interface for sending emails.
// The rawMessage parameter must contain the full message, headers included.
type Sender interface {
	Send(ctx context.Context, to []string, subject string, rawMessage []byte) error
}

// BuildMessage assembles a plain-text RFC 5322 message.
func BuildMessage(from string, to []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// SMTPSender implements Sender using net/smtp.
type SMTPSender struct {
	cfg  *config.Config
	log  *zap.Logger
	auth smtp.Auth
	addr string
}

// NewSMTPSender creates a Sender. When no SMTP host is configured a logging
// sender is returned instead, so development setups work without a relay.
func NewSMTPSender(cfg *config.Config, logger *zap.Logger) Sender {
	if cfg.SmtpHost == "" {
		logger.Info("SMTP host not configured, using logging email sender")
		return &LoggingSender{cfg: cfg, log: logger}
	}

	auth := smtp.PlainAuth(
		"", // identity
		cfg.SmtpUsername,
		cfg.SmtpPassword,
		cfg.SmtpHost,
	)
	addr := fmt.Sprintf("%s:%d", cfg.SmtpHost, cfg.SmtpPort)

	return &SMTPSender{cfg: cfg, log: logger, auth: auth, addr: addr}
}

// Send delivers the raw message over SMTP.
func (s *SMTPSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	err := smtp.SendMail(s.addr, s.auth, s.cfg.SmtpFromAddress, to, rawMessage)
	if err != nil {
		s.log.Error("failed to send email via SMTP", zap.Strings("to", to), zap.Error(err))
		return fmt.Errorf("smtp error: %w", err)
	}
	s.log.Info("email sent", zap.Strings("to", to), zap.String("subject", subject))
	return nil
}

// LoggingSender logs email details instead of sending. Used in development
// and in tests.
type LoggingSender struct {
	cfg *config.Config
	log *zap.Logger
}

// Send logs the email instead of delivering it.
func (s *LoggingSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	s.log.Info("email (logged, not sent)",
		zap.Strings("to", to),
		zap.String("from", s.cfg.SmtpFromAddress),
		zap.String("subject", subject),
		zap.Int("bytes", len(rawMessage)),
	)
	return nil
}
