package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/fekuna/omnipos-storefront/internal/notification"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"go.uber.org/zap"
)

type Config struct {
	Driver   string // "smtp" or "log"
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// New returns the SMTP mailer, or the log mailer when the driver is not smtp
// or no host is configured.
func New(cfg *Config, log logger.ZapLogger) notification.Mailer {
	if cfg.Driver == "smtp" && cfg.Host != "" {
		return &SMTPMailer{cfg: *cfg}
	}
	return &LogMailer{logger: log}
}

type SMTPMailer struct {
	cfg Config
}

func (m *SMTPMailer) Send(ctx context.Context, msg notification.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{msg.To}, Compose(m.cfg.From, msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// Compose builds an RFC 5322 plain-text message.
func Compose(from string, msg notification.Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogMailer writes mail to the log instead of sending it. Used in
// development.
type LogMailer struct {
	logger logger.ZapLogger
}

func (m *LogMailer) Send(_ context.Context, msg notification.Message) error {
	m.logger.Info("email",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
