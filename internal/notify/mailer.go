package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"radiantbloom/internal/config"
)

// SMTPMailer delivers mail through a plain SMTP relay. Auth is used
// only when a username is configured, so a local Mailpit works too.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		from = "no-reply@radiantbloom.local"
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from: from,
		auth: auth,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := buildMessage(m.from, to, subject, htmlBody)
	return smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg))
}

func buildMessage(from, to, subject, body string) string {
	// Minimal RFC 5322 message; enough for Mailpit and most SMTP relays.
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n",
		from,
		to,
		subject,
		body,
	)
}
