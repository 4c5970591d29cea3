// Package mail provides outbound email delivery.
package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/mixhub/apiserver/config"
)

// Mailer delivers a single plain-text message. Delivery is synchronous: the
// caller must observe failure so it can roll back any state tied to the
// message (e.g. a stored reset token).
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth: auth,
		from: cfg.From,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body))
	return smtp.SendMail(m.addr, m.auth, m.from, []string{to}, msg)
}
