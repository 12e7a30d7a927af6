package mailer

import (
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail/v2"

	"github.com/noah-isme/journal-editorial-api/pkg/config"
)

// Sender delivers a single message.
type Sender interface {
	Send(to []string, subject, body string) error
}

// SMTPMailer sends plain-text mail over SMTP with mandatory STARTTLS.
type SMTPMailer struct {
	from   string
	dialer *mail.Dialer
}

// NewSMTPMailer validates configuration and builds a mailer.
func NewSMTPMailer(cfg config.MailConfig) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("smtp not configured (SMTP_HOST/SMTP_FROM)")
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	d := mail.NewDialer(cfg.Host, port, cfg.User, cfg.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.SkipTLSVerify, //nolint:gosec
	}
	return &SMTPMailer{from: cfg.From, dialer: d}, nil
}

// Send implements Sender.
func (m *SMTPMailer) Send(to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}
	return m.dialer.DialAndSend(BuildMessage(m.from, to, subject, body))
}

// BuildMessage assembles the MIME message.
func BuildMessage(from string, to []string, subject, body string) *mail.Message {
	msg := mail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return msg
}
