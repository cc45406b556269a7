// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"kpihub/internal/app/lifecycle"

	"go.uber.org/zap"
)

// Config holds SMTP delivery settings.
type Config struct {
	Host     string // SMTP server host (e.g. localhost for Mailpit, email-smtp.us-east-1.amazonaws.com for SES)
	Port     int    // SMTP server port (e.g. 1025 for Mailpit, 587 for SES)
	Username string // SMTP username (empty for Mailpit)
	Password string
	From     string // Sender address, e.g. "KPIHub <no-reply@example.com>"
}

// Mailer sends multipart text+HTML mail over SMTP. It satisfies the
// lifecycle engine's mailer interface.
type Mailer struct {
	cfg Config
	log *zap.Logger
}

// New creates a Mailer.
func New(cfg Config, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{cfg: cfg, log: logger}
}

// Send delivers one message. The context is honored only up to the SMTP
// dial; net/smtp does not support cancellation mid-session.
func (m *Mailer) Send(ctx context.Context, msg lifecycle.Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return fmt.Errorf("mail has no recipient")
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	body := buildMessage(m.cfg.From, msg)
	if err := smtp.SendMail(addr, auth, envelopeFrom(m.cfg.From), []string{msg.To}, body); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}

	m.log.Debug("mail sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// envelopeFrom strips a display name from "Name <addr>" for the SMTP
// envelope sender.
func envelopeFrom(from string) string {
	if open := strings.LastIndex(from, "<"); open >= 0 {
		if close := strings.LastIndex(from, ">"); close > open {
			return from[open+1 : close]
		}
	}
	return from
}

// buildMessage renders the RFC 2045 multipart/alternative wire form. Text
// comes first so simple clients fall back gracefully.
func buildMessage(from string, msg lifecycle.Mail) []byte {
	boundary := fmt.Sprintf("kpihub-%d", time.Now().UnixNano())

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case msg.HTML != "" && msg.Text != "":
		fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(msg.Text)
		fmt.Fprintf(&b, "\r\n--%s\r\n", boundary)
		b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		b.WriteString(msg.HTML)
		fmt.Fprintf(&b, "\r\n--%s--\r\n", boundary)
	case msg.HTML != "":
		b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		b.WriteString(msg.HTML)
		b.WriteString("\r\n")
	default:
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(msg.Text)
		b.WriteString("\r\n")
	}

	return []byte(b.String())
}
