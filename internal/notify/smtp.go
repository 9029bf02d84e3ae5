package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"text/template"
	"time"
)

// SMTPConfig holds mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

var messageTemplate = template.Must(template.New("code").Parse(
	"From: {{.From}}\r\n" +
		"To: {{.To}}\r\n" +
		"Subject: Your Moneta verification code\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		"Your verification code is {{.Code}}.\r\n" +
		"It expires in {{.Minutes}} minutes. If you did not request it, ignore this email.\r\n",
))

// SMTPSender mails codes through an SMTP relay, upgrading to TLS when the
// server offers STARTTLS.
type SMTPSender struct {
	cfg      SMTPConfig
	validFor time.Duration
	dialer   net.Dialer
}

// NewSMTPSender creates a sender. validFor is quoted in the message body.
func NewSMTPSender(cfg SMTPConfig, validFor time.Duration) *SMTPSender {
	return &SMTPSender{cfg: cfg, validFor: validFor}
}

// Send delivers code to the given address.
func (s *SMTPSender) Send(ctx context.Context, to, code string) error {
	msg, err := s.buildMessage(to, code)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	conn, err := s.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("starting smtp session: %w", err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing message: %w", err)
	}
	return client.Quit()
}

func (s *SMTPSender) buildMessage(to, code string) ([]byte, error) {
	var buf bytes.Buffer
	err := messageTemplate.Execute(&buf, struct {
		From, To, Code string
		Minutes        int
	}{
		From:    s.cfg.From,
		To:      to,
		Code:    code,
		Minutes: int(s.validFor.Minutes()),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering message: %w", err)
	}
	return buf.Bytes(), nil
}
