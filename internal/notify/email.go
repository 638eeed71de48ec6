package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"hiremate-backend/internal/shared/telemetry"
)

type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends one email.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// LogMailer records emails in the log instead of sending them. It is used
// when SMTP is not configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Email) error {
	telemetry.Info("email.logged", map[string]any{
		"to":      msg.To,
		"subject": msg.Subject,
	})
	return nil
}

// SMTPMailer sends multipart emails through an SMTP relay with STARTTLS when
// the server offers it.
type SMTPMailer struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

func (m SMTPMailer) Send(ctx context.Context, msg Email) error {
	if m.Host == "" || m.From == "" {
		return errors.New("smtp host and from address are required")
	}
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("email recipient is required")
	}
	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	client, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if m.User != "" {
		if err := client.Auth(smtp.PlainAuth("", m.User, m.Pass, m.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(m.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(buildMIME(m.From, msg)); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return client.Quit()
}

const mimeBoundary = "hiremate-boundary-7f3a"

func buildMIME(from string, msg Email) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/alternative; boundary=" + mimeBoundary + "\r\n\r\n")
	b.WriteString("--" + mimeBoundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.Text + "\r\n")
	if msg.HTML != "" {
		b.WriteString("--" + mimeBoundary + "\r\n")
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.HTML + "\r\n")
	}
	b.WriteString("--" + mimeBoundary + "--\r\n")
	return []byte(b.String())
}
