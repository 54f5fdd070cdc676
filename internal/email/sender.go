// Package email provides email sending functionality for the application.
// It supports both development mode (log-only) and production mode (SMTP).
package email

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"leadlms/internal/config"
)

// Message is one outgoing email with text and HTML alternatives.
type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Sender defines the interface for sending emails
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender creates a new email sender based on configuration
func NewSender(cfg config.EmailConfig, logger *slog.Logger) Sender {
	if cfg.Mode == config.EmailModeSMTP {
		return &smtpSender{config: cfg, logger: logger}
	}
	return &logSender{logger: logger}
}

// logSender logs emails instead of sending them (development mode)
type logSender struct {
	logger *slog.Logger
}

func (s *logSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info("[DEV] Email not sent, EMAIL_MODE=log",
		"to", strings.Join(msg.To, ", "),
		"subject", msg.Subject,
	)
	s.logger.Debug("[DEV] Email body", "text", msg.Text)
	return nil
}

// smtpSender sends emails via SMTP (production mode). Port 465 uses
// implicit TLS; other ports rely on STARTTLS when the server offers it.
type smtpSender struct {
	config config.EmailConfig
	logger *slog.Logger
}

func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}

	body, err := buildMessage(s.config.FromName, s.config.FromEmail, msg, time.Now())
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)

	if s.config.Port == 465 {
		err = s.sendImplicitTLS(ctx, addr, auth, msg.To, body)
	} else {
		err = smtp.SendMail(addr, auth, s.config.FromEmail, msg.To, body)
	}
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("Email sent via SMTP", "recipients", len(msg.To), "subject", msg.Subject)
	return nil
}

func (s *smtpSender) sendImplicitTLS(ctx context.Context, addr string, auth smtp.Auth, to []string, body []byte) error {
	dialer := &tls.Dialer{Config: &tls.Config{ServerName: s.config.Host, MinVersion: tls.VersionTLS12}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("tls dial: %w", err)
	}

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(s.config.FromEmail); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// buildMessage renders a multipart/alternative RFC 5322 message.
func buildMessage(fromName, fromEmail string, msg Message, date time.Time) ([]byte, error) {
	boundary, err := randomBoundary()
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", fromName), fromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	writePart := func(contentType, content string) {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		fmt.Fprintf(&b, "Content-Type: %s; charset=UTF-8\r\n", contentType)
		b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
		b.WriteString(strings.ReplaceAll(content, "\n", "\r\n"))
		b.WriteString("\r\n")
	}
	writePart("text/plain", msg.Text)
	writePart("text/html", msg.HTML)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return b.Bytes(), nil
}

func randomBoundary() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate MIME boundary: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
