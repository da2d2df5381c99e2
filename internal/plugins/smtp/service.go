package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/mail"
	gosmtp "net/smtp"
	"strconv"
	"time"

	"github.com/keyxmakerx/beritabank/internal/clock"
	"github.com/keyxmakerx/beritabank/internal/config"
)

// dialTimeout bounds the TCP connect to the SMTP server.
const dialTimeout = 10 * time.Second

// ErrNotConfigured is returned by SendMail when no SMTP host is set.
var ErrNotConfigured = errors.New("smtp is not configured")

// MailService is the interface other plugins use to send email.
type MailService interface {
	SendMail(ctx context.Context, msg Message) error
	IsConfigured() bool
}

// smtpService implements MailService over net/smtp.
type smtpService struct {
	cfg   config.SMTPConfig
	clock clock.Clock
}

// NewMailService creates a mail service from the SMTP settings.
func NewMailService(cfg config.SMTPConfig, clk clock.Clock) MailService {
	if cfg.Encryption == "" {
		cfg.Encryption = EncryptionStartTLS
	}
	return &smtpService{cfg: cfg, clock: clk}
}

// IsConfigured returns true if a host and sender address are set.
func (s *smtpService) IsConfigured() bool {
	return s.cfg.IsConfigured()
}

// SendMail delivers msg. The context bounds the whole SMTP conversation.
func (s *smtpService) SendMail(ctx context.Context, msg Message) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}
	if len(msg.To) == 0 {
		return errors.New("no recipients")
	}

	from := mail.Address{Name: s.cfg.FromName, Address: s.cfg.FromAddress}
	body, err := buildMessage(from, msg, s.clock.Now())
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	conn, err := s.dial(ctx, addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := gosmtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	if s.cfg.Encryption == EncryptionStartTLS {
		tlsConfig := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("starting TLS: %w", err)
		}
	}

	if s.cfg.Username != "" {
		auth := gosmtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	if err := sendMessage(client, from.Address, msg.To, body); err != nil {
		return err
	}

	slog.Debug("mail sent",
		slog.Int("recipients", len(msg.To)),
		slog.String("subject", msg.Subject),
	)
	return nil
}

// dial opens the connection, wrapping it in TLS for implicit SSL (port 465
// typical).
func (s *smtpService) dial(ctx context.Context, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: dialTimeout}

	if s.cfg.Encryption == EncryptionSSL {
		tlsDialer := &tls.Dialer{
			NetDialer: dialer,
			Config:    &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12},
		}
		conn, err := tlsDialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("connecting to %s (SSL): %w", addr, err)
		}
		return conn, nil
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return conn, nil
}

// sendMessage handles MAIL FROM, RCPT TO, DATA for an existing SMTP client.
func sendMessage(client *gosmtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	for _, recipient := range to {
		if err := client.Rcpt(recipient); err != nil {
			return fmt.Errorf("RCPT TO %s: %w", recipient, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing data: %w", err)
	}
	return client.Quit()
}
