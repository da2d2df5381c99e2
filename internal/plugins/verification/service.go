package verification

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/keyxmakerx/beritabank/internal/apperror"
	"github.com/keyxmakerx/beritabank/internal/clock"
	"github.com/keyxmakerx/beritabank/internal/plugins/audit"
	"github.com/keyxmakerx/beritabank/internal/plugins/auth"
	"github.com/keyxmakerx/beritabank/internal/plugins/smtp"
)

// Mailer delivers verification emails. smtp.MailService satisfies it.
type Mailer interface {
	SendMail(ctx context.Context, msg smtp.Message) error
}

// Store is the slice of the account repository verification needs.
type Store interface {
	ReissueVerificationEnvelope(ctx context.Context, id string, issue func(current string) (string, error)) error
	RecordFailedAttempt(ctx context.Context, id, envelope string, maxAttempts int) (int, error)
	MarkVerified(ctx context.Context, id, envelope string, maxAttempts int) (auth.VerifyOutcome, error)
}

// Vault issues and opens verification envelopes. It satisfies
// auth.CodeIssuer so registration can issue a code before the account row
// exists.
type Vault struct {
	sealer *sealer
	mailer Mailer
	clock  clock.Clock
	ttl    time.Duration
}

// NewVault creates a vault whose envelopes are sealed under a key derived
// from secret and expire after ttl.
func NewVault(secret string, ttl time.Duration, mailer Mailer, clk clock.Clock) (*Vault, error) {
	s, err := newSealer(secret)
	if err != nil {
		return nil, err
	}
	return &Vault{sealer: s, mailer: mailer, clock: clk, ttl: ttl}, nil
}

// Issue generates a code, emails it and returns the sealed envelope.
// Nothing is returned unless delivery succeeded.
func (v *Vault) Issue(ctx context.Context, email, username string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	now := v.clock.Now()
	envelope, err := v.sealer.seal(payload{Code: code, CreatedAt: now, Expiry: now.Add(v.ttl)})
	if err != nil {
		return "", err
	}

	data := emailData{Username: username, Code: code, TTL: v.ttl, Year: now.Year()}
	html, err := renderHTML(ctx, data)
	if err != nil {
		return "", err
	}

	if err := v.mailer.SendMail(ctx, smtp.Message{
		To:       []string{email},
		Subject:  emailSubject,
		TextBody: textBody(data),
		HTMLBody: html,
	}); err != nil {
		return "", fmt.Errorf("sending verification email: %w", err)
	}

	return envelope, nil
}

// open decrypts a stored envelope.
func (v *Vault) open(envelope string) (*payload, error) {
	return v.sealer.open(envelope)
}

// Result is returned by a successful verification.
type Result struct {
	IsVerified       bool `json:"is_verified"`
	MinutesRemaining int  `json:"minutes_remaining"`
}

// Reissue is returned when a new code has been sent.
type Reissue struct {
	Email     string    `json:"email"`
	ExpiresIn string    `json:"expires_in"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VerificationService defines the verification state machine.
type VerificationService interface {
	Verify(ctx context.Context, acc *auth.Account, code, ip string) (*Result, error)
	Regenerate(ctx context.Context, acc *auth.Account, ip string) (*Reissue, error)
}

type verificationService struct {
	vault       *Vault
	store       Store
	activity    auth.ActivityRecorder
	clock       clock.Clock
	maxAttempts int
}

// NewVerificationService creates the verification service.
func NewVerificationService(vault *Vault, store Store, activity auth.ActivityRecorder, clk clock.Clock, maxAttempts int) VerificationService {
	return &verificationService{
		vault:       vault,
		store:       store,
		activity:    activity,
		clock:       clk,
		maxAttempts: maxAttempts,
	}
}

// Verify checks a submitted code against the stored envelope. The attempt
// cap is checked before decrypting and again under the row lock when the
// account is marked verified. A wrong code consumes an attempt; an expired
// but correct code does not.
func (s *verificationService) Verify(ctx context.Context, acc *auth.Account, code, ip string) (*Result, error) {
	if acc.IsVerified {
		return &Result{IsVerified: true}, nil
	}

	if code == "" {
		return nil, apperror.NewValidation("Verification code is required")
	}
	if !validCode(code) {
		return nil, apperror.NewValidation("Verification code must be 6 digits")
	}

	if acc.VerificationAttempts >= s.maxAttempts {
		return nil, apperror.NewAttemptsExhausted()
	}

	p, err := s.vault.open(acc.VerificationEnvelope)
	if err != nil {
		slog.Warn("verification envelope rejected",
			slog.String("account_id", acc.ID),
			slog.Any("error", err),
		)
		return nil, apperror.NewEnvelopeInvalid(err)
	}

	if subtle.ConstantTimeCompare([]byte(p.Code), []byte(code)) != 1 {
		return nil, s.recordMismatch(ctx, acc, ip)
	}

	now := s.clock.Now()
	if now.After(p.Expiry) {
		return nil, apperror.NewCodeExpired()
	}

	outcome, err := s.store.MarkVerified(ctx, acc.ID, acc.VerificationEnvelope, s.maxAttempts)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("marking account verified: %w", err))
	}
	switch outcome {
	case auth.VerifyExhausted:
		return nil, apperror.NewAttemptsExhausted()
	case auth.VerifyReplaced:
		return nil, apperror.NewCodeExpired()
	}

	slog.Info("email verified", slog.String("account_id", acc.ID))
	s.activity.Record(ctx, acc.ID, audit.ActionVerificationSucceeded, ip, nil)

	return &Result{IsVerified: true, MinutesRemaining: minutesUntil(now, p.Expiry)}, nil
}

func (s *verificationService) recordMismatch(ctx context.Context, acc *auth.Account, ip string) error {
	attempts, err := s.store.RecordFailedAttempt(ctx, acc.ID, acc.VerificationEnvelope, s.maxAttempts)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("recording failed attempt: %w", err))
	}

	s.activity.Record(ctx, acc.ID, audit.ActionVerificationFailed, ip, map[string]any{"attempts": attempts})

	if attempts == 0 {
		// The envelope was replaced concurrently, so this submission was
		// checked against a code that no longer applies.
		return apperror.NewCodeExpired()
	}

	remaining := s.maxAttempts - attempts
	if remaining <= 0 {
		return apperror.NewAttemptsExhausted()
	}
	return apperror.NewCodeMismatch(remaining)
}

// Regenerate issues a new code unless the current one is still valid. An
// envelope that cannot be opened counts as expired. The check and the send
// run against the stored envelope while the row is locked, so two
// concurrent requests send one email.
func (s *verificationService) Regenerate(ctx context.Context, acc *auth.Account, ip string) (*Reissue, error) {
	now := s.clock.Now()

	err := s.store.ReissueVerificationEnvelope(ctx, acc.ID, func(current string) (string, error) {
		if current != "" {
			if p, err := s.vault.open(current); err == nil && now.Before(p.Expiry) {
				return "", apperror.NewCodeStillValid(minutesUntil(now, p.Expiry))
			}
		}

		envelope, err := s.vault.Issue(ctx, acc.Email, acc.Username)
		if err != nil {
			return "", apperror.NewUpstreamFailure("Failed to send verification email", err)
		}
		return envelope, nil
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperror.NewInternal(fmt.Errorf("storing verification envelope: %w", err))
	}

	slog.Info("verification code reissued", slog.String("account_id", acc.ID))
	s.activity.Record(ctx, acc.ID, audit.ActionVerificationIssued, ip, nil)

	return &Reissue{
		Email:     acc.Email,
		ExpiresIn: emailData{TTL: s.vault.ttl}.expiresIn(),
		ExpiresAt: now.Add(s.vault.ttl),
	}, nil
}

// minutesUntil rounds the time left up to whole minutes, never below 1.
func minutesUntil(now, expiry time.Time) int {
	left := expiry.Sub(now)
	minutes := int((left + time.Minute - 1) / time.Minute)
	return max(minutes, 1)
}
