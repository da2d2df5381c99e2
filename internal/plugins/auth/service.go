package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/keyxmakerx/beritabank/internal/ai"
	"github.com/keyxmakerx/beritabank/internal/apperror"
	"github.com/keyxmakerx/beritabank/internal/clock"
	"github.com/keyxmakerx/beritabank/internal/database"
	"github.com/keyxmakerx/beritabank/internal/plugins/audit"
	"github.com/keyxmakerx/beritabank/internal/sanitize"
)

// Input limits.
const (
	minUsernameLen    = 3
	maxUsernameLen    = 50
	maxEmailLen       = 255
	maxDescriptionLen = 2000
)

// CodeIssuer generates a verification code, delivers it to the address and
// returns the sealed envelope to store. Delivery failure is an error.
type CodeIssuer interface {
	Issue(ctx context.Context, email, username string) (envelope string, err error)
}

// ActivityRecorder receives security-relevant account events.
type ActivityRecorder interface {
	Record(ctx context.Context, accountID, action, ip string, details map[string]any)
}

// AuthService defines the business logic contract for accounts.
// Handlers call these methods. They never touch the repository directly.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*Session, error)
	Login(ctx context.Context, input LoginInput) (*Session, error)

	// ResolveToken maps a bearer token to its account.
	ResolveToken(ctx context.Context, token string) (*Account, error)
	Logout(ctx context.Context, accountID string) error

	// SetDescription replaces the description and regenerates the summary
	// on a best-effort basis.
	SetDescription(ctx context.Context, acc *Account, description, ip string) (*Account, error)
}

// authService implements AuthService with argon2id hashing and hashed
// bearer tokens stored on the account row.
type authService struct {
	repo       AccountRepository
	codes      CodeIssuer
	summarizer ai.Summarizer
	activity   ActivityRecorder
	clock      clock.Clock
	sessionTTL time.Duration
}

// NewAuthService creates a new auth service with the given dependencies.
// A zero sessionTTL disables token expiry.
func NewAuthService(repo AccountRepository, codes CodeIssuer, summarizer ai.Summarizer,
	activity ActivityRecorder, clk clock.Clock, sessionTTL time.Duration) AuthService {
	return &authService{
		repo:       repo,
		codes:      codes,
		summarizer: summarizer,
		activity:   activity,
		clock:      clk,
		sessionTTL: sessionTTL,
	}
}

// Register creates a new account. Uniqueness is checked before the
// expensive hashing, and the verification code is delivered before the row
// is inserted so no unverifiable account is ever created.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	description := sanitize.Text(input.Description)

	if err := validateRegistration(username, email, input.Password, description); err != nil {
		return nil, err
	}

	exists, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking username: %w", err))
	}
	if exists {
		return nil, apperror.NewConflict("Username already exists")
	}

	exists, err = s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return nil, apperror.NewConflict("Email already exists")
	}

	if msg := checkPasswordStrength(input.Password); msg != "" {
		return nil, apperror.NewValidation(msg)
	}

	hash, salt, err := hashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	token, tokenHash, err := issueToken()
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	now := s.clock.Now()
	acc := &Account{
		ID:              uuid.NewString(),
		Username:        username,
		Email:           email,
		PasswordHash:    hash,
		PasswordSalt:    salt,
		SessionIssuedAt: &now,
		Description:     description,
		Summary:         s.initialSummary(ctx, description, now),
		CreatedAt:       now,
	}

	envelope, err := s.codes.Issue(ctx, email, username)
	if err != nil {
		return nil, apperror.NewUpstreamFailure("Failed to send verification email", err)
	}
	acc.VerificationEnvelope = envelope

	if err := s.repo.Create(ctx, acc, tokenHash); err != nil {
		if database.IsDuplicateKey(err) {
			return nil, apperror.NewConflict("Username or email already exists")
		}
		return nil, apperror.NewInternal(fmt.Errorf("creating account: %w", err))
	}

	slog.Info("account registered",
		slog.String("account_id", acc.ID),
		slog.String("username", acc.Username),
	)
	s.activity.Record(ctx, acc.ID, audit.ActionAccountRegistered, input.IP, nil)
	s.activity.Record(ctx, acc.ID, audit.ActionVerificationIssued, input.IP, nil)

	return &Session{Account: acc, Token: token}, nil
}

// initialSummary asks the summarizer for a first briefing. Any failure
// leaves the sentinel summary in place.
func (s *authService) initialSummary(ctx context.Context, description string, now time.Time) DailySummary {
	if description == "" {
		return ResetSummary()
	}

	generated, err := s.summarizer.Summarize(ctx, description)
	if err != nil {
		slog.Warn("could not generate daily summary", slog.Any("error", err))
		return ResetSummary()
	}
	return NewSummary(generated, now)
}

// Login authenticates by username or email. Unknown identifiers and wrong
// passwords produce the same error after the same amount of hashing work.
func (s *authService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	if strings.TrimSpace(input.Identifier) == "" || input.Password == "" {
		return nil, apperror.NewValidation("Username/email and password are required")
	}

	acc, err := s.repo.FindByIdentifier(ctx, input.Identifier)
	if err != nil {
		if apperror.Is(err, apperror.TypeNotFound) {
			verifyPassword(input.Password, dummyHash, dummySalt)
			return nil, apperror.NewInvalidCredentials()
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding account: %w", err))
	}

	if !verifyPassword(input.Password, acc.PasswordHash, acc.PasswordSalt) {
		s.activity.Record(ctx, acc.ID, audit.ActionAccountLoginFailed, input.IP, nil)
		return nil, apperror.NewInvalidCredentials()
	}

	token, tokenHash, err := issueToken()
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	now := s.clock.Now()
	if err := s.repo.RotateSession(ctx, acc.ID, tokenHash, now); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("rotating session: %w", err))
	}
	acc.SessionIssuedAt = &now
	acc.LastLogin = &now

	slog.Info("account logged in", slog.String("account_id", acc.ID))
	s.activity.Record(ctx, acc.ID, audit.ActionAccountLogin, input.IP, nil)

	return &Session{Account: acc, Token: token}, nil
}

func (s *authService) ResolveToken(ctx context.Context, token string) (*Account, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperror.NewUnauthenticated("Token is missing")
	}

	acc, err := s.repo.FindByTokenHash(ctx, hashToken(token))
	if err != nil {
		if apperror.Is(err, apperror.TypeNotFound) {
			return nil, apperror.NewInvalidToken("Invalid token")
		}
		return nil, apperror.NewInternal(fmt.Errorf("resolving token: %w", err))
	}

	if s.sessionTTL > 0 && acc.SessionIssuedAt != nil &&
		s.clock.Now().After(acc.SessionIssuedAt.Add(s.sessionTTL)) {
		return nil, apperror.NewInvalidToken("Token has expired")
	}

	return acc, nil
}

func (s *authService) Logout(ctx context.Context, accountID string) error {
	if err := s.repo.ClearSession(ctx, accountID); err != nil {
		return apperror.NewInternal(fmt.Errorf("clearing session: %w", err))
	}
	slog.Info("account logged out", slog.String("account_id", accountID))
	return nil
}

func (s *authService) SetDescription(ctx context.Context, acc *Account, description, ip string) (*Account, error) {
	description = sanitize.Text(description)
	if description == "" {
		return nil, apperror.NewValidation("Description is required")
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return nil, apperror.NewValidation(fmt.Sprintf("Description must be at most %d characters", maxDescriptionLen))
	}

	now := s.clock.Now()
	generated, err := s.summarizer.Summarize(ctx, description)
	summary := ResetSummary()
	if err != nil {
		slog.Warn("could not generate daily summary",
			slog.String("account_id", acc.ID),
			slog.Any("error", err),
		)
	} else {
		summary = NewSummary(generated, now)
	}

	if err := s.repo.UpdateDescription(ctx, acc.ID, description, summary); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("updating description: %w", err))
	}

	s.activity.Record(ctx, acc.ID, audit.ActionDescriptionUpdated, ip, map[string]any{"source": "profile"})

	updated := *acc
	updated.Description = description
	updated.Summary = summary
	return &updated, nil
}

// StatusOf reports the onboarding steps an account still has to complete.
func StatusOf(acc *Account) ProfileStatus {
	status := ProfileStatus{
		IsVerified:          acc.IsVerified,
		HasDescription:      acc.HasDescription(),
		MissingRequirements: []string{},
	}
	if !status.IsVerified {
		status.MissingRequirements = append(status.MissingRequirements, RequirementEmailVerification)
	}
	if !status.HasDescription {
		status.MissingRequirements = append(status.MissingRequirements, RequirementDescription)
	}
	status.AllRequirementsMet = len(status.MissingRequirements) == 0

	switch {
	case !status.IsVerified && !status.HasDescription:
		status.Guidance = "Please verify your email and add a description to complete your profile."
	case !status.IsVerified:
		status.Guidance = "Please verify your email to complete your profile."
	case !status.HasDescription:
		status.Guidance = "Please add a description to complete your profile."
	default:
		status.Guidance = "Your profile is complete!"
	}
	return status
}

// validateRegistration checks presence and format. Password strength is
// checked separately, after the uniqueness checks.
func validateRegistration(username, email, password, description string) error {
	if username == "" || email == "" || password == "" {
		return apperror.NewValidation("Username, email, and password are required")
	}

	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return apperror.NewValidation(fmt.Sprintf("Username must be between %d and %d characters", minUsernameLen, maxUsernameLen))
	}
	if strings.ContainsAny(username, " \t\r\n@") {
		return apperror.NewValidation("Username must not contain spaces or @")
	}

	if len(email) > maxEmailLen {
		return apperror.NewValidation("Email address is too long")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperror.NewValidation("Invalid email address")
	}

	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return apperror.NewValidation(fmt.Sprintf("Description must be at most %d characters", maxDescriptionLen))
	}
	return nil
}
