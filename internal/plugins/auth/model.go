// Package auth handles accounts for BeritaBank: registration, login, bearer
// token sessions, and the profile fields other plugins build on.
//
// Tokens are opaque random strings. Only their SHA-256 digest is stored, so a
// leaked accounts table does not leak live sessions.
package auth

import (
	"strings"
	"time"

	"github.com/keyxmakerx/beritabank/internal/ai"
)

// SummarySentinel marks a daily summary that has never been generated or was
// invalidated. It is always stale.
var SummarySentinel = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// Account is a registered BeritaBank user. Secrets are excluded from JSON.
type Account struct {
	ID           string `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	PasswordSalt string `json:"-"`

	SessionIssuedAt *time.Time `json:"-"`

	IsVerified           bool   `json:"is_verified"`
	VerificationEnvelope string `json:"-"`
	VerificationAttempts int    `json:"verification_attempts"`

	Description string       `json:"desc"`
	Summary     DailySummary `json:"-"`

	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login"`
}

// HasDescription reports whether the account has a non-blank description.
func (a *Account) HasDescription() bool {
	return strings.TrimSpace(a.Description) != ""
}

// DailySummary is the cached briefing stored on an account. LastUpdated is
// nil only for rows that predate the summary columns.
type DailySummary struct {
	LastUpdated *time.Time `json:"last_updated"`
	ai.DailySummary
}

// ResetSummary returns an empty summary stamped with SummarySentinel.
func ResetSummary() DailySummary {
	t := SummarySentinel
	return DailySummary{
		LastUpdated:  &t,
		DailySummary: ai.DailySummary{SearchResults: []ai.SearchResult{}},
	}
}

// NewSummary stamps a generated summary with its generation time.
func NewSummary(s *ai.DailySummary, at time.Time) DailySummary {
	body := *s
	if body.SearchResults == nil {
		body.SearchResults = []ai.SearchResult{}
	}
	return DailySummary{LastUpdated: &at, DailySummary: body}
}

// VerifyOutcome is what MarkVerified found under the row lock.
type VerifyOutcome int

const (
	// VerifyApplied means the account is now verified.
	VerifyApplied VerifyOutcome = iota
	// VerifyReplaced means a newer envelope was stored after the read.
	VerifyReplaced
	// VerifyExhausted means the attempt cap was reached after the read.
	VerifyExhausted
)

// ProfileStatus describes which onboarding steps an account still needs.
type ProfileStatus struct {
	IsVerified          bool     `json:"is_verified"`
	HasDescription      bool     `json:"has_description"`
	AllRequirementsMet  bool     `json:"all_requirements_met"`
	MissingRequirements []string `json:"missing_requirements"`
	Guidance            string   `json:"guidance"`
}

// Missing requirement identifiers.
const (
	RequirementEmailVerification = "email_verification"
	RequirementDescription       = "user_description"
)

// --- Request DTOs (bound from HTTP requests) ---

// RegisterRequest is the JSON body of POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Desc     string `json:"desc"`
}

// LoginRequest is the JSON body of POST /api/auth/login. Username may hold
// either the username or the email address.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// DescriptionRequest is the JSON body of POST /api/auth/create_desc.
type DescriptionRequest struct {
	Desc string `json:"desc"`
}

// --- Service Input DTOs (passed from handler to service) ---

// RegisterInput is the input for creating a new account.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	Description string
	IP          string
}

// LoginInput is the input for authenticating an account.
type LoginInput struct {
	Identifier string
	Password   string
	IP         string
}

// Session is an issued bearer token with the account it belongs to.
type Session struct {
	Account *Account
	Token   string
}
