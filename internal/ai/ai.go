// Package ai holds the contracts for the language-model collaborators and
// their Perplexity and Gemini implementations. Callers depend on the
// interfaces; main decides which provider backs each one.
package ai

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotConfigured is returned by providers constructed without an API key.
var ErrNotConfigured = errors.New("ai provider is not configured")

// SearchResult is one citation returned alongside a generated summary.
type SearchResult struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Date     string `json:"date"`
	Snippet  string `json:"snippet"`
	ImageURL string `json:"image_url"`
}

// DailySummary is the generated body of a user's daily briefing, in English
// and Indonesian.
type DailySummary struct {
	SummaryEN     string         `json:"summary_en"`
	SummaryID     string         `json:"summary_id"`
	AdviceEN      string         `json:"advice_en"`
	AdviceID      string         `json:"advice_id"`
	SearchResults []SearchResult `json:"search_results"`
}

// TurnKind selects how the assistant frames its reply.
type TurnKind string

const (
	TurnIntroduction TurnKind = "introduction"
	TurnDailyIntro   TurnKind = "daily_intro"
	TurnResponse     TurnKind = "response"
)

// Language is the reply language requested by the client.
type Language string

const (
	LanguageEnglish    Language = "en"
	LanguageIndonesian Language = "id"
)

// ParseLanguage maps a client language code to a supported Language,
// falling back to English.
func ParseLanguage(code string) Language {
	if Language(strings.ToLower(strings.TrimSpace(code))) == LanguageIndonesian {
		return LanguageIndonesian
	}
	return LanguageEnglish
}

// Name returns the language name used in prompts.
func (l Language) Name() string {
	if l == LanguageIndonesian {
		return "Indonesian (Bahasa Indonesia)"
	}
	return "English"
}

// Roles of chat messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat history entry.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
}

// AssistantRequest is everything the assistant sees for one turn. History
// already contains the current user message for response turns.
type AssistantRequest struct {
	Description string
	History     []Message
	Kind        TurnKind
	Language    Language
}

// AssistantReply is the assistant's message for one turn.
type AssistantReply struct {
	Message   string
	Timestamp time.Time
}

// PreferenceUpdate is the result of interpreting a free-text preference
// request. NewDescription is empty when the message asked for no change.
type PreferenceUpdate struct {
	NewDescription string
	Response       string
}

// Summarizer produces a daily summary from a user's interest description.
type Summarizer interface {
	Summarize(ctx context.Context, description string) (*DailySummary, error)
}

// Assistant produces conversational replies.
type Assistant interface {
	Respond(ctx context.Context, req AssistantRequest) (*AssistantReply, error)
}

// PreferenceUpdater rewrites a description from a user's chat message.
type PreferenceUpdater interface {
	UpdatePreferences(ctx context.Context, description, message string) (*PreferenceUpdate, error)
}
