// Package chat runs the conversational assistant. Each turn is classified
// from the request and the account's persisted history, the assistant is
// called with an ephemeral copy of that history, and the exchange is then
// appended to chat_messages.
package chat

import (
	"strings"
	"time"

	"github.com/keyxmakerx/beritabank/internal/ai"
)

// Classify decides how the assistant should frame a turn. A message always
// gets a direct response; without one the assistant introduces itself to
// new users and greets returning ones.
func Classify(message string, hasHistory bool) ai.TurnKind {
	switch {
	case strings.TrimSpace(message) != "":
		return ai.TurnResponse
	case hasHistory:
		return ai.TurnDailyIntro
	default:
		return ai.TurnIntroduction
	}
}

// SendRequest is the JSON body of POST /api/message.
type SendRequest struct {
	Message  string `json:"message"`
	Language string `json:"language"`
}

// Turn is the outcome of one chat exchange.
type Turn struct {
	Message   string       `json:"message"`
	Type      ai.TurnKind  `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	History   []ai.Message `json:"chat_history"`
}
