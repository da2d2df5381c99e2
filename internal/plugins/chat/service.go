package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/keyxmakerx/beritabank/internal/ai"
	"github.com/keyxmakerx/beritabank/internal/apperror"
	"github.com/keyxmakerx/beritabank/internal/clock"
	"github.com/keyxmakerx/beritabank/internal/plugins/auth"
	"github.com/keyxmakerx/beritabank/internal/sanitize"
)

// maxMessageLength bounds a single user message.
const maxMessageLength = 4000

// ChatService defines the chat operations.
type ChatService interface {
	// Send runs one chat turn. An empty message asks for an introduction or
	// a daily greeting.
	Send(ctx context.Context, acc *auth.Account, message, language string) (*Turn, error)

	// History returns the account's persisted chat history.
	History(ctx context.Context, acc *auth.Account) ([]ai.Message, error)
}

type chatService struct {
	repo      ChatRepository
	assistant ai.Assistant
	clock     clock.Clock
}

// NewChatService creates a new chat service.
func NewChatService(repo ChatRepository, assistant ai.Assistant, clk clock.Clock) ChatService {
	return &chatService{repo: repo, assistant: assistant, clock: clk}
}

func (s *chatService) Send(ctx context.Context, acc *auth.Account, message, language string) (*Turn, error) {
	raw := strings.TrimSpace(message)
	message = sanitize.Text(raw)
	if raw != "" && message == "" {
		// Markup alone is not a message, and an empty one would be read as
		// a request for a greeting.
		return nil, apperror.NewValidation("Message must contain text")
	}
	if len([]rune(message)) > maxMessageLength {
		return nil, apperror.NewValidation(fmt.Sprintf("Message must be at most %d characters", maxMessageLength))
	}

	history, err := s.repo.History(ctx, acc.ID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("loading chat history: %w", err))
	}

	kind := Classify(message, len(history) > 0)

	// The assistant sees the new message; the stored history does not
	// change until the reply is in.
	prompt := make([]ai.Message, len(history), len(history)+1)
	copy(prompt, history)

	var pending []ai.Message
	if message != "" {
		userMsg := ai.Message{Role: ai.RoleUser, Content: message, CreatedAt: s.clock.Now()}
		prompt = append(prompt, userMsg)
		pending = append(pending, userMsg)
	}

	reply, err := s.assistant.Respond(ctx, ai.AssistantRequest{
		Description: acc.Description,
		History:     prompt,
		Kind:        kind,
		Language:    ai.ParseLanguage(language),
	})
	if err != nil {
		return nil, apperror.NewUpstreamFailure("Failed to get a response from the assistant", err)
	}

	at := reply.Timestamp
	if at.IsZero() {
		at = s.clock.Now()
	}
	pending = append(pending, ai.Message{Role: ai.RoleAssistant, Content: reply.Message, CreatedAt: at})

	if err := s.repo.Append(ctx, acc.ID, pending...); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("saving chat messages: %w", err))
	}

	slog.Debug("chat turn completed",
		slog.String("account_id", acc.ID),
		slog.String("kind", string(kind)),
		slog.Int("history_len", len(history)+len(pending)),
	)

	return &Turn{
		Message:   reply.Message,
		Type:      kind,
		Timestamp: at,
		History:   append(history, pending...),
	}, nil
}

func (s *chatService) History(ctx context.Context, acc *auth.Account) ([]ai.Message, error) {
	history, err := s.repo.History(ctx, acc.ID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("loading chat history: %w", err))
	}
	return history, nil
}
