package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/keyxmakerx/beritabank/internal/clock"
)

// Gemini is the conversational Assistant backed by Google's Gemini models.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	clock   clock.Clock
}

// NewGemini creates a Gemini assistant. The returned value owns a gRPC
// connection and must be closed on shutdown.
func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration, clk clock.Clock) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-1.5-pro"
	}
	return &Gemini{client: client, model: model, timeout: timeout, clock: clk}, nil
}

// Close releases the underlying client connection.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// Respond implements Assistant.
func (g *Gemini) Respond(ctx context.Context, req AssistantRequest) (*AssistantReply, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.7)

	resp, err := model.GenerateContent(ctx, genai.Text(assistantPrompt(req, g.clock.Now())))
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		return nil, fmt.Errorf("gemini returned an empty reply")
	}

	return &AssistantReply{Message: text, Timestamp: g.clock.Now()}, nil
}

// responseText concatenates the text parts of the first candidate that has any.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

// Unconfigured stands in for any collaborator whose API key is missing, so
// the server still starts and the affected endpoints report an upstream
// failure instead.
type Unconfigured struct{}

func (Unconfigured) Summarize(context.Context, string) (*DailySummary, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) Respond(context.Context, AssistantRequest) (*AssistantReply, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) UpdatePreferences(context.Context, string, string) (*PreferenceUpdate, error) {
	return nil, ErrNotConfigured
}
