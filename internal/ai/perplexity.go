package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/keyxmakerx/beritabank/internal/sanitize"
)

// Perplexity calls the Perplexity chat-completions API. Its sonar models
// search the web while answering and return the sources they used, which
// become the citations of a daily summary.
type Perplexity struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewPerplexity creates a Perplexity client. timeout bounds each request.
func NewPerplexity(apiKey, model, baseURL string, timeout time.Duration) *Perplexity {
	if model == "" {
		model = "sonar-pro"
	}
	if baseURL == "" {
		baseURL = "https://api.perplexity.ai"
	}
	return &Perplexity{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityRequest struct {
	Model       string              `json:"model"`
	Messages    []perplexityMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature float64             `json:"temperature"`
}

type perplexityResponse struct {
	Choices []struct {
		Message perplexityMessage `json:"message"`
	} `json:"choices"`
	SearchResults []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Date    string `json:"date"`
		Snippet string `json:"snippet"`
	} `json:"search_results"`
}

// chat sends a single-prompt completion and returns the reply text plus the
// search results the model cited.
func (p *Perplexity) chat(ctx context.Context, prompt string) (string, []SearchResult, error) {
	if p.apiKey == "" {
		return "", nil, ErrNotConfigured
	}

	body, err := json.Marshal(perplexityRequest{
		Model:       p.model,
		Messages:    []perplexityMessage{{Role: "user", Content: prompt}},
		MaxTokens:   1000,
		Temperature: 0.3,
	})
	if err != nil {
		return "", nil, fmt.Errorf("marshaling perplexity request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", nil, fmt.Errorf("building perplexity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("calling perplexity: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", nil, fmt.Errorf("reading perplexity response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("perplexity API error: status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed perplexityResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", nil, fmt.Errorf("decoding perplexity response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", nil, fmt.Errorf("perplexity returned no choices")
	}

	results := make([]SearchResult, 0, len(parsed.SearchResults))
	for _, r := range parsed.SearchResults {
		results = append(results, SearchResult{
			Title:   sanitize.Text(r.Title),
			URL:     sanitize.URL(r.URL),
			Date:    r.Date,
			Snippet: sanitize.Text(r.Snippet),
		})
	}

	return parsed.Choices[0].Message.Content, results, nil
}

// Summarize implements Summarizer. When the model ignores the JSON
// instructions, the raw reply becomes the English summary rather than
// failing the request.
func (p *Perplexity) Summarize(ctx context.Context, description string) (*DailySummary, error) {
	content, results, err := p.chat(ctx, summaryPrompt(description))
	if err != nil {
		return nil, err
	}

	var fields struct {
		SummaryEN string `json:"summary_en"`
		SummaryID string `json:"summary_id"`
		AdviceEN  string `json:"advice_en"`
		AdviceID  string `json:"advice_id"`
	}
	if !decodeModelJSON(content, &fields) {
		fields.SummaryEN = strings.TrimSpace(content)
	}

	return &DailySummary{
		SummaryEN:     fields.SummaryEN,
		SummaryID:     fields.SummaryID,
		AdviceEN:      fields.AdviceEN,
		AdviceID:      fields.AdviceID,
		SearchResults: results,
	}, nil
}

// UpdatePreferences implements PreferenceUpdater. A reply without new_desc
// means the user asked a question rather than requesting a change.
func (p *Perplexity) UpdatePreferences(ctx context.Context, description, message string) (*PreferenceUpdate, error) {
	content, _, err := p.chat(ctx, preferencePrompt(description, message))
	if err != nil {
		return nil, err
	}

	var fields struct {
		NewDesc  string `json:"new_desc"`
		Response string `json:"response"`
	}
	if !decodeModelJSON(content, &fields) {
		return &PreferenceUpdate{Response: strings.TrimSpace(content)}, nil
	}

	return &PreferenceUpdate{
		NewDescription: strings.TrimSpace(fields.NewDesc),
		Response:       strings.TrimSpace(fields.Response),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
