package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func perplexityServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req perplexityRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sonar-pro", req.Model)
		assert.Len(t, req.Messages, 1)

		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
			"search_results": []map[string]string{
				{"title": "BI holds <b>rate</b>", "url": "https://news.example.com/bi", "date": "2025-03-14", "snippet": "Bank Indonesia..."},
				{"title": "Bad link", "url": "javascript:alert(1)"},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPerplexity_Summarize(t *testing.T) {
	content := "```json\n{\"summary_en\":\"BBCA: steady\",\"summary_id\":\"BBCA: stabil\",\"advice_en\":\"1. Hold\",\"advice_id\":\"1. Tahan\"}\n```"
	srv := perplexityServer(t, content, http.StatusOK)
	p := NewPerplexity("test-key", "", srv.URL, 5*time.Second)

	got, err := p.Summarize(context.Background(), "I hold BBCA")
	require.NoError(t, err)

	assert.Equal(t, "BBCA: steady", got.SummaryEN)
	assert.Equal(t, "BBCA: stabil", got.SummaryID)
	assert.Equal(t, "1. Hold", got.AdviceEN)
	assert.Equal(t, "1. Tahan", got.AdviceID)
	require.Len(t, got.SearchResults, 2)
	assert.Equal(t, "BI holds rate", got.SearchResults[0].Title)
	assert.Equal(t, "https://news.example.com/bi", got.SearchResults[0].URL)
	assert.Empty(t, got.SearchResults[1].URL)
}

func TestPerplexity_SummarizeFallsBackToRawContent(t *testing.T) {
	srv := perplexityServer(t, "Markets were quiet today.", http.StatusOK)
	p := NewPerplexity("test-key", "", srv.URL, 5*time.Second)

	got, err := p.Summarize(context.Background(), "bonds")
	require.NoError(t, err)
	assert.Equal(t, "Markets were quiet today.", got.SummaryEN)
	assert.Empty(t, got.SummaryID)
}

func TestPerplexity_UpstreamError(t *testing.T) {
	srv := perplexityServer(t, "", http.StatusTooManyRequests)
	p := NewPerplexity("test-key", "", srv.URL, 5*time.Second)

	_, err := p.Summarize(context.Background(), "bonds")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestPerplexity_NotConfigured(t *testing.T) {
	p := NewPerplexity("", "", "http://127.0.0.1:1", time.Second)
	_, err := p.Summarize(context.Background(), "bonds")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestPerplexity_UpdatePreferences(t *testing.T) {
	srv := perplexityServer(t, `{"new_desc":"Interested in BBRI and gold","response":"Added gold."}`, http.StatusOK)
	p := NewPerplexity("test-key", "", srv.URL, 5*time.Second)

	got, err := p.UpdatePreferences(context.Background(), "Interested in BBRI", "add gold please")
	require.NoError(t, err)
	assert.Equal(t, "Interested in BBRI and gold", got.NewDescription)
	assert.Equal(t, "Added gold.", got.Response)
}

func TestPerplexity_UpdatePreferencesQuestionOnly(t *testing.T) {
	srv := perplexityServer(t, `{"response":"Gold is up 1% today."}`, http.StatusOK)
	p := NewPerplexity("test-key", "", srv.URL, 5*time.Second)

	got, err := p.UpdatePreferences(context.Background(), "Interested in BBRI", "how is gold?")
	require.NoError(t, err)
	assert.Empty(t, got.NewDescription)
	assert.Equal(t, "Gold is up 1% today.", got.Response)
}

func TestDecodeModelJSON(t *testing.T) {
	var v struct {
		A string `json:"a"`
	}
	assert.True(t, decodeModelJSON(`{"a":"x"}`, &v))
	assert.Equal(t, "x", v.A)

	assert.True(t, decodeModelJSON("Sure! Here you go:\n{\"a\":\"y\"}\nHope it helps.", &v))
	assert.Equal(t, "y", v.A)

	assert.False(t, decodeModelJSON("no json here", &v))
	assert.False(t, decodeModelJSON("", &v))
}

func TestParseLanguage(t *testing.T) {
	assert.Equal(t, LanguageIndonesian, ParseLanguage("id"))
	assert.Equal(t, LanguageIndonesian, ParseLanguage(" ID "))
	assert.Equal(t, LanguageEnglish, ParseLanguage("en"))
	assert.Equal(t, LanguageEnglish, ParseLanguage("fr"))
	assert.Equal(t, LanguageEnglish, ParseLanguage(""))
}

func TestAssistantPrompt_UsesRecentWindow(t *testing.T) {
	var history []Message
	for i := 0; i < 8; i++ {
		history = append(history, Message{Role: RoleUser, Content: "msg-" + string(rune('a'+i))})
	}
	prompt := assistantPrompt(AssistantRequest{
		Description: "BBCA",
		History:     history,
		Kind:        TurnResponse,
		Language:    LanguageIndonesian,
	}, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC))

	assert.NotContains(t, prompt, "msg-c")
	assert.Contains(t, prompt, "msg-d")
	assert.Contains(t, prompt, "msg-h")
	assert.Contains(t, prompt, "March 14, 2025")
	assert.True(t, strings.HasSuffix(prompt, "Respond in Indonesian (Bahasa Indonesia) only."))
}

func TestAssistantPrompt_Introduction(t *testing.T) {
	prompt := assistantPrompt(AssistantRequest{Kind: TurnIntroduction, Language: LanguageEnglish}, time.Now())
	assert.Contains(t, prompt, "first conversation")
	assert.Contains(t, prompt, "(not provided)")
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("Hello "), genai.Text("there")}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
		},
	}
	assert.Equal(t, "Hello there", responseText(resp))
	assert.Equal(t, "", responseText(nil))
}

func TestUnconfigured(t *testing.T) {
	var u Unconfigured
	_, err := u.Respond(context.Background(), AssistantRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
