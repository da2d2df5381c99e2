// Package summary serves each account's cached daily briefing and the
// preference-update flow that invalidates it.
//
// A summary is fresh for the UTC calendar day it was generated on. Stale
// summaries are regenerated on read with one summarizer call, and the write
// is a compare-and-set on the previous generation time so concurrent
// refreshes cannot clobber each other.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/keyxmakerx/beritabank/internal/ai"
	"github.com/keyxmakerx/beritabank/internal/apperror"
	"github.com/keyxmakerx/beritabank/internal/clock"
	"github.com/keyxmakerx/beritabank/internal/plugins/audit"
	"github.com/keyxmakerx/beritabank/internal/plugins/auth"
	"github.com/keyxmakerx/beritabank/internal/sanitize"
)

// Store is the slice of the account repository this plugin needs.
type Store interface {
	FindByID(ctx context.Context, id string) (*auth.Account, error)
	ReplaceSummary(ctx context.Context, id string, prev *time.Time, summary auth.DailySummary) (bool, error)
	UpdateDescription(ctx context.Context, id, description string, summary auth.DailySummary) error
}

// PreferenceResult describes the outcome of a preference update.
type PreferenceResult struct {
	Response     string
	NewDesc      string
	DescUpdated  bool
	SummaryReset bool
}

// SummaryService defines the daily summary operations.
type SummaryService interface {
	// Get returns the account's summary, regenerating it if stale.
	Get(ctx context.Context, acc *auth.Account) (*auth.DailySummary, error)

	// UpdateFromMessage rewrites the description from a chat message and
	// invalidates the summary if the description changed.
	UpdateFromMessage(ctx context.Context, acc *auth.Account, message, ip string) (*PreferenceResult, error)
}

type summaryService struct {
	store      Store
	summarizer ai.Summarizer
	updater    ai.PreferenceUpdater
	activity   auth.ActivityRecorder
	clock      clock.Clock
}

// NewSummaryService creates the summary service.
func NewSummaryService(store Store, summarizer ai.Summarizer, updater ai.PreferenceUpdater,
	activity auth.ActivityRecorder, clk clock.Clock) SummaryService {
	return &summaryService{
		store:      store,
		summarizer: summarizer,
		updater:    updater,
		activity:   activity,
		clock:      clk,
	}
}

// IsFresh reports whether a summary generated at lastUpdated is still
// current at now.
func IsFresh(lastUpdated *time.Time, now time.Time) bool {
	if lastUpdated == nil || lastUpdated.After(now) {
		return false
	}
	return clock.SameDay(*lastUpdated, now)
}

func (s *summaryService) Get(ctx context.Context, acc *auth.Account) (*auth.DailySummary, error) {
	now := s.clock.Now()
	if IsFresh(acc.Summary.LastUpdated, now) {
		current := acc.Summary
		return &current, nil
	}

	if !acc.HasDescription() {
		return nil, apperror.NewMissingProfile()
	}

	generated, err := s.summarizer.Summarize(ctx, acc.Description)
	if err != nil {
		return nil, apperror.NewUpstreamFailure("Failed to generate daily summary", err)
	}

	next := auth.NewSummary(generated, now)
	won, err := s.store.ReplaceSummary(ctx, acc.ID, acc.Summary.LastUpdated, next)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("storing daily summary: %w", err))
	}

	if !won {
		// Another request refreshed first. Serve what it stored.
		latest, err := s.store.FindByID(ctx, acc.ID)
		if err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("reloading daily summary: %w", err))
		}
		return &latest.Summary, nil
	}

	slog.Info("daily summary refreshed", slog.String("account_id", acc.ID))
	return &next, nil
}

func (s *summaryService) UpdateFromMessage(ctx context.Context, acc *auth.Account, message, ip string) (*PreferenceResult, error) {
	message = sanitize.Text(message)
	if message == "" {
		return nil, apperror.NewValidation("Message is required")
	}

	update, err := s.updater.UpdatePreferences(ctx, acc.Description, message)
	if err != nil {
		return nil, apperror.NewUpstreamFailure("Failed to update preferences", err)
	}

	current := strings.TrimSpace(acc.Description)
	proposed := sanitize.Text(update.NewDescription)
	if proposed == "" {
		proposed = current
	}

	result := &PreferenceResult{
		Response: update.Response,
		NewDesc:  proposed,
	}
	if result.Response == "" {
		result.Response = "Preferences updated successfully"
	}

	if proposed == current {
		return result, nil
	}

	if err := s.store.UpdateDescription(ctx, acc.ID, proposed, auth.ResetSummary()); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("updating description: %w", err))
	}

	slog.Info("description updated from chat", slog.String("account_id", acc.ID))
	s.activity.Record(ctx, acc.ID, audit.ActionDescriptionUpdated, ip, map[string]any{"source": "chat"})

	result.DescUpdated = true
	result.SummaryReset = true
	return result, nil
}
