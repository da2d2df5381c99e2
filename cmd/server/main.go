// Package main is the entry point for the BeritaBank server. It loads
// configuration, establishes database connections, chooses the external
// collaborators, wires together all plugins, and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keyxmakerx/beritabank/internal/ai"
	"github.com/keyxmakerx/beritabank/internal/app"
	"github.com/keyxmakerx/beritabank/internal/clock"
	"github.com/keyxmakerx/beritabank/internal/config"
	"github.com/keyxmakerx/beritabank/internal/database"
	"github.com/keyxmakerx/beritabank/internal/plugins/smtp"
)

func main() {
	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	// Configure structured logging based on environment.
	setupLogging(cfg)

	slog.Info("starting BeritaBank",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
	)

	// --- Connect to MariaDB ---
	db, err := database.NewMariaDB(cfg.Database)
	if err != nil {
		slog.Error("failed to connect to MariaDB", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to MariaDB")

	if err := database.RunMigrations(db, cfg.MigrationsPath); err != nil {
		slog.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Connect to Redis ---
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to Redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer rdb.Close()
	slog.Info("connected to Redis")

	// --- External collaborators ---
	clk := clock.UTC{}
	collab := app.Collaborators{
		Summarizer: ai.Unconfigured{},
		Assistant:  ai.Unconfigured{},
		Updater:    ai.Unconfigured{},
		Clock:      clk,
	}

	if cfg.AI.PerplexityAPIKey != "" {
		px := ai.NewPerplexity(cfg.AI.PerplexityAPIKey, cfg.AI.PerplexityModel, cfg.AI.PerplexityBaseURL, cfg.AI.Timeout)
		collab.Summarizer = px
		collab.Updater = px
	} else {
		slog.Warn("PERPLEXITY_API_KEY not set; daily summaries and preference updates are disabled")
	}

	gemini, err := ai.NewGemini(context.Background(), cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel, cfg.AI.Timeout, clk)
	switch {
	case err == nil:
		collab.Assistant = gemini
		defer gemini.Close()
	case errors.Is(err, ai.ErrNotConfigured):
		slog.Warn("GEMINI_API_KEY not set; chat is disabled")
	default:
		slog.Error("failed to create Gemini client", slog.Any("error", err))
		os.Exit(1)
	}

	mailer := smtp.NewMailService(cfg.SMTP, clk)
	if !mailer.IsConfigured() {
		slog.Warn("SMTP is not configured; registration and code resends will fail until it is")
	}
	collab.Mailer = mailer

	// --- Create Application ---
	application := app.New(cfg, db, rdb, collab)

	if err := application.RegisterRoutes(); err != nil {
		slog.Error("failed to register routes", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Graceful Shutdown ---
	// Listen for interrupt/term signals to drain connections cleanly.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		// Give in-flight requests 10 seconds to complete.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := application.Echo.Shutdown(ctx); err != nil {
			slog.Error("server forced shutdown", slog.Any("error", err))
		}
	}()

	// --- Start Server ---
	if err := application.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", slog.Any("error", err))
		return
	}
	slog.Info("server stopped")
}

// setupLogging configures the global slog logger. Development uses text
// format for readability. Production uses JSON for structured log
// aggregation. LOG_LEVEL sets the threshold in both.
func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
