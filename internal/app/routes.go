package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/beritabank/internal/middleware"
	"github.com/keyxmakerx/beritabank/internal/plugins/audit"
	"github.com/keyxmakerx/beritabank/internal/plugins/auth"
	"github.com/keyxmakerx/beritabank/internal/plugins/chat"
	"github.com/keyxmakerx/beritabank/internal/plugins/news"
	"github.com/keyxmakerx/beritabank/internal/plugins/summary"
	"github.com/keyxmakerx/beritabank/internal/plugins/verification"
)

// healthTimeout bounds each dependency ping in /healthz.
const healthTimeout = 2 * time.Second

// RegisterRoutes builds every plugin and mounts its routes.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes() error {
	e := a.Echo
	cfg := a.Config
	clk := a.collab.Clock

	// Health check endpoint for container orchestration.
	e.GET("/healthz", a.health)

	limiter := middleware.NewRateLimiter(a.Redis)

	// --- Shared infrastructure ---
	accounts := auth.NewAccountRepository(a.DB)
	activity := audit.NewAuditService(audit.NewAuditRepository(a.DB), clk)

	vault, err := verification.NewVault(cfg.Verification.EncryptionKey, cfg.Verification.CodeTTL, a.collab.Mailer, clk)
	if err != nil {
		return err
	}

	// --- Services ---
	authService := auth.NewAuthService(accounts, vault, a.collab.Summarizer, activity, clk, cfg.Auth.SessionTTL)
	verificationService := verification.NewVerificationService(vault, accounts, activity, clk, cfg.Verification.MaxAttempts)
	summaryService := summary.NewSummaryService(accounts, a.collab.Summarizer, a.collab.Updater, activity, clk)
	chatService := chat.NewChatService(chat.NewChatRepository(a.DB), a.collab.Assistant, clk)
	newsService := news.NewNewsService(news.NewNewsRepository(a.DB), a.Redis, cfg.NewsCacheTTL)

	// --- Route groups ---
	api := e.Group("/api")
	authed := api.Group("", auth.RequireAuth(authService))

	auth.RegisterRoutes(api, authed, auth.NewHandler(authService), limiter, cfg.RateLimit)
	verification.RegisterRoutes(authed, verification.NewHandler(verificationService), limiter, cfg.RateLimit.VerifyPerMinute)
	audit.RegisterRoutes(authed, audit.NewHandler(activity, auth.GetAccountID))
	summary.RegisterRoutes(authed, summary.NewHandler(summaryService))
	chat.RegisterRoutes(authed, chat.NewHandler(chatService), limiter, cfg.RateLimit.ChatPerMinute)
	news.RegisterRoutes(api, news.NewHandler(newsService))

	return nil
}

// health pings MariaDB and Redis.
func (a *App) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	checks := map[string]string{"database": "ok", "redis": "ok"}
	status := http.StatusOK

	if err := a.DB.PingContext(ctx); err != nil {
		slog.Warn("health check: database unreachable", slog.Any("error", err))
		checks["database"] = "unreachable"
		status = http.StatusServiceUnavailable
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		slog.Warn("health check: redis unreachable", slog.Any("error", err))
		checks["redis"] = "unreachable"
		status = http.StatusServiceUnavailable
	}

	checks["status"] = "ok"
	if status != http.StatusOK {
		checks["status"] = "degraded"
	}
	return c.JSON(status, checks)
}
