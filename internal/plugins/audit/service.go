package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/keyxmakerx/beritabank/internal/apperror"
	"github.com/keyxmakerx/beritabank/internal/clock"
)

// perPage is the number of entries returned per activity page.
const perPage = 50

// AuditService records and lists account activity.
type AuditService interface {
	// Record writes an entry. Failures are logged, never returned, so the
	// audited operation is never blocked by the audit log.
	Record(ctx context.Context, accountID, action, ip string, details map[string]any)

	// Activity returns one page (1-indexed) of an account's recent entries.
	Activity(ctx context.Context, accountID string, page int) ([]Entry, error)
}

type auditService struct {
	repo  AuditRepository
	clock clock.Clock
}

// NewAuditService creates a new audit service with the given repository.
func NewAuditService(repo AuditRepository, clk clock.Clock) AuditService {
	return &auditService{repo: repo, clock: clk}
}

func (s *auditService) Record(ctx context.Context, accountID, action, ip string, details map[string]any) {
	if accountID == "" || action == "" {
		slog.Warn("dropping incomplete audit entry", slog.String("action", action))
		return
	}

	entry := &Entry{
		AccountID: accountID,
		Action:    action,
		Details:   details,
		IP:        ip,
		CreatedAt: s.clock.Now(),
	}

	// Detach from the request so a client disconnect does not drop the write.
	if err := s.repo.Log(context.WithoutCancel(ctx), entry); err != nil {
		slog.Error("failed to write audit log entry",
			slog.String("account_id", accountID),
			slog.String("action", action),
			slog.Any("error", err),
		)
	}
}

func (s *auditService) Activity(ctx context.Context, accountID string, page int) ([]Entry, error) {
	if page < 1 {
		page = 1
	}

	entries, err := s.repo.ListByAccount(ctx, accountID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing account activity: %w", err))
	}
	return entries, nil
}
