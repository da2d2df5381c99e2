package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// AuditRepository defines the data access contract for the audit log.
type AuditRepository interface {
	Log(ctx context.Context, entry *Entry) error

	// ListByAccount returns an account's entries, most recent first.
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]Entry, error)
}

type auditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new repository backed by the given DB pool.
func NewAuditRepository(db *sql.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Log inserts an entry. Nil details are stored as SQL NULL.
func (r *auditRepository) Log(ctx context.Context, entry *Entry) error {
	query := `INSERT INTO audit_log (account_id, action, details, ip, created_at)
	          VALUES (?, ?, ?, ?, ?)`

	var detailsJSON []byte
	if entry.Details != nil {
		var err error
		detailsJSON, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshaling audit details: %w", err)
		}
	}

	result, err := r.db.ExecContext(ctx, query,
		entry.AccountID, entry.Action, detailsJSON, entry.IP, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting audit entry id: %w", err)
	}
	entry.ID = id

	return nil
}

func (r *auditRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]Entry, error) {
	query := `SELECT id, account_id, action, details, ip, created_at
	          FROM audit_log
	          WHERE account_id = ?
	          ORDER BY created_at DESC, id DESC
	          LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var details []byte
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Action, &details, &e.IP, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling audit details: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}

	return entries, nil
}
