package chat

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/keyxmakerx/beritabank/internal/ai"
	"github.com/keyxmakerx/beritabank/internal/database"
)

// ChatRepository defines the data access contract for chat history.
type ChatRepository interface {
	// History returns an account's messages in the order they were appended.
	History(ctx context.Context, accountID string) ([]ai.Message, error)

	// Append stores messages in order within one transaction.
	Append(ctx context.Context, accountID string, messages ...ai.Message) error
}

type chatRepository struct {
	db *sql.DB
}

// NewChatRepository creates a new repository backed by the given DB pool.
func NewChatRepository(db *sql.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) History(ctx context.Context, accountID string) ([]ai.Message, error) {
	query := `SELECT role, content, created_at
	          FROM chat_messages
	          WHERE account_id = ?
	          ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing chat messages: %w", err)
	}
	defer rows.Close()

	history := []ai.Message{}
	for rows.Next() {
		var m ai.Message
		if err := rows.Scan(&m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		history = append(history, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat messages: %w", err)
	}

	return history, nil
}

func (r *chatRepository) Append(ctx context.Context, accountID string, messages ...ai.Message) error {
	if len(messages) == 0 {
		return nil
	}

	query := `INSERT INTO chat_messages (account_id, role, content, created_at)
	          VALUES (?, ?, ?, ?)`

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, m := range messages {
			if _, err := tx.ExecContext(ctx, query, accountID, m.Role, m.Content, m.CreatedAt); err != nil {
				return fmt.Errorf("inserting chat message: %w", err)
			}
		}
		return nil
	})
}
