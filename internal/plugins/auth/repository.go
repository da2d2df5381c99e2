package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/keyxmakerx/beritabank/internal/ai"
	"github.com/keyxmakerx/beritabank/internal/apperror"
	"github.com/keyxmakerx/beritabank/internal/database"
)

// AccountRepository defines the data access contract for accounts.
// All SQL lives in the concrete implementation. Mutations are single
// statements keyed by account id, or short row-locked transactions where a
// check must hold at write time.
type AccountRepository interface {
	Create(ctx context.Context, acc *Account, tokenHash string) error
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*Account, error)

	// FindByIdentifier matches the username (case-insensitively) or the
	// lower-cased email address.
	FindByIdentifier(ctx context.Context, identifier string) (*Account, error)

	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	// Session tokens.
	RotateSession(ctx context.Context, id, tokenHash string, at time.Time) error
	ClearSession(ctx context.Context, id string) error

	// UpdateDescription writes the description and the whole summary in one
	// statement.
	UpdateDescription(ctx context.Context, id, description string, summary DailySummary) error

	// ReplaceSummary swaps the summary only if summary_last_updated still
	// equals prev. It reports whether this call won.
	ReplaceSummary(ctx context.Context, id string, prev *time.Time, summary DailySummary) (bool, error)

	// Verification state. Each call locks the row for its whole
	// read-check-write.
	ReissueVerificationEnvelope(ctx context.Context, id string, issue func(current string) (string, error)) error
	RecordFailedAttempt(ctx context.Context, id, envelope string, maxAttempts int) (int, error)
	MarkVerified(ctx context.Context, id, envelope string, maxAttempts int) (VerifyOutcome, error)
}

// accountRepository implements AccountRepository with hand-written MariaDB queries.
type accountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new account repository backed by the given DB pool.
func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

// accountColumns is the column list scanAccount expects, in order.
const accountColumns = `id, username, email, password_hash, password_salt, session_issued_at,
	is_verified, verification_envelope, verification_attempts, description,
	summary_last_updated, summary_en, summary_id, advice_en, advice_id,
	summary_search_results, created_at, last_login`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*Account, error) {
	acc := &Account{}
	var envelope sql.NullString
	var results []byte

	err := row.Scan(
		&acc.ID,
		&acc.Username,
		&acc.Email,
		&acc.PasswordHash,
		&acc.PasswordSalt,
		&acc.SessionIssuedAt,
		&acc.IsVerified,
		&envelope,
		&acc.VerificationAttempts,
		&acc.Description,
		&acc.Summary.LastUpdated,
		&acc.Summary.SummaryEN,
		&acc.Summary.SummaryID,
		&acc.Summary.AdviceEN,
		&acc.Summary.AdviceID,
		&results,
		&acc.CreatedAt,
		&acc.LastLogin,
	)
	if err != nil {
		return nil, err
	}

	acc.VerificationEnvelope = envelope.String
	acc.Summary.SearchResults = []ai.SearchResult{}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &acc.Summary.SearchResults); err != nil {
			return nil, fmt.Errorf("unmarshaling search results: %w", err)
		}
	}
	return acc, nil
}

func (r *accountRepository) findOne(ctx context.Context, what, where string, args ...any) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + where

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying account by %s: %w", what, err)
	}
	return acc, nil
}

// Create inserts a new account row. A unique-index violation is returned
// unwrapped enough for database.IsDuplicateKey to detect it.
func (r *accountRepository) Create(ctx context.Context, acc *Account, tokenHash string) error {
	query := `INSERT INTO accounts (id, username, username_key, email, password_hash, password_salt,
	              session_token_hash, session_issued_at, is_verified, verification_envelope,
	              verification_attempts, description, summary_last_updated, summary_en, summary_id,
	              advice_en, advice_id, summary_search_results, created_at, last_login)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	results, err := marshalResults(acc.Summary.SearchResults)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		acc.ID,
		acc.Username,
		usernameKey(acc.Username),
		acc.Email,
		acc.PasswordHash,
		acc.PasswordSalt,
		tokenHash,
		acc.SessionIssuedAt,
		acc.IsVerified,
		acc.VerificationEnvelope,
		acc.VerificationAttempts,
		acc.Description,
		acc.Summary.LastUpdated,
		acc.Summary.SummaryEN,
		acc.Summary.SummaryID,
		acc.Summary.AdviceEN,
		acc.Summary.AdviceID,
		results,
		acc.CreatedAt,
		acc.LastLogin,
	)
	if err != nil {
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

func (r *accountRepository) FindByID(ctx context.Context, id string) (*Account, error) {
	return r.findOne(ctx, "id", `id = ?`, id)
}

func (r *accountRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*Account, error) {
	return r.findOne(ctx, "token", `session_token_hash = ?`, tokenHash)
}

func (r *accountRepository) FindByIdentifier(ctx context.Context, identifier string) (*Account, error) {
	key := strings.ToLower(strings.TrimSpace(identifier))
	return r.findOne(ctx, "identifier", `username_key = ? OR email = ? LIMIT 1`, key, key)
}

func (r *accountRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `username_key = ?`, usernameKey(username))
}

func (r *accountRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `email = ?`, email)
}

func (r *accountRepository) exists(ctx context.Context, where string, arg any) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE `+where+`)`, arg).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking account existence: %w", err)
	}
	return exists, nil
}

// RotateSession stores a new token digest and stamps last_login.
func (r *accountRepository) RotateSession(ctx context.Context, id, tokenHash string, at time.Time) error {
	query := `UPDATE accounts SET session_token_hash = ?, session_issued_at = ?, last_login = ? WHERE id = ?`
	return r.execOne(ctx, "rotating session", query, tokenHash, at, at, id)
}

func (r *accountRepository) ClearSession(ctx context.Context, id string) error {
	query := `UPDATE accounts SET session_token_hash = NULL, session_issued_at = NULL WHERE id = ?`
	return r.execOne(ctx, "clearing session", query, id)
}

func (r *accountRepository) UpdateDescription(ctx context.Context, id, description string, summary DailySummary) error {
	results, err := marshalResults(summary.SearchResults)
	if err != nil {
		return err
	}

	query := `UPDATE accounts
	          SET description = ?, summary_last_updated = ?, summary_en = ?, summary_id = ?,
	              advice_en = ?, advice_id = ?, summary_search_results = ?
	          WHERE id = ?`
	return r.execOne(ctx, "updating description", query,
		description, summary.LastUpdated, summary.SummaryEN, summary.SummaryID,
		summary.AdviceEN, summary.AdviceID, results, id,
	)
}

func (r *accountRepository) ReplaceSummary(ctx context.Context, id string, prev *time.Time, summary DailySummary) (bool, error) {
	results, err := marshalResults(summary.SearchResults)
	if err != nil {
		return false, err
	}

	// <=> is NULL-safe equality, so a never-generated summary also matches.
	query := `UPDATE accounts
	          SET summary_last_updated = ?, summary_en = ?, summary_id = ?,
	              advice_en = ?, advice_id = ?, summary_search_results = ?
	          WHERE id = ? AND summary_last_updated <=> ?`
	res, err := r.db.ExecContext(ctx, query,
		summary.LastUpdated, summary.SummaryEN, summary.SummaryID,
		summary.AdviceEN, summary.AdviceID, results, id, prev,
	)
	if err != nil {
		return false, fmt.Errorf("replacing summary: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("replacing summary: %w", err)
	}
	return n == 1, nil
}

// ReissueVerificationEnvelope locks the account row, passes the stored
// envelope to issue and stores whatever it returns with the attempt counter
// and is_verified reset. If issue fails nothing is written. Concurrent
// reissues run one after the other, so the second one sees the first one's
// envelope.
func (r *accountRepository) ReissueVerificationEnvelope(ctx context.Context, id string, issue func(current string) (string, error)) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var current sql.NullString
		err := tx.QueryRowContext(ctx,
			`SELECT verification_envelope FROM accounts WHERE id = ? FOR UPDATE`, id,
		).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NewNotFound("account not found")
		}
		if err != nil {
			return fmt.Errorf("locking verification envelope: %w", err)
		}

		envelope, err := issue(current.String)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts
			 SET verification_envelope = ?, verification_attempts = 0, is_verified = 0
			 WHERE id = ?`, envelope, id,
		); err != nil {
			return fmt.Errorf("storing verification envelope: %w", err)
		}
		return nil
	})
}

// RecordFailedAttempt increments the attempt counter for the given envelope,
// never past maxAttempts, and returns the resulting count. If a new code was
// issued in the meantime the counter is left alone and 0 is returned.
func (r *accountRepository) RecordFailedAttempt(ctx context.Context, id, envelope string, maxAttempts int) (int, error) {
	var attempts int
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var current string
		var err error
		attempts, current, err = lockVerification(ctx, tx, id)
		if err != nil {
			return err
		}
		if current != envelope {
			attempts = 0
			return nil
		}
		if attempts >= maxAttempts {
			return nil
		}

		attempts++
		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET verification_attempts = ? WHERE id = ?`, attempts, id,
		); err != nil {
			return fmt.Errorf("incrementing verification attempts: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return attempts, nil
}

// MarkVerified flips is_verified while the given envelope is still the
// stored one and the attempt cap has not been reached. The counter is read
// under the row lock, so a correct code cannot slip past wrong guesses that
// landed after the caller loaded the account.
func (r *accountRepository) MarkVerified(ctx context.Context, id, envelope string, maxAttempts int) (VerifyOutcome, error) {
	outcome := VerifyReplaced
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		attempts, current, err := lockVerification(ctx, tx, id)
		if err != nil {
			return err
		}
		switch {
		case current != envelope:
			return nil
		case attempts >= maxAttempts:
			outcome = VerifyExhausted
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET is_verified = 1, verification_attempts = 0 WHERE id = ?`, id,
		); err != nil {
			return fmt.Errorf("marking account verified: %w", err)
		}
		outcome = VerifyApplied
		return nil
	})
	if err != nil {
		return VerifyReplaced, err
	}
	return outcome, nil
}

// lockVerification reads the attempt counter and envelope with FOR UPDATE.
func lockVerification(ctx context.Context, tx *sql.Tx, id string) (int, string, error) {
	var attempts int
	var current sql.NullString
	err := tx.QueryRowContext(ctx,
		`SELECT verification_attempts, verification_envelope FROM accounts WHERE id = ? FOR UPDATE`, id,
	).Scan(&attempts, &current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", apperror.NewNotFound("account not found")
	}
	if err != nil {
		return 0, "", fmt.Errorf("locking verification attempts: %w", err)
	}
	return attempts, current.String, nil
}

// execOne runs an UPDATE that must hit exactly one account row. The DSN sets
// clientFoundRows, so RowsAffected counts matched rows and 0 means the
// account is gone.
func (r *accountRepository) execOne(ctx context.Context, what, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return apperror.NewNotFound("account not found")
	}
	return nil
}

func marshalResults(results []ai.SearchResult) ([]byte, error) {
	if results == nil {
		results = []ai.SearchResult{}
	}
	b, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("marshaling search results: %w", err)
	}
	return b, nil
}

// usernameKey is the case-folded form the unique index is built on.
func usernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
