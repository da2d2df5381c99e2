package news

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyxmakerx/beritabank/internal/apperror"
)

// NewsRepository defines the data access contract for listings.
type NewsRepository interface {
	// ListArticles returns the newest, most important articles first.
	ListArticles(ctx context.Context, limit int) ([]Article, error)
	FindArticle(ctx context.Context, id string) (*Article, error)

	// ListBanks returns the most recently updated banks first.
	ListBanks(ctx context.Context, limit int) ([]Bank, error)
}

type newsRepository struct {
	db *sql.DB
}

// NewNewsRepository creates a new repository backed by the given DB pool.
func NewNewsRepository(db *sql.DB) NewsRepository {
	return &newsRepository{db: db}
}

const articleColumns = `id, title, url, source, summary, image_url, importance, date, created_at`

func scanArticle(row interface{ Scan(...any) error }) (*Article, error) {
	var a Article
	err := row.Scan(&a.ID, &a.Title, &a.URL, &a.Source, &a.Summary, &a.ImageURL,
		&a.Importance, &a.Date, &a.CreatedAt)
	return &a, err
}

func (r *newsRepository) ListArticles(ctx context.Context, limit int) ([]Article, error) {
	query := `SELECT ` + articleColumns + `
	          FROM news_articles
	          ORDER BY date DESC, importance DESC, created_at DESC
	          LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	defer rows.Close()

	articles := []Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		articles = append(articles, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating articles: %w", err)
	}

	return articles, nil
}

func (r *newsRepository) FindArticle(ctx context.Context, id string) (*Article, error) {
	query := `SELECT ` + articleColumns + ` FROM news_articles WHERE id = ?`

	a, err := scanArticle(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Article not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying article: %w", err)
	}
	return a, nil
}

func (r *newsRepository) ListBanks(ctx context.Context, limit int) ([]Bank, error) {
	query := `SELECT id, name, summary, website, logo_url, created_at, updated_at
	          FROM bank_information
	          ORDER BY updated_at DESC, created_at DESC, name ASC
	          LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing banks: %w", err)
	}
	defer rows.Close()

	banks := []Bank{}
	for rows.Next() {
		var b Bank
		if err := rows.Scan(&b.ID, &b.Name, &b.Summary, &b.Website, &b.LogoURL,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning bank: %w", err)
		}
		banks = append(banks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating banks: %w", err)
	}

	return banks, nil
}
