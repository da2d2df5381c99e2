// Package news serves the read-only article and bank listings. The tables
// are filled by external ingestion jobs; this plugin only reads them.
package news

import "time"

// Listing limits.
const (
	DefaultArticleLimit = 30
	DefaultBankLimit    = 50
	MaxBankLimit        = 200
)

// Article is a ranked news item.
type Article struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Source     string    `json:"source"`
	Summary    string    `json:"summary"`
	ImageURL   string    `json:"image_url"`
	Importance int       `json:"importance"`
	Date       time.Time `json:"date"`
	CreatedAt  time.Time `json:"created_at"`
}

// Bank is a bank profile.
type Bank struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Summary   string    `json:"summary"`
	Website   string    `json:"website"`
	LogoURL   string    `json:"logo_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
