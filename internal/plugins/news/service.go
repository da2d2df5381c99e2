package news

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/beritabank/internal/apperror"
)

// NewsService defines the listing operations.
type NewsService interface {
	Articles(ctx context.Context, limit int) ([]Article, error)
	Article(ctx context.Context, id string) (*Article, error)

	// Banks clamps limit to MaxBankLimit.
	Banks(ctx context.Context, limit int) ([]Bank, int, error)
}

type newsService struct {
	repo  NewsRepository
	cache *listingCache
}

// NewNewsService creates the listing service. A nil rdb or zero cacheTTL
// disables caching.
func NewNewsService(repo NewsRepository, rdb *redis.Client, cacheTTL time.Duration) NewsService {
	s := &newsService{repo: repo}
	if rdb != nil && cacheTTL > 0 {
		s.cache = &listingCache{rdb: rdb, ttl: cacheTTL}
	}
	return s
}

func (s *newsService) Articles(ctx context.Context, limit int) ([]Article, error) {
	if limit <= 0 {
		return nil, apperror.NewBadRequest("Limit must be a positive integer")
	}

	key := "articles:" + strconv.Itoa(limit)
	var articles []Article
	if s.cache.get(ctx, key, &articles) {
		return articles, nil
	}

	articles, err := s.repo.ListArticles(ctx, limit)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing articles: %w", err))
	}

	s.cache.set(ctx, key, articles)
	return articles, nil
}

func (s *newsService) Article(ctx context.Context, id string) (*Article, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, apperror.NewBadRequest("Invalid article id")
	}

	a, err := s.repo.FindArticle(ctx, id)
	if err != nil {
		if apperror.Is(err, apperror.TypeNotFound) {
			return nil, err
		}
		return nil, apperror.NewInternal(err)
	}
	return a, nil
}

func (s *newsService) Banks(ctx context.Context, limit int) ([]Bank, int, error) {
	if limit <= 0 {
		return nil, 0, apperror.NewBadRequest("Limit must be a positive integer")
	}
	if limit > MaxBankLimit {
		limit = MaxBankLimit
	}

	key := "banks:" + strconv.Itoa(limit)
	var banks []Bank
	if s.cache.get(ctx, key, &banks) {
		return banks, limit, nil
	}

	banks, err := s.repo.ListBanks(ctx, limit)
	if err != nil {
		return nil, 0, apperror.NewInternal(fmt.Errorf("listing banks: %w", err))
	}

	s.cache.set(ctx, key, banks)
	return banks, limit, nil
}
