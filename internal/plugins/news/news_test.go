package news

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/beritabank/internal/apperror"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

const articleID = "5f0c9a8e-3a61-4a52-9c7a-0b1f6f1c2d3e"

// --- Mock Repository ---

type mockNewsRepo struct {
	listArticlesFn func(ctx context.Context, limit int) ([]Article, error)
	findArticleFn  func(ctx context.Context, id string) (*Article, error)
	listBanksFn    func(ctx context.Context, limit int) ([]Bank, error)
	calls          int
}

func (m *mockNewsRepo) ListArticles(ctx context.Context, limit int) ([]Article, error) {
	m.calls++
	if m.listArticlesFn != nil {
		return m.listArticlesFn(ctx, limit)
	}
	return []Article{}, nil
}

func (m *mockNewsRepo) FindArticle(ctx context.Context, id string) (*Article, error) {
	if m.findArticleFn != nil {
		return m.findArticleFn(ctx, id)
	}
	return nil, apperror.NewNotFound("Article not found")
}

func (m *mockNewsRepo) ListBanks(ctx context.Context, limit int) ([]Bank, error) {
	m.calls++
	if m.listBanksFn != nil {
		return m.listBanksFn(ctx, limit)
	}
	return []Bank{}, nil
}

func newCachedService(t *testing.T, repo NewsRepository) (NewsService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewNewsService(repo, rdb, time.Minute), mr
}

func assertAppError(t *testing.T, err error, errType string) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T", err)
	assert.Equal(t, errType, appErr.Type)
}

// --- Service ---

func TestArticles_RejectsNonPositiveLimit(t *testing.T) {
	svc := NewNewsService(&mockNewsRepo{}, nil, 0)
	_, err := svc.Articles(context.Background(), 0)
	assertAppError(t, err, apperror.TypeBadRequest)
	_, err = svc.Articles(context.Background(), -3)
	assertAppError(t, err, apperror.TypeBadRequest)
}

func TestArticles_CachedAfterFirstRead(t *testing.T) {
	repo := &mockNewsRepo{listArticlesFn: func(_ context.Context, limit int) ([]Article, error) {
		assert.Equal(t, 5, limit)
		return []Article{{ID: articleID, Title: "BI holds rate", Importance: 5, Date: testNow}}, nil
	}}
	svc, mr := newCachedService(t, repo)

	first, err := svc.Articles(context.Background(), 5)
	require.NoError(t, err)
	second, err := svc.Articles(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, first[0].Title, second[0].Title)
	assert.True(t, first[0].Date.Equal(second[0].Date))
	assert.True(t, mr.Exists("news:articles:5"))

	mr.FastForward(2 * time.Minute)
	_, err = svc.Articles(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestArticles_RedisDownFallsBackToDatabase(t *testing.T) {
	repo := &mockNewsRepo{}
	svc, mr := newCachedService(t, repo)
	mr.Close()

	_, err := svc.Articles(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
}

func TestArticles_CorruptCacheEntryIsMiss(t *testing.T) {
	repo := &mockNewsRepo{}
	svc, mr := newCachedService(t, repo)
	require.NoError(t, mr.Set("news:articles:5", "{not json"))

	_, err := svc.Articles(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
}

func TestArticles_RepoError(t *testing.T) {
	repo := &mockNewsRepo{listArticlesFn: func(context.Context, int) ([]Article, error) {
		return nil, errors.New("too many connections")
	}}
	svc := NewNewsService(repo, nil, 0)

	_, err := svc.Articles(context.Background(), 5)
	assertAppError(t, err, apperror.TypeInternal)
}

func TestArticle_InvalidID(t *testing.T) {
	svc := NewNewsService(&mockNewsRepo{}, nil, 0)
	_, err := svc.Article(context.Background(), "not-an-id")
	assertAppError(t, err, apperror.TypeBadRequest)
}

func TestArticle_NotFound(t *testing.T) {
	svc := NewNewsService(&mockNewsRepo{}, nil, 0)
	_, err := svc.Article(context.Background(), articleID)
	assertAppError(t, err, apperror.TypeNotFound)
}

func TestBanks_ClampsLimit(t *testing.T) {
	repo := &mockNewsRepo{listBanksFn: func(_ context.Context, limit int) ([]Bank, error) {
		assert.Equal(t, MaxBankLimit, limit)
		return []Bank{{Name: "BCA"}}, nil
	}}
	svc := NewNewsService(repo, nil, 0)

	banks, limit, err := svc.Banks(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, MaxBankLimit, limit)
	assert.Len(t, banks, 1)
}

func TestBanks_RejectsNonPositiveLimit(t *testing.T) {
	svc := NewNewsService(&mockNewsRepo{}, nil, 0)
	_, _, err := svc.Banks(context.Background(), 0)
	assertAppError(t, err, apperror.TypeBadRequest)
}

// --- Repository ---

func newMockRepo(t *testing.T) (NewsRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewNewsRepository(db), mock
}

var articleRowColumns = []string{
	"id", "title", "url", "source", "summary", "image_url", "importance", "date", "created_at",
}

func TestRepository_ListArticlesOrdering(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`FROM news_articles ORDER BY date DESC, importance DESC, created_at DESC LIMIT \?`).
		WithArgs(30).
		WillReturnRows(sqlmock.NewRows(articleRowColumns).
			AddRow(articleID, "BI holds rate", "https://x.id/a", "infobank", "s", "", 5, testNow, testNow))

	articles, err := repo.ListArticles(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, 5, articles[0].Importance)
	assert.Equal(t, "infobank", articles[0].Source)
}

func TestRepository_FindArticleMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`FROM news_articles WHERE id = \?`).
		WithArgs(articleID).
		WillReturnRows(sqlmock.NewRows(articleRowColumns))

	_, err := repo.FindArticle(context.Background(), articleID)
	assertAppError(t, err, apperror.TypeNotFound)
}

func TestRepository_ListBanksOrdering(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`FROM bank_information ORDER BY updated_at DESC, created_at DESC, name ASC LIMIT \?`).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "summary", "website", "logo_url", "created_at", "updated_at"}).
			AddRow("b-1", "Bank Central Asia", "Largest private bank", "https://bca.co.id", "", testNow, testNow))

	banks, err := repo.ListBanks(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, banks, 1)
	assert.Equal(t, "Bank Central Asia", banks[0].Name)
}

// --- Handlers ---

func serve(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	api := e.Group("/api")
	RegisterRoutes(api, h)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			_ = c.JSON(appErr.Code, map[string]any{"success": false, "error": appErr.Type})
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandler_ArticlesDefaultLimit(t *testing.T) {
	repo := &mockNewsRepo{listArticlesFn: func(_ context.Context, limit int) ([]Article, error) {
		assert.Equal(t, DefaultArticleLimit, limit)
		return []Article{{ID: articleID}}, nil
	}}
	rec := serve(t, NewHandler(NewNewsService(repo, nil, 0)), "/api/articles")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Data    struct {
			Articles []Article `json:"articles"`
			Count    int       `json:"count"`
			Limit    int       `json:"limit"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.Data.Count)
	assert.Equal(t, DefaultArticleLimit, body.Data.Limit)
	assert.Equal(t, "Retrieved 1 articles sorted by importance", body.Message)
}

func TestHandler_ArticlesBadLimit(t *testing.T) {
	h := NewHandler(NewNewsService(&mockNewsRepo{}, nil, 0))
	assert.Equal(t, http.StatusBadRequest, serve(t, h, "/api/articles?limit=abc").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, h, "/api/articles?limit=0").Code)
}

func TestHandler_ArticleNotFound(t *testing.T) {
	h := NewHandler(NewNewsService(&mockNewsRepo{}, nil, 0))
	assert.Equal(t, http.StatusNotFound, serve(t, h, "/api/articles/"+articleID).Code)
}

func TestHandler_BanksReportsClampedLimit(t *testing.T) {
	h := NewHandler(NewNewsService(&mockNewsRepo{}, nil, 0))
	rec := serve(t, h, "/api/banks?limit=500")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"limit":200`)
}
