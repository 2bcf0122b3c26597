package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/site-crawler/internal/entity"
	"github.com/user/site-crawler/internal/repository"
)

func setupTestDB(t *testing.T) *ResultRepoImpl {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "crawl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestOpenCreatesDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "crawl.db")
	repo, err := Open(path)
	require.NoError(t, err)
	defer repo.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.NoError(t, repo.Ping(context.Background()))
}

func TestFindByURLUnknown(t *testing.T) {
	t.Parallel()

	repo := setupTestDB(t)
	_, err := repo.FindByURL(context.Background(), "https://example.com/")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSavePageUpserts(t *testing.T) {
	t.Parallel()

	repo := setupTestDB(t)
	ctx := context.Background()
	first := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	require.NoError(t, repo.SavePage(ctx, &entity.CrawledPage{
		URL:       "https://example.com/",
		Links:     []string{"https://example.com/a"},
		CrawledAt: first,
	}))
	require.NoError(t, repo.SavePage(ctx, &entity.CrawledPage{
		URL:       "https://example.com/",
		Links:     []string{"https://example.com/a", "https://example.com/b"},
		CrawledAt: second,
	}))

	status, err := repo.FindByURL(ctx, "https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, entity.PageCrawled, status.CurrentStatus)
	assert.Equal(t, 2, status.LinkCount)
	require.NotNil(t, status.LastCrawlTimestamp)
	assert.Equal(t, second, *status.LastCrawlTimestamp)

	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, status.Links)
}

func TestSavePageWithoutLinks(t *testing.T) {
	t.Parallel()

	repo := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, repo.SavePage(ctx, &entity.CrawledPage{URL: "https://example.com/leaf", CrawledAt: time.Now()}))

	status, err := repo.FindByURL(ctx, "https://example.com/leaf")
	require.NoError(t, err)
	assert.Equal(t, 0, status.LinkCount)
	assert.Empty(t, status.Links)
}

func TestFailureLifecycle(t *testing.T) {
	t.Parallel()

	repo := setupTestDB(t)
	ctx := context.Background()
	at := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

	for _, reason := range []string{"SERVER_ERROR", entity.ReasonUnexpectedError} {
		require.NoError(t, repo.SaveFailure(ctx, &entity.FailedURL{
			URL:                  "https://example.com/flaky",
			FailureReason:        reason,
			ErrorMessage:         "boom",
			LastAttemptTimestamp: at,
		}))
	}

	status, err := repo.FindByURL(ctx, "https://example.com/flaky")
	require.NoError(t, err)
	assert.Equal(t, entity.PageFailed, status.CurrentStatus)
	assert.Equal(t, entity.ReasonUnexpectedError, status.FailureReason)
	assert.Equal(t, at, *status.LastCrawlTimestamp)

	var attempts int
	require.NoError(t, repo.db.QueryRowContext(ctx,
		`SELECT attempt_count FROM failed_urls WHERE url = ?`, "https://example.com/flaky",
	).Scan(&attempts))
	assert.Equal(t, 2, attempts)

	require.NoError(t, repo.SavePage(ctx, &entity.CrawledPage{URL: "https://example.com/flaky", CrawledAt: at}))
	status, err = repo.FindByURL(ctx, "https://example.com/flaky")
	require.NoError(t, err)
	assert.Equal(t, entity.PageCrawled, status.CurrentStatus)
	assert.Empty(t, status.FailureReason)
	assert.Empty(t, status.Links)
}
