package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/editorial-cms/internal/content"
	"github.com/editorial-cms/internal/mocks"
	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/repository"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPost(id, slug string, date time.Time) *models.Post {
	return &models.Post{
		ID:    id,
		Slug:  slug,
		Title: "Title " + id,
		Content: content.Blocks{
			content.TitleBlock{ID: "h", Text: "Heading", Level: content.HeadingLevel3},
			content.SliderBlock{ID: "s", Slides: []content.ImageSlide{
				{ID: "a", ImageURL: "a.jpg", LinkURL: content.StringPtr("/a")},
				{ID: "b", ImageURL: "b.jpg"},
			}},
		},
		Author:   "Ana",
		Date:     date.UTC(),
		Category: models.CategoryTravel,
		ImageURL: "https://img.example.com/" + id + ".jpg",
	}
}

func openBolt(t *testing.T) repository.PostBackend {
	t.Helper()
	repo, err := repository.OpenBolt(repository.BoltOptions{Path: filepath.Join(t.TempDir(), "data", "posts.db")})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestBoltRepo_InsertAndFetch(t *testing.T) {
	repo := openBolt(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	older := newPost("p1", "first", now.Add(-time.Hour))
	newer := newPost("p2", "second", now)

	_, err := repo.Insert(ctx, older)
	require.NoError(t, err)
	stored, err := repo.Insert(ctx, newer)
	require.NoError(t, err)
	assert.Equal(t, "p2", stored.ID)

	all, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "p2", all[0].ID, "newest post should come first")

	got, err := repo.FetchBySlug(ctx, "first")
	require.NoError(t, err)
	require.NotNil(t, got)
	if diff := cmp.Diff(older, got); diff != "" {
		t.Errorf("stored post mismatch (-want +got):\n%s", diff)
	}

	missing, err := repo.FetchBySlug(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBoltRepo_InsertConflict(t *testing.T) {
	repo := openBolt(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, newPost("p1", "a", time.Now()))
	require.NoError(t, err)

	_, err = repo.Insert(ctx, newPost("p1", "b", time.Now()))
	assert.True(t, errors.Is(err, repository.ErrConflict), "got %v", err)
}

func TestBoltRepo_UpdateMovesSlug(t *testing.T) {
	repo := openBolt(t)
	ctx := context.Background()

	post := newPost("p1", "old-slug", time.Now())
	_, err := repo.Insert(ctx, post)
	require.NoError(t, err)

	post.Slug = "new-slug"
	post.Title = "New"
	_, err = repo.UpdateByID(ctx, post)
	require.NoError(t, err)

	old, err := repo.FetchBySlug(ctx, "old-slug")
	require.NoError(t, err)
	assert.Nil(t, old, "old slug should no longer resolve")

	got, err := repo.FetchBySlug(ctx, "new-slug")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "New", got.Title)
}

func TestBoltRepo_UpdateUnknown(t *testing.T) {
	repo := openBolt(t)

	_, err := repo.UpdateByID(context.Background(), newPost("ghost", "g", time.Now()))
	assert.True(t, errors.Is(err, repository.ErrNotFound), "got %v", err)
}

func TestBoltRepo_BulkUpsert(t *testing.T) {
	repo := openBolt(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, newPost("p1", "one", time.Now()))
	require.NoError(t, err)

	changed := newPost("p1", "one", time.Now())
	changed.Category = models.CategoryFood
	err = repo.BulkUpsert(ctx, []*models.Post{changed, newPost("p2", "two", time.Now())})
	require.NoError(t, err)

	all, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	got, err := repo.FetchBySlug(ctx, "one")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryFood, got.Category)
}

func TestBoltRepo_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.db")
	ctx := context.Background()

	repo, err := repository.OpenBolt(repository.BoltOptions{Path: path})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, newPost("p1", "persisted", time.Now()))
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = repository.OpenBolt(repository.BoltOptions{Path: path})
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.FetchBySlug(ctx, "persisted")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Content, 2)
}

func TestCachedRepo_ReadThrough(t *testing.T) {
	ctx := context.Background()
	backend := mocks.NewMockPostBackend(newPost("p1", "one", time.Now()))
	c := mocks.NewMockCache()
	repo := repository.NewCachedRepo(backend, c, time.Minute)

	first, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	second, err := repo.FetchAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, backend.FetchAllCalls, "second read should be served from cache")
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached list differs (-want +got):\n%s", diff)
	}

	_, err = repo.FetchBySlug(ctx, "one")
	require.NoError(t, err)
	_, err = repo.FetchBySlug(ctx, "one")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.FetchCalls)
}

func TestCachedRepo_WritesInvalidate(t *testing.T) {
	ctx := context.Background()
	backend := mocks.NewMockPostBackend(newPost("p1", "one", time.Now()))
	c := mocks.NewMockCache()
	repo := repository.NewCachedRepo(backend, c, time.Minute)

	_, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	_, err = repo.FetchBySlug(ctx, "one")
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	_, err = repo.Insert(ctx, newPost("p2", "two", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len(), "insert should drop cached entries")

	all, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCachedRepo_FailedWriteKeepsCache(t *testing.T) {
	ctx := context.Background()
	backend := mocks.NewMockPostBackend(newPost("p1", "one", time.Now()))
	c := mocks.NewMockCache()
	repo := repository.NewCachedRepo(backend, c, time.Minute)

	_, err := repo.FetchAll(ctx)
	require.NoError(t, err)

	backend.BulkUpsertError = errors.New("disk full")
	err = repo.BulkUpsert(ctx, []*models.Post{newPost("p2", "two", time.Now())})
	require.Error(t, err)
	assert.Equal(t, 1, c.Len(), "failed write should not touch the cache")
}

func TestCachedRepo_MissesAreNotCached(t *testing.T) {
	ctx := context.Background()
	backend := mocks.NewMockPostBackend()
	c := mocks.NewMockCache()
	repo := repository.NewCachedRepo(backend, c, time.Minute)

	got, err := repo.FetchBySlug(ctx, "none")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, c.Len())
}
