package repository

import (
	"context"
	"time"

	"github.com/editorial-cms/internal/cache"
	"github.com/editorial-cms/internal/models"
)

const (
	cacheKeyAll        = "posts:all"
	cacheKeySlugPrefix = "posts:slug:"
	cachePattern       = "posts:*"
)

// cachedRepo is a read-through cache in front of another backend.
// Writes go to the backend first and then drop every cached entry.
type cachedRepo struct {
	next  PostBackend
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedRepo wraps next with a read-through cache
func NewCachedRepo(next PostBackend, c cache.Cache, ttl time.Duration) PostBackend {
	return &cachedRepo{next: next, cache: c, ttl: ttl}
}

// FetchAll serves the full list from cache when present
func (r *cachedRepo) FetchAll(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	if r.cache.Get(ctx, cacheKeyAll, &posts) {
		return posts, nil
	}

	posts, err := r.next.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, cacheKeyAll, posts, r.ttl)
	return posts, nil
}

// FetchBySlug serves single lookups from cache when present. Misses are not cached.
func (r *cachedRepo) FetchBySlug(ctx context.Context, slug string) (*models.Post, error) {
	key := cacheKeySlugPrefix + slug

	var post models.Post
	if r.cache.Get(ctx, key, &post) {
		return &post, nil
	}

	found, err := r.next.FetchBySlug(ctx, slug)
	if err != nil || found == nil {
		return found, err
	}
	r.cache.Set(ctx, key, found, r.ttl)
	return found, nil
}

// Insert writes through and invalidates
func (r *cachedRepo) Insert(ctx context.Context, post *models.Post) (*models.Post, error) {
	stored, err := r.next.Insert(ctx, post)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return stored, nil
}

// UpdateByID writes through and invalidates
func (r *cachedRepo) UpdateByID(ctx context.Context, post *models.Post) (*models.Post, error) {
	stored, err := r.next.UpdateByID(ctx, post)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return stored, nil
}

// BulkUpsert writes through and invalidates
func (r *cachedRepo) BulkUpsert(ctx context.Context, posts []*models.Post) error {
	if err := r.next.BulkUpsert(ctx, posts); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *cachedRepo) invalidate(ctx context.Context) {
	r.cache.DelPattern(ctx, cachePattern)
}

// Close closes the wrapped backend
func (r *cachedRepo) Close() error {
	return r.next.Close()
}
