package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/editorial-cms/internal/cache"
	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/repository"
)

// MockPostBackend is an in-memory implementation of PostBackend
type MockPostBackend struct {
	mu sync.Mutex

	Posts map[string]*models.Post

	FetchAllError   error
	FetchError      error
	InsertError     error
	UpdateError     error
	BulkUpsertError error
	BulkUpsertFunc  func(ctx context.Context, posts []*models.Post) error

	FetchAllCalls   int
	FetchCalls      int
	InsertCalls     int
	UpdateCalls     int
	BulkUpsertCalls int
	LastBulk        []*models.Post
	Closed          bool
}

// Verify interface compliance
var _ repository.PostBackend = (*MockPostBackend)(nil)

func NewMockPostBackend(posts ...*models.Post) *MockPostBackend {
	m := &MockPostBackend{Posts: make(map[string]*models.Post)}
	for _, p := range posts {
		m.Posts[p.ID] = p.Clone()
	}
	return m
}

func (m *MockPostBackend) FetchAll(ctx context.Context) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FetchAllCalls++
	if m.FetchAllError != nil {
		return nil, m.FetchAllError
	}
	posts := make([]*models.Post, 0, len(m.Posts))
	for _, p := range m.Posts {
		posts = append(posts, p.Clone())
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].Date.Equal(posts[j].Date) {
			return posts[i].Date.After(posts[j].Date)
		}
		return posts[i].ID < posts[j].ID
	})
	return posts, nil
}

func (m *MockPostBackend) FetchBySlug(ctx context.Context, slug string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FetchCalls++
	if m.FetchError != nil {
		return nil, m.FetchError
	}
	for _, p := range m.Posts {
		if p.Slug == slug {
			return p.Clone(), nil
		}
	}
	return nil, nil
}

func (m *MockPostBackend) Insert(ctx context.Context, post *models.Post) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InsertCalls++
	if m.InsertError != nil {
		return nil, m.InsertError
	}
	if _, exists := m.Posts[post.ID]; exists {
		return nil, fmt.Errorf("insert post %s: %w", post.ID, repository.ErrConflict)
	}
	m.Posts[post.ID] = post.Clone()
	return post.Clone(), nil
}

func (m *MockPostBackend) UpdateByID(ctx context.Context, post *models.Post) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls++
	if m.UpdateError != nil {
		return nil, m.UpdateError
	}
	if _, exists := m.Posts[post.ID]; !exists {
		return nil, fmt.Errorf("update post %s: %w", post.ID, repository.ErrNotFound)
	}
	m.Posts[post.ID] = post.Clone()
	return post.Clone(), nil
}

func (m *MockPostBackend) BulkUpsert(ctx context.Context, posts []*models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BulkUpsertCalls++
	if m.BulkUpsertFunc != nil {
		if err := m.BulkUpsertFunc(ctx, posts); err != nil {
			return err
		}
	}
	if m.BulkUpsertError != nil {
		return m.BulkUpsertError
	}
	m.LastBulk = make([]*models.Post, 0, len(posts))
	for _, p := range posts {
		m.Posts[p.ID] = p.Clone()
		m.LastBulk = append(m.LastBulk, p.Clone())
	}
	return nil
}

func (m *MockPostBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Get returns a stored post for assertions
func (m *MockPostBackend) Get(id string) *models.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Posts[id].Clone()
}

// Count returns the number of stored posts
func (m *MockPostBackend) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Posts)
}

// MockCache is an in-memory implementation of cache.Cache. TTLs are ignored.
type MockCache struct {
	mu      sync.Mutex
	Entries map[string][]byte
	Hits    int
	Misses  int
}

// Verify interface compliance
var _ cache.Cache = (*MockCache)(nil)

func NewMockCache() *MockCache {
	return &MockCache{Entries: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string, dest interface{}) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.Entries[key]
	if !ok {
		m.Misses++
		return false
	}
	m.Hits++
	return json.Unmarshal(data, dest) == nil
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries[key] = data
}

func (m *MockCache) Del(ctx context.Context, keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.Entries, k)
	}
}

func (m *MockCache) DelPattern(ctx context.Context, pattern string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.Entries {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.Entries, k)
		}
	}
}

// Len returns the number of cached keys
func (m *MockCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Entries)
}
