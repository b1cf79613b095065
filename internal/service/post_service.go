package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/editorial-cms/internal/content"
	"github.com/editorial-cms/internal/metrics"
	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/repository"
	"github.com/editorial-cms/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrPostNotFound is returned when an update targets an unknown post
var ErrPostNotFound = errors.New("post not found")

// PostOption configures a PostService
type PostOption func(*postService)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) PostOption {
	return func(s *postService) {
		s.now = now
	}
}

// postService keeps every post in memory in front of a backend.
// Writes hold the lock across the backend call and touch memory only after the backend succeeds.
type postService struct {
	backend repository.PostBackend
	log     zerolog.Logger
	now     func() time.Time

	mu     sync.RWMutex
	loaded bool
	byID   map[string]*models.Post
}

// NewPostService creates a PostService over backend
func NewPostService(backend repository.PostBackend, log zerolog.Logger, opts ...PostOption) PostService {
	s := &postService{
		backend: backend,
		log:     log.With().Str("service", "posts").Logger(),
		now:     time.Now,
		byID:    make(map[string]*models.Post),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory posts with the backend's
func (s *postService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *postService) loadLocked(ctx context.Context) error {
	posts, err := s.backend.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("load posts: %w", err)
	}

	byID := make(map[string]*models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p.Clone()
	}
	s.byID = byID
	s.loaded = true

	s.log.Debug().Int("count", len(byID)).Msg("Posts loaded")
	return nil
}

func (s *postService) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}
	return s.loadLocked(ctx)
}

// ensureLoadedLocked is ensureLoaded for callers already holding the write lock
func (s *postService) ensureLoadedLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	return s.loadLocked(ctx)
}

// sortedLocked returns the cached posts newest first, ties broken by id
func (s *postService) sortedLocked() []*models.Post {
	posts := make([]*models.Post, 0, len(s.byID))
	for _, p := range s.byID {
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].Date.Equal(posts[j].Date) {
			return posts[i].Date.After(posts[j].Date)
		}
		return posts[i].ID < posts[j].ID
	})
	return posts
}

// ListPosts returns copies of all posts, newest first
func (s *postService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := s.sortedLocked()
	out := make([]*models.Post, len(sorted))
	for i, p := range sorted {
		out[i] = p.Clone()
	}
	return out, nil
}

// GetPostBySlug returns the newest post with the slug, or nil
func (s *postService) GetPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.sortedLocked() {
		if p.Slug == slug {
			return p.Clone(), nil
		}
	}
	return nil, nil
}

// GetPostByID returns the post with the id, or nil
func (s *postService) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id].Clone(), nil
}

// AddPost creates a post from editor input
func (s *postService) AddPost(ctx context.Context, input models.PostInput) (*models.Post, error) {
	if err := validation.ValidatePost(input.Title, input.Author, input.ImageURL); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	blocks := content.Blocks{content.TextBlock{ID: content.NewBlockID()}}
	if input.Content != nil {
		blocks = content.Normalize(input.Content)
	}

	post := &models.Post{
		ID:       uuid.NewString(),
		Slug:     content.SlugOrFallback(input.Title, now),
		Title:    input.Title,
		Content:  blocks,
		Author:   input.Author,
		Date:     now,
		Category: models.CategoryOrGeneral(input.Category),
		ImageURL: input.ImageURL,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}

	stored, err := s.backend.Insert(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("add post: %w", err)
	}
	s.byID[stored.ID] = stored.Clone()
	metrics.PostsCreated.Inc()

	s.log.Info().
		Str("post_id", stored.ID).
		Str("slug", stored.Slug).
		Int("blocks", len(stored.Content)).
		Msg("Post created")

	return stored.Clone(), nil
}

// UpdatePost replaces an existing post. Content is normalized again, the slug follows a
// changed title, and a zero date or unknown category keeps the stored value.
func (s *postService) UpdatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	if post == nil || post.ID == "" {
		return nil, validation.Errors{{Field: "id", Message: "id is required"}}
	}
	if err := validation.ValidatePost(post.Title, post.Author, post.ImageURL); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}

	existing, ok := s.byID[post.ID]
	if !ok {
		return nil, fmt.Errorf("update post %s: %w", post.ID, ErrPostNotFound)
	}

	updated := post.Clone()
	updated.Content = content.Normalize(post.Content)
	switch {
	case updated.Title != existing.Title:
		updated.Slug = content.SlugOrFallback(updated.Title, s.now())
	case updated.Slug == "":
		updated.Slug = existing.Slug
	}
	if updated.Date.IsZero() {
		updated.Date = existing.Date
	}
	if _, ok := models.ParseCategory(string(updated.Category)); !ok {
		updated.Category = existing.Category
	}

	stored, err := s.backend.UpdateByID(ctx, updated)
	if err != nil {
		return nil, fmt.Errorf("update post %s: %w", post.ID, err)
	}
	s.byID[stored.ID] = stored.Clone()
	metrics.PostsUpdated.Inc()

	s.log.Info().
		Str("post_id", stored.ID).
		Str("slug", stored.Slug).
		Msg("Post updated")

	return stored.Clone(), nil
}

// ProcessImportedData merges candidates into the collection in order.
// A candidate whose id matches a post (stored or created earlier in the batch) updates the
// supplied fields; any other candidate becomes a new post if it has a title, author, category
// and imageUrl, and is skipped otherwise. All touched posts are written in one backend call.
func (s *postService) ProcessImportedData(ctx context.Context, candidates []models.PostCandidate) (*models.ImportReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	report := &models.ImportReport{
		Total:     len(candidates),
		StartedAt: now,
	}

	validator := validation.NewValidator()
	staged := make(map[string]*models.Post)
	var order []string
	stage := func(p *models.Post) {
		if _, ok := staged[p.ID]; !ok {
			order = append(order, p.ID)
		}
		staged[p.ID] = p
	}
	lookup := func(id string) *models.Post {
		if p, ok := staged[id]; ok {
			return p
		}
		return s.byID[id].Clone()
	}

	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c := &candidates[i]

		for _, ve := range validator.ValidateCandidate(c) {
			report.Errors = append(report.Errors, models.RowError{
				Line:    c.Line,
				Field:   ve.Field,
				Message: ve.Message,
				Value:   ve.Value,
			})
		}

		blocks := content.Normalize(c.Content)

		if models.Supplied(c.ID) {
			if existing := lookup(*c.ID); existing != nil {
				mergeCandidate(existing, c, blocks)
				stage(existing)
				report.Updated++
				continue
			}
		}

		if missing := validation.MissingForCreate(c); len(missing) > 0 {
			report.Skipped++
			report.Errors = append(report.Errors, models.RowError{
				Line:    c.Line,
				Field:   missing[0],
				Message: fmt.Sprintf("cannot create post, missing: %v", missing),
			})
			continue
		}

		stage(newPostFromCandidate(c, blocks, now))
		report.Created++
	}
	report.Processed = report.Created + report.Updated

	if len(order) > 0 {
		batch := make([]*models.Post, len(order))
		for i, id := range order {
			batch[i] = staged[id]
		}
		if err := s.backend.BulkUpsert(ctx, batch); err != nil {
			return nil, fmt.Errorf("import posts: %w", err)
		}
		for _, p := range batch {
			s.byID[p.ID] = p.Clone()
		}
	}

	report.Finish(s.now().UTC())

	s.log.Info().
		Int("total", report.Total).
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("skipped", report.Skipped).
		Int("diagnostics", len(report.Errors)).
		Msg("Import data processed")

	return report, nil
}

// mergeCandidate overwrites the fields a candidate supplies. Content replaces the stored
// blocks only when it normalizes to something; a title that slugifies to nothing keeps the slug.
func mergeCandidate(p *models.Post, c *models.PostCandidate, blocks content.Blocks) {
	if models.Supplied(c.Title) {
		p.Title = *c.Title
		if slug := content.Slugify(*c.Title); slug != "" {
			p.Slug = slug
		}
	}
	if len(blocks) > 0 {
		p.Content = blocks
	}
	if models.Supplied(c.Author) {
		p.Author = *c.Author
	}
	if models.Supplied(c.Date) {
		if t, err := validation.ParseDate(*c.Date); err == nil {
			p.Date = t
		}
	}
	if models.Supplied(c.Category) {
		if cat, ok := models.ParseCategory(*c.Category); ok {
			p.Category = cat
		}
	}
	if models.Supplied(c.ImageURL) {
		p.ImageURL = *c.ImageURL
	}
}

func newPostFromCandidate(c *models.PostCandidate, blocks content.Blocks, now time.Time) *models.Post {
	id := uuid.NewString()
	if models.Supplied(c.ID) {
		id = *c.ID
	}

	date := now
	if models.Supplied(c.Date) {
		if t, err := validation.ParseDate(*c.Date); err == nil {
			date = t
		}
	}

	if len(blocks) == 0 {
		blocks = content.Blocks{content.TextBlock{ID: content.NewBlockID()}}
	}

	return &models.Post{
		ID:       id,
		Slug:     content.SlugOrFallback(*c.Title, now),
		Title:    *c.Title,
		Content:  blocks,
		Author:   *c.Author,
		Date:     date,
		Category: models.CategoryOrGeneral(*c.Category),
		ImageURL: *c.ImageURL,
	}
}

// Stats summarizes the collection
func (s *postService) Stats(ctx context.Context) (*models.PostStats, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.PostStats{
		Total:      len(s.byID),
		ByCategory: make(map[models.Category]int),
	}
	for _, p := range s.byID {
		stats.ByCategory[p.Category]++
		stats.Blocks += len(p.Content)
	}
	return stats, nil
}
