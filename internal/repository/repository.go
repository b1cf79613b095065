package repository

import (
	"context"
	"errors"

	"github.com/editorial-cms/internal/models"
)

var (
	// ErrNotFound is returned when an update targets a post that does not exist
	ErrNotFound = errors.New("post not found")

	// ErrConflict is returned when an insert reuses an existing id
	ErrConflict = errors.New("post already exists")
)

// PostBackend is the persistence port behind the post service.
// Lookups that miss return (nil, nil). Posts returned are owned by the caller.
type PostBackend interface {
	FetchAll(ctx context.Context) ([]*models.Post, error)
	FetchBySlug(ctx context.Context, slug string) (*models.Post, error)
	Insert(ctx context.Context, post *models.Post) (*models.Post, error)
	UpdateByID(ctx context.Context, post *models.Post) (*models.Post, error)
	BulkUpsert(ctx context.Context, posts []*models.Post) error
	Close() error
}
