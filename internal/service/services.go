package service

import (
	"context"
	"io"
	"net/http"

	"github.com/editorial-cms/internal/config"
	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/repository"
	"github.com/editorial-cms/internal/storage"
	"github.com/rs/zerolog"
)

// PostService is the single source of truth for posts
type PostService interface {
	Load(ctx context.Context) error
	ListPosts(ctx context.Context) ([]*models.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (*models.Post, error)
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	AddPost(ctx context.Context, input models.PostInput) (*models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) (*models.Post, error)
	ProcessImportedData(ctx context.Context, candidates []models.PostCandidate) (*models.ImportReport, error)
	Stats(ctx context.Context) (*models.PostStats, error)
}

// ImportService defines the interface for import operations
type ImportService interface {
	ImportCSV(ctx context.Context, r io.Reader, source models.ImportSource) (*models.ImportReport, error)
	ImportFile(ctx context.Context, path string, source models.ImportSource) (*models.ImportReport, error)
	ImportCandidates(ctx context.Context, candidates []models.PostCandidate, source models.ImportSource) (*models.ImportReport, error)
}

// ExportService defines the interface for export operations
type ExportService interface {
	StreamPosts(ctx context.Context, w http.ResponseWriter, format string) error
	WriteCSV(ctx context.Context, w io.Writer) (int, error)
	Snapshot(ctx context.Context) (*models.SnapshotResult, error)
}

// WebhookService defines the interface for the query-string webhook
type WebhookService interface {
	Handle(ctx context.Context, req *models.WebhookRequest) (*models.WebhookResult, error)
}

// Services holds all service interfaces
type Services struct {
	Posts   PostService
	Import  ImportService
	Export  ExportService
	Webhook WebhookService
}

// NewServices creates all services. uploader may be nil when snapshots are not configured.
func NewServices(backend repository.PostBackend, uploader storage.Uploader, cfg *config.Config, log zerolog.Logger) *Services {
	postSvc := NewPostService(backend, log)

	return &Services{
		Posts:   postSvc,
		Import:  newImportService(postSvc, log),
		Export:  newExportService(postSvc, uploader, cfg.Export, log),
		Webhook: newWebhookService(postSvc, log),
	}
}
