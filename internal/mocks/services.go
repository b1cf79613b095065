package mocks

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/editorial-cms/internal/interchange"
	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/service"
	"github.com/editorial-cms/internal/storage"
)

// MockImportService is a mock implementation of ImportService
type MockImportService struct {
	mu sync.Mutex

	ImportCSVFunc func(ctx context.Context, r io.Reader, source models.ImportSource) (*models.ImportReport, error)
	ImportFileErr error

	Bodies     []string
	Files      []string
	Candidates [][]models.PostCandidate
	Sources    []models.ImportSource
}

// Verify interface compliance
var _ service.ImportService = (*MockImportService)(nil)

func NewMockImportService() *MockImportService {
	return &MockImportService{}
}

func (m *MockImportService) ImportCSV(ctx context.Context, r io.Reader, source models.ImportSource) (*models.ImportReport, error) {
	if m.ImportCSVFunc != nil {
		return m.ImportCSVFunc(ctx, r, source)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Bodies = append(m.Bodies, string(body))
	m.Sources = append(m.Sources, source)
	return &models.ImportReport{Source: source}, nil
}

func (m *MockImportService) ImportFile(ctx context.Context, path string, source models.ImportSource) (*models.ImportReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Files = append(m.Files, path)
	m.Sources = append(m.Sources, source)
	if m.ImportFileErr != nil {
		return nil, m.ImportFileErr
	}
	return &models.ImportReport{Source: source}, nil
}

func (m *MockImportService) ImportCandidates(ctx context.Context, candidates []models.PostCandidate, source models.ImportSource) (*models.ImportReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Candidates = append(m.Candidates, candidates)
	m.Sources = append(m.Sources, source)
	return &models.ImportReport{Source: source, Total: len(candidates), Created: len(candidates), Processed: len(candidates)}, nil
}

// ImportedFiles returns a copy of the imported paths
func (m *MockImportService) ImportedFiles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Files...)
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	Posts        []*models.Post
	StreamErr    error
	SnapshotFunc func(ctx context.Context) (*models.SnapshotResult, error)
	Snapshots    int
}

// Verify interface compliance
var _ service.ExportService = (*MockExportService)(nil)

func NewMockExportService() *MockExportService {
	return &MockExportService{}
}

func (m *MockExportService) StreamPosts(ctx context.Context, w http.ResponseWriter, format string) error {
	if m.StreamErr != nil {
		return m.StreamErr
	}
	w.Header().Set("Content-Type", "text/csv")
	_, err := m.WriteCSV(ctx, w)
	return err
}

func (m *MockExportService) WriteCSV(ctx context.Context, w io.Writer) (int, error) {
	return len(m.Posts), interchange.WritePosts(w, m.Posts)
}

func (m *MockExportService) Snapshot(ctx context.Context) (*models.SnapshotResult, error) {
	m.Snapshots++
	if m.SnapshotFunc != nil {
		return m.SnapshotFunc(ctx)
	}
	return nil, service.ErrSnapshotDisabled
}

// MockWebhookService is a mock implementation of WebhookService
type MockWebhookService struct {
	Requests []*models.WebhookRequest
	Result   *models.WebhookResult
	Err      error
}

// Verify interface compliance
var _ service.WebhookService = (*MockWebhookService)(nil)

func (m *MockWebhookService) Handle(ctx context.Context, req *models.WebhookRequest) (*models.WebhookResult, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result != nil {
		return m.Result, nil
	}
	return &models.WebhookResult{Status: models.WebhookStatusSuccess, Data: map[string]interface{}{}}, nil
}

// MockUploader records uploads in memory
type MockUploader struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Err     error
}

// Verify interface compliance
var _ storage.Uploader = (*MockUploader)(nil)

func NewMockUploader() *MockUploader {
	return &MockUploader{Objects: make(map[string][]byte)}
}

func (m *MockUploader) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.Objects[key] = append([]byte(nil), body...)
	return "mem://" + key, nil
}
