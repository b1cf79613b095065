package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/editorial-cms/internal/config"
	"github.com/editorial-cms/internal/interchange"
	"github.com/editorial-cms/internal/metrics"
	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/storage"
	"github.com/rs/zerolog"
)

// ErrSnapshotDisabled is returned when no snapshot bucket is configured
var ErrSnapshotDisabled = errors.New("snapshots are not configured")

// Export formats
const (
	FormatCSV    = "csv"
	FormatJSON   = "json"
	FormatNDJSON = "ndjson"
)

// ValidExportFormats lists the formats StreamPosts accepts
var ValidExportFormats = map[string]bool{
	FormatCSV:    true,
	FormatJSON:   true,
	FormatNDJSON: true,
}

// exportService is the concrete implementation of ExportService
type exportService struct {
	posts    PostService
	uploader storage.Uploader
	cfg      config.ExportConfig
	log      zerolog.Logger
	now      func() time.Time
}

// newExportService creates a new ExportService
func newExportService(posts PostService, uploader storage.Uploader, cfg config.ExportConfig, log zerolog.Logger) *exportService {
	return &exportService{
		posts:    posts,
		uploader: uploader,
		cfg:      cfg,
		log:      log.With().Str("service", "export").Logger(),
		now:      time.Now,
	}
}

// StreamPosts writes every post to w in the given format
func (s *exportService) StreamPosts(ctx context.Context, w http.ResponseWriter, format string) error {
	s.log.Info().Str("format", format).Msg("Starting posts export")

	switch format {
	case FormatCSV:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=posts.csv")
		_, err := s.WriteCSV(ctx, w)
		return err
	case FormatJSON:
		return s.streamJSON(ctx, w)
	case FormatNDJSON:
		return s.streamNDJSON(ctx, w)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteCSV writes all posts in the interchange format and returns how many were written
func (s *exportService) WriteCSV(ctx context.Context, w io.Writer) (int, error) {
	posts, err := s.posts.ListPosts(ctx)
	if err != nil {
		return 0, err
	}
	if err := interchange.WritePosts(w, posts); err != nil {
		return 0, fmt.Errorf("write csv: %w", err)
	}

	s.log.Info().Int("count", len(posts)).Msg("Posts CSV export completed")
	return len(posts), nil
}

func (s *exportService) streamJSON(ctx context.Context, w http.ResponseWriter) error {
	posts, err := s.posts.ListPosts(ctx)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=posts.json")

	w.Write([]byte("["))
	for i, post := range posts {
		if i > 0 {
			w.Write([]byte(","))
		}
		data, err := json.Marshal(post)
		if err != nil {
			return err
		}
		w.Write(data)
	}
	w.Write([]byte("]"))
	return nil
}

func (s *exportService) streamNDJSON(ctx context.Context, w http.ResponseWriter) error {
	posts, err := s.posts.ListPosts(ctx)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename=posts.ndjson")

	flusher, _ := w.(http.Flusher)
	for i, post := range posts {
		data, err := json.Marshal(post)
		if err != nil {
			return err
		}
		w.Write(data)
		w.Write([]byte("\n"))

		// Flush every 100 records for streaming
		if (i+1)%100 == 0 && flusher != nil {
			flusher.Flush()
		}
	}

	s.log.Info().Int("count", len(posts)).Msg("Posts NDJSON export completed")
	return nil
}

// Snapshot uploads a CSV export of all posts under a timestamped key
func (s *exportService) Snapshot(ctx context.Context) (*models.SnapshotResult, error) {
	if s.uploader == nil {
		return nil, ErrSnapshotDisabled
	}

	var buf bytes.Buffer
	count, err := s.WriteCSV(ctx, &buf)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	key := fmt.Sprintf("%sposts-%s.csv", s.cfg.S3Prefix, now.Format("20060102T150405Z"))

	location, err := s.uploader.Upload(ctx, key, buf.Bytes(), "text/csv")
	if err != nil {
		metrics.SnapshotUploads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("upload snapshot: %w", err)
	}
	metrics.SnapshotUploads.WithLabelValues("success").Inc()

	s.log.Info().
		Str("key", key).
		Int("posts", count).
		Int("bytes", buf.Len()).
		Msg("Snapshot uploaded")

	return &models.SnapshotResult{
		Key:       key,
		Location:  location,
		Posts:     count,
		Bytes:     buf.Len(),
		CreatedAt: now,
	}, nil
}
