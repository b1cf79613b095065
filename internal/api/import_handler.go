package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/editorial-cms/internal/config"
	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ImportHandler handles import endpoints
type ImportHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "import").Logger(),
	}
}

// CreateImport handles POST /v1/imports
// Accepts a multipart "file" field or a raw CSV body. The import runs synchronously and the
// report is returned.
func (h *ImportHandler) CreateImport(c *gin.Context) {
	ctx := c.Request.Context()
	maxSize := h.cfg.Import.MaxUploadSize

	var (
		body     io.Reader
		filename = "body"
	)

	file, header, err := c.Request.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()

		// Validate file size
		if maxSize > 0 && header.Size > maxSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("file too large, max size is %d MB", maxSize/(1024*1024)),
			})
			return
		}
		if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".csv" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "import requires a CSV file"})
			return
		}
		body = file
		filename = header.Filename
	case errors.Is(err, http.ErrNotMultipart):
		if c.Request.Body == nil || c.Request.ContentLength == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file upload or CSV body is required"})
			return
		}
		if maxSize > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		}
		body = c.Request.Body
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "file upload or CSV body is required"})
		return
	}

	report, err := h.services.Import.ImportCSV(ctx, body, models.ImportSourceUpload)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		respondError(c, h.log, err, "failed to import posts")
		return
	}

	h.log.Info().
		Str("file", filename).
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("Import completed")

	c.JSON(http.StatusOK, report)
}
