package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/editorial-cms/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamExport handles GET /v1/exports?format=...
// Streams the export directly to the response
func (h *ExportHandler) StreamExport(c *gin.Context) {
	format := c.DefaultQuery("format", service.FormatCSV)
	if !service.ValidExportFormats[format] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be one of: " + strings.Join(formatNames(), ", ")})
		return
	}

	h.log.Info().Str("format", format).Msg("Starting streaming export")

	if err := h.services.Export.StreamPosts(c.Request.Context(), c.Writer, format); err != nil {
		h.log.Error().Err(err).Str("format", format).Msg("Export failed")
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		}
		// Can't return error JSON after streaming has started
		return
	}
}

// CreateSnapshot handles POST /v1/exports/snapshot
func (h *ExportHandler) CreateSnapshot(c *gin.Context) {
	result, err := h.services.Export.Snapshot(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrSnapshotDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshots are not configured"})
			return
		}
		respondError(c, h.log, err, "failed to create snapshot")
		return
	}
	c.JSON(http.StatusCreated, result)
}

func formatNames() []string {
	return []string{service.FormatCSV, service.FormatJSON, service.FormatNDJSON}
}
