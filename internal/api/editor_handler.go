package api

import (
	"errors"
	"net/http"

	"github.com/editorial-cms/internal/content"
	"github.com/editorial-cms/internal/editor"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// EditorHandler replays block editor operations for clients that keep no local state
type EditorHandler struct {
	log zerolog.Logger
}

// NewEditorHandler creates a new EditorHandler
func NewEditorHandler(log zerolog.Logger) *EditorHandler {
	return &EditorHandler{
		log: log.With().Str("handler", "editor").Logger(),
	}
}

type applyRequest struct {
	Blocks content.Blocks `json:"blocks"`
	Ops    []editor.Op    `json:"ops"`
}

// Apply handles POST /v1/editor/apply
func (h *EditorHandler) Apply(c *gin.Context) {
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Blocks == nil {
		req.Blocks = content.Blocks{}
	}

	blocks, changed, err := editor.ApplyAll(req.Blocks, req.Ops)
	if err != nil {
		if errors.Is(err, editor.ErrInvalidOp) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error().Err(err).Msg("Editor apply failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply operations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"blocks":  blocks,
		"changed": changed,
	})
}
