package api

import (
	"net/http"

	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// WebhookHandler handles the query-string webhook
type WebhookHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(services *service.Services, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		services: services,
		log:      log.With().Str("handler", "webhook").Logger(),
	}
}

// Handle handles GET and POST /api/posts/webhook
func (h *WebhookHandler) Handle(c *gin.Context) {
	req := &models.WebhookRequest{
		ID:       param(c, "id"),
		Title:    param(c, "title"),
		Author:   param(c, "author"),
		Category: param(c, "category"),
		ImageURL: param(c, "imageUrl"),
		Content:  param(c, "content"),
	}
	if action := param(c, "action"); action != nil {
		req.Action = *action
	}

	result, err := h.services.Webhook.Handle(c.Request.Context(), req)
	if err != nil {
		h.log.Error().Err(err).Str("action", req.Action).Msg("Webhook failed")
		c.JSON(http.StatusInternalServerError, models.WebhookError("internal error", nil))
		return
	}
	if result.Status == models.WebhookStatusError {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// param returns the named query value, falling back to a form value. Nil means absent.
func param(c *gin.Context, name string) *string {
	if v, ok := c.GetQuery(name); ok {
		return &v
	}
	if v, ok := c.GetPostForm(name); ok {
		return &v
	}
	return nil
}
