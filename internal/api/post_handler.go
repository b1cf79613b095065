package api

import (
	"net/http"

	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PostHandler handles post endpoints
type PostHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(services *service.Services, log zerolog.Logger) *PostHandler {
	return &PostHandler{
		services: services,
		log:      log.With().Str("handler", "post").Logger(),
	}
}

// ListPosts handles GET /v1/posts
func (h *PostHandler) ListPosts(c *gin.Context) {
	posts, err := h.services.Posts.ListPosts(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "failed to list posts")
		return
	}
	if category := c.Query("category"); category != "" {
		filtered := posts[:0]
		for _, p := range posts {
			if string(p.Category) == category {
				filtered = append(filtered, p)
			}
		}
		posts = filtered
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(posts),
		"posts": posts,
	})
}

// GetPost handles GET /v1/posts/:slug
func (h *PostHandler) GetPost(c *gin.Context) {
	slug := c.Param("slug")
	post, err := h.services.Posts.GetPostBySlug(c.Request.Context(), slug)
	if err != nil {
		respondError(c, h.log, err, "failed to get post")
		return
	}
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	c.JSON(http.StatusOK, post)
}

// CreatePost handles POST /v1/posts
func (h *PostHandler) CreatePost(c *gin.Context) {
	var input models.PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	post, err := h.services.Posts.AddPost(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.log, err, "failed to create post")
		return
	}

	h.log.Info().Str("post_id", post.ID).Str("slug", post.Slug).Msg("Post created")
	c.JSON(http.StatusCreated, post)
}

// UpdatePost handles PUT /v1/posts/:id
// The body carries the full post; the path id wins over any id in the body.
func (h *PostHandler) UpdatePost(c *gin.Context) {
	var post models.Post
	if err := c.ShouldBindJSON(&post); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	post.ID = c.Param("id")

	updated, err := h.services.Posts.UpdatePost(c.Request.Context(), &post)
	if err != nil {
		respondError(c, h.log, err, "failed to update post")
		return
	}

	h.log.Info().Str("post_id", updated.ID).Str("slug", updated.Slug).Msg("Post updated")
	c.JSON(http.StatusOK, updated)
}

// Stats handles GET /v1/stats
func (h *PostHandler) Stats(c *gin.Context) {
	stats, err := h.services.Posts.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "failed to get stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
