package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/editorial-cms/internal/config"
	"github.com/editorial-cms/internal/repository"
	"github.com/editorial-cms/internal/service"
	"github.com/editorial-cms/internal/validation"
	"github.com/editorial-cms/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	postHandler := NewPostHandler(services, log)
	importHandler := NewImportHandler(services, cfg, log)
	exportHandler := NewExportHandler(services, log)
	editorHandler := NewEditorHandler(log)
	webhookHandler := NewWebhookHandler(services, log)

	protected := apiKeyMiddleware(cfg.Auth.APIKey, log)

	// Health check
	router.GET("/health", healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	v1 := router.Group("/v1")
	{
		v1.GET("/stats", postHandler.Stats)

		// Post endpoints
		posts := v1.Group("/posts")
		{
			posts.GET("", postHandler.ListPosts)
			posts.GET("/:slug", postHandler.GetPost)
			posts.POST("", protected, postHandler.CreatePost)
			posts.PUT("/:id", protected, postHandler.UpdatePost)
		}

		// Import endpoints
		imports := v1.Group("/imports", protected)
		{
			imports.POST("", importHandler.CreateImport)
		}

		// Export endpoints
		exports := v1.Group("/exports")
		{
			exports.GET("", exportHandler.StreamExport)
			exports.POST("/snapshot", protected, exportHandler.CreateSnapshot)
		}

		v1.POST("/editor/apply", protected, editorHandler.Apply)
	}

	// Webhook for automation tools that can only send query strings
	webhook := router.Group("/api/posts/webhook", protected)
	{
		webhook.GET("", webhookHandler.Handle)
		webhook.POST("", webhookHandler.Handle)
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   logger.ServiceName,
	})
}

// respondError maps service errors to HTTP responses
func respondError(c *gin.Context, log zerolog.Logger, err error, msg string) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": verrs})
	case errors.Is(err, service.ErrPostNotFound), errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "post already exists"})
	default:
		log.Error().Err(err).Msg(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+APIKeyHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
