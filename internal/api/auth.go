package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// APIKeyHeader carries the key on protected routes. The apiKey query parameter is accepted
// as well for callers that can only build URLs.
const (
	APIKeyHeader = "X-API-Key"
	APIKeyParam  = "apiKey"
)

// apiKeyMiddleware rejects requests without the configured key.
// An empty key leaves the routes open.
func apiKeyMiddleware(apiKey string, log zerolog.Logger) gin.HandlerFunc {
	if apiKey == "" {
		log.Warn().Msg("AUTH_API_KEY is empty, protected routes are open")
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		provided := c.GetHeader(APIKeyHeader)
		if provided == "" {
			provided = c.Query(APIKeyParam)
		}
		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API key required"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			log.Warn().Str("path", c.Request.URL.Path).Str("client_ip", c.ClientIP()).Msg("Invalid API key")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid API key"})
			return
		}
		c.Next()
	}
}
