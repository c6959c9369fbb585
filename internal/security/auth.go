package security

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

const (
	errMissingAPIKey = "missing X-API-Key header"
	errInvalidAPIKey = "invalid API key"
)

// AuthMiddleware returns a gin middleware enforcing the X-API-Key header
// against the accepted key set. When keys is empty, auth is disabled and
// every request is let through — this matches running the service locally
// without CUEMAP_API_KEYS/CUEMAP_API_KEY configured.
func AuthMiddleware(keys map[string]struct{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(keys) == 0 {
			c.Next()
			return
		}

		key := c.GetHeader("X-API-Key")
		if key == "" {
			log.Info("auth rejected: missing X-API-Key header", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMissingAPIKey})
			return
		}
		if _, ok := keys[key]; !ok {
			log.Info("auth rejected: invalid API key", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAPIKey})
			return
		}
		c.Next()
	}
}
