package mw

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireStore answers 503 while the store is disabled, which only happens when
// the server started in degraded mode without database credentials.
func RequireStore(available bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !available {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "database is not configured"})
			return
		}
		c.Next()
	}
}
