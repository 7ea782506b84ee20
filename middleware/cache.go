package middleware

import "github.com/gin-gonic/gin"

// NoCacheMiddleware disables intermediary caching. Task data is per-user
// and mutable, so responses must never be served stale.
func NoCacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
