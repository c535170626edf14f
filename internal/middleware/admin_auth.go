package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const adminTokenHeader = "x-admin-token"

// AdminAuthMiddleware gates admin routes behind a single shared secret.
// The comparison is constant-time so response timing leaks nothing about
// the configured token, and a rejected request never reaches the store.
func AdminAuthMiddleware(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(adminTokenHeader)
		if provided == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "missing admin token",
				"code":  "UNAUTHORIZED",
			})
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(adminToken)) != 1 {
			zap.L().Warn("Admin auth failed",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path))
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "invalid admin token",
				"code":  "UNAUTHORIZED",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
