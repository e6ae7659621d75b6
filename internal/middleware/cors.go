package middleware

import (
	"net/http"
	"slices"

	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	corsAllowHeaders = "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID"
	corsAllowMethods = "POST, OPTIONS, GET, PUT, PATCH, DELETE"
)

// CORS answers preflight requests and sets the CORS headers. With no allowed
// origins every origin is accepted without credentials.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		h := c.Writer.Header()

		switch {
		case len(allowedOrigins) == 0:
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(allowedOrigins, origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		default:
			if origin != "" {
				logger.GetLogger().Debug("Middleware: CORS origin not allowed",
					zap.String("origin", origin),
					zap.String("client_ip", c.ClientIP()),
				)
			}
		}
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		h.Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
