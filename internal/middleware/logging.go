package middleware

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const slowRequestThreshold = 2 * time.Second

// LoggingMiddleware logs HTTP requests and responses
func LoggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			logger.LogRequest(
				param.Method,
				param.Path,
				param.StatusCode,
				param.Latency.Milliseconds(),
				param.ClientIP,
				param.Request.UserAgent(),
			)

			if param.ErrorMessage != "" {
				logger.GetLogger().Error("Request error",
					zap.String("error", param.ErrorMessage),
					zap.String("method", param.Method),
					zap.String("path", param.Path),
					zap.String("client_ip", param.ClientIP),
					zap.Int("status_code", param.StatusCode),
					zap.Duration("latency", param.Latency),
				)
			}

			if param.Latency > slowRequestThreshold {
				logger.GetLogger().Warn("Slow request detected",
					zap.String("method", param.Method),
					zap.String("path", param.Path),
					zap.Duration("latency", param.Latency),
					zap.String("client_ip", param.ClientIP),
				)
			}

			return ""
		},
		Output: io.Discard,
	})
}

// RecoveryMiddleware recovers from panics and answers with the standard envelope
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.LogPanic(recovered)
		constants.RespondError(c, http.StatusInternalServerError, constants.MsgInternalError, nil)
	})
}

// SecurityLoggingMiddleware logs scanner traffic and credential submissions.
// Request bodies are never read here.
func SecurityLoggingMiddleware(signInPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		userAgent := c.Request.UserAgent()

		if isSuspiciousUserAgent(userAgent) {
			logger.GetLogger().Warn("Suspicious user agent detected",
				zap.String("client_ip", clientIP),
				zap.String("user_agent", userAgent),
				zap.String("path", c.Request.URL.Path),
			)
		}

		if c.Request.Method == http.MethodPost && c.Request.URL.Path == signInPath {
			logger.GetLogger().Info("Sign-in attempt",
				zap.String("client_ip", clientIP),
				zap.String("user_agent", userAgent),
			)
		}

		c.Next()
	}
}

func isSuspiciousUserAgent(userAgent string) bool {
	suspiciousPatterns := []string{
		"sqlmap", "nikto", "nmap", "masscan", "burp",
		"scanner", "crawler", "spider",
	}

	ua := strings.ToLower(userAgent)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}

	return false
}
