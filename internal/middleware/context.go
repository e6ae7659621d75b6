package middleware

import (
	"context"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/internal/model"
	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

// maxRequestIDLength bounds client supplied request IDs before they reach the logs.
const maxRequestIDLength = 128

// RequestContext stamps every request with an ID, client metadata and a start
// time, and bounds it with the configured timeout.
func RequestContext(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderXRequestID)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = model.NewID()
		}
		c.Header(constants.HeaderXRequestID, requestID)

		ctx := ctxutil.WithRequestID(c.Request.Context(), requestID)
		ctx = ctxutil.WithClient(ctx, c.ClientIP(), c.Request.UserAgent())
		ctx = context.WithValue(ctx, ctxutil.StartTimeKey, time.Now())

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			logger.WarnWithContext(ctx, "Request exceeded its deadline").
				String("method", c.Request.Method).
				String("path", c.Request.URL.Path).
				Duration(ctxutil.GetDuration(ctx)).
				Log()
		}
	}
}
