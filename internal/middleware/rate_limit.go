package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter is a per-key sliding window limiter.
type RateLimiter struct {
	tokens     map[string][]time.Time
	maxRequest int
	duration   time.Duration
	mu         sync.Mutex
}

func NewRateLimiter(maxRequest int, duration time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     make(map[string][]time.Time),
		maxRequest: maxRequest,
		duration:   duration,
	}
}

// Allow records a hit for key at now when the window has room. It returns the
// remaining budget and, when rejected, how long until the oldest hit expires.
func (rl *RateLimiter) Allow(key string, now time.Time) (bool, int, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanup(now)

	tokens := rl.tokens[key]
	if len(tokens) >= rl.maxRequest {
		retryAfter := rl.duration - now.Sub(tokens[0])
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return false, 0, retryAfter
	}

	rl.tokens[key] = append(tokens, now)
	return true, rl.maxRequest - len(tokens) - 1, 0
}

func (rl *RateLimiter) cleanup(now time.Time) {
	for key, tokens := range rl.tokens {
		var valid []time.Time
		for _, t := range tokens {
			if now.Sub(t) < rl.duration {
				valid = append(valid, t)
			}
		}
		if len(valid) > 0 {
			rl.tokens[key] = valid
		} else {
			delete(rl.tokens, key)
		}
	}
}

// RateLimit limits requests per client IP.
func RateLimit(maxRequest int, duration time.Duration) gin.HandlerFunc {
	limiter := NewRateLimiter(maxRequest, duration)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		allowed, remaining, retryAfter := limiter.Allow(ip, now)
		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequest))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(now.Add(duration).Unix(), 10))

		if !allowed {
			logger.GetLogger().Warn("Rate limit exceeded",
				zap.String("client_ip", ip),
				zap.String("user_agent", c.GetHeader(constants.HeaderUserAgent)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("max_requests", maxRequest),
				zap.Duration("duration", duration),
				zap.Duration("retry_after", retryAfter),
			)

			c.Header(constants.HeaderRetryAfter, strconv.Itoa(int(retryAfter.Round(time.Second)/time.Second)))
			constants.RespondError(c, http.StatusTooManyRequests, constants.MsgTooManyRequests, nil)
			return
		}

		c.Next()
	}
}
