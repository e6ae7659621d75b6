package logger

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// PerformanceConfig controls level filtering and log volume.
type PerformanceConfig struct {
	MinLogLevel     zapcore.Level `json:"min_log_level"`
	MaxLogPerSecond int           `json:"max_log_per_second"`
	EnableRateLimit bool          `json:"enable_rate_limit"`
}

// ProductionConfig drops debug lines and caps volume.
func ProductionConfig() PerformanceConfig {
	return PerformanceConfig{
		MinLogLevel:     zapcore.InfoLevel,
		MaxLogPerSecond: 2000,
		EnableRateLimit: true,
	}
}

// DevelopmentConfig logs everything.
func DevelopmentConfig() PerformanceConfig {
	return PerformanceConfig{
		MinLogLevel:     zapcore.DebugLevel,
		MaxLogPerSecond: 10000,
		EnableRateLimit: false,
	}
}

// OptimizedLogger skips field construction for lines that will not be written.
type OptimizedLogger struct {
	config      PerformanceConfig
	logger      *zap.Logger
	rateLimiter *RateLimiter
}

// RateLimiter caps log lines per second
type RateLimiter struct {
	maxLogs   int
	current   int
	lastReset time.Time
	mu        sync.Mutex
}

func NewRateLimiter(maxLogs int) *RateLimiter {
	return &RateLimiter{
		maxLogs:   maxLogs,
		lastReset: time.Now(),
	}
}

func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastReset) >= time.Second {
		rl.current = 0
		rl.lastReset = now
	}

	if rl.current >= rl.maxLogs {
		return false
	}

	rl.current++
	return true
}

func NewOptimizedLogger(base *zap.Logger, config PerformanceConfig) *OptimizedLogger {
	if base == nil {
		base = zap.NewNop()
	}
	return &OptimizedLogger{
		config:      config,
		logger:      base,
		rateLimiter: NewRateLimiter(config.MaxLogPerSecond),
	}
}

// ShouldLog reports whether a line at level passes the filters
func (ol *OptimizedLogger) ShouldLog(level zapcore.Level) bool {
	if level < ol.config.MinLogLevel {
		return false
	}

	// Errors are never dropped by the rate limiter.
	if ol.config.EnableRateLimit && level < zapcore.ErrorLevel && !ol.rateLimiter.Allow() {
		return false
	}

	return true
}

var (
	optimizedMu     sync.RWMutex
	optimizedLogger *OptimizedLogger
)

// SetOptimizedLogger replaces the package-level builder backend.
func SetOptimizedLogger(ol *OptimizedLogger) {
	optimizedMu.Lock()
	optimizedLogger = ol
	optimizedMu.Unlock()
}

// GetOptimizedLogger returns the package-level builder backend, a no-op one
// when nothing was installed.
func GetOptimizedLogger() *OptimizedLogger {
	optimizedMu.RLock()
	ol := optimizedLogger
	optimizedMu.RUnlock()

	if ol == nil {
		return NewOptimizedLogger(GetLogger(), DevelopmentConfig())
	}
	return ol
}
