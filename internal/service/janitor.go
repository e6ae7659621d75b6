package service

import (
	"context"
	"time"

	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
)

// ExpiredSessionCleaner clears refresh token hashes past their expiry.
type ExpiredSessionCleaner interface {
	CleanupExpiredRefreshTokens(ctx context.Context) (int64, error)
}

// SessionJanitor periodically drops expired refresh sessions so stale
// hashes do not linger on user rows.
type SessionJanitor struct {
	store    ExpiredSessionCleaner
	interval time.Duration
}

func NewSessionJanitor(store ExpiredSessionCleaner, interval time.Duration) *SessionJanitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SessionJanitor{store: store, interval: interval}
}

// Run sweeps once immediately and then every interval until ctx is done.
// Sweep failures are logged and retried on the next tick.
func (j *SessionJanitor) Run(ctx context.Context) error {
	ctx = ctxutil.WithFunction(ctx, "service", "SessionJanitor")

	logger.InfoWithContext(ctx, "Session janitor started").
		Duration(j.interval).
		Log()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		j.Sweep(ctx)

		select {
		case <-ctx.Done():
			logger.InfoWithContext(context.Background(), "Session janitor stopped").Log()
			return nil
		case <-ticker.C:
		}
	}
}

// Sweep runs a single cleanup pass and returns how many sessions it cleared.
func (j *SessionJanitor) Sweep(ctx context.Context) int64 {
	if ctx.Err() != nil {
		return 0
	}

	cleaned, err := j.store.CleanupExpiredRefreshTokens(ctx)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to cleanup expired sessions").
			Err(err).
			Log()
		return 0
	}

	if cleaned > 0 {
		logger.InfoWithContext(ctx, "Expired sessions cleared").
			Int64("cleaned_count", cleaned).
			Log()
	}
	return cleaned
}
