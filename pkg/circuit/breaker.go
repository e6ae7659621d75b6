package circuit

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State represents circuit breaker state
type State int

const (
	StateClosed   State = iota // calls pass through
	StateOpen                  // calls fail fast
	StateHalfOpen              // probing whether the dependency recovered
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// Config defines circuit breaker configuration
type Config struct {
	Threshold        int           // consecutive failures before opening
	Cooldown         time.Duration // time spent open before probing
	SuccessThreshold int           // probe successes needed to close
	MaxProbes        int           // concurrent probes allowed while half-open
}

// DefaultConfig suits a shared cache: open quickly, probe again soon.
func DefaultConfig() Config {
	return Config{
		Threshold:        5,
		Cooldown:         10 * time.Second,
		SuccessThreshold: 2,
		MaxProbes:        1,
	}
}

// Breaker stops calling a failing dependency for a cooldown period so that
// callers fail fast instead of waiting on network timeouts.
type Breaker struct {
	mu        sync.Mutex
	name      string
	config    Config
	logger    *zap.Logger
	now       func() time.Time
	state     State
	failures  int
	successes int
	probes    int
	openedAt  time.Time
}

func NewBreaker(name string, config Config, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Threshold <= 0 {
		config.Threshold = 1
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	if config.MaxProbes <= 0 {
		config.MaxProbes = 1
	}

	return &Breaker{
		name:   name,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Do runs fn when the breaker admits the call and records its outcome.
// Cancellation by the caller is not counted against the dependency.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := b.allow(); err != nil {
		return err
	}

	err := fn(ctx)
	if err != nil && ctx.Err() != nil {
		b.release()
		return err
	}
	b.record(err)
	return err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.config.Cooldown {
			return ErrCircuitOpen
		}
		b.transitionTo(StateHalfOpen)
		b.probes = 1
		return nil

	case StateHalfOpen:
		if b.probes >= b.config.MaxProbes {
			return ErrTooManyRequests
		}
		b.probes++
		return nil

	default:
		return nil
	}
}

func (b *Breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateHalfOpen && b.probes > 0 {
		b.probes--
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen && b.probes > 0 {
		b.probes--
	}

	if err != nil {
		b.failures++
		b.successes = 0
		if b.state == StateHalfOpen || b.failures >= b.config.Threshold {
			b.openedAt = b.now()
			b.transitionTo(StateOpen)
		}
		return
	}

	b.failures = 0
	if b.state == StateHalfOpen {
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.transitionTo(StateClosed)
		}
	}
}

// transitionTo must be called with the lock held.
func (b *Breaker) transitionTo(next State) {
	prev := b.state
	if prev == next {
		return
	}
	b.state = next
	b.successes = 0
	if next == StateClosed {
		b.failures = 0
		b.probes = 0
	}

	b.logger.Warn("Circuit breaker state changed",
		zap.String("name", b.name),
		zap.String("from", prev.String()),
		zap.String("to", next.String()),
	)
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns circuit breaker statistics
func (b *Breaker) Stats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	return map[string]interface{}{
		"name":      b.name,
		"state":     b.state.String(),
		"failures":  b.failures,
		"threshold": b.config.Threshold,
		"cooldown":  b.config.Cooldown.String(),
	}
}
