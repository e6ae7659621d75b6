package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status represents health check status
type Status int

const (
	StatusUnknown Status = iota
	StatusHealthy
	StatusUnhealthy
	StatusDisabled
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	case StatusDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// CheckResult represents the result of a health check
type CheckResult struct {
	Name         string
	Critical     bool
	Status       Status
	Latency      time.Duration
	LastCheck    time.Time
	LastError    error
	CheckCount   int
	FailureCount int
}

// Checker interface for health checks
type Checker interface {
	Check(ctx context.Context) CheckResult
}

// PingChecker reports a dependency healthy when Ping succeeds. A nil Ping
// means the dependency is switched off.
type PingChecker struct {
	Ping func(ctx context.Context) error
}

// Check performs the ping
func (c *PingChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{LastCheck: start}

	if c.Ping == nil {
		result.Status = StatusDisabled
		return result
	}

	err := c.Ping(ctx)
	result.Latency = time.Since(start)
	if err != nil {
		result.Status = StatusUnhealthy
		result.LastError = err
		return result
	}

	result.Status = StatusHealthy
	return result
}

type registration struct {
	checker  Checker
	critical bool
}

// Monitor runs named checks on demand and on an interval. Only critical
// checks decide overall health.
type Monitor struct {
	mu       sync.RWMutex
	checkers map[string]registration
	results  map[string]*CheckResult
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

// NewMonitor creates a new health monitor
func NewMonitor(interval time.Duration, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Monitor{
		checkers: make(map[string]registration),
		results:  make(map[string]*CheckResult),
		interval: interval,
		timeout:  5 * time.Second,
		logger:   logger,
	}
}

// Register adds a named checker. Registering a name again replaces it.
func (m *Monitor) Register(name string, checker Checker, critical bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkers[name] = registration{checker: checker, critical: critical}

	m.logger.Info("Registered health checker",
		zap.String("name", name),
		zap.Bool("critical", critical),
	)
}

// Run checks every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Run initial checks
	m.CheckAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.CheckAll(ctx)
		}
	}
}

// CheckAll runs every registered check now and returns the results sorted
// by name.
func (m *Monitor) CheckAll(ctx context.Context) []CheckResult {
	m.mu.RLock()
	checkers := make(map[string]registration, len(m.checkers))
	for name, reg := range m.checkers {
		checkers[name] = reg
	}
	m.mu.RUnlock()

	out := make([]CheckResult, 0, len(checkers))
	for name, reg := range checkers {
		checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
		result := reg.checker.Check(checkCtx)
		cancel()

		result.Name = name
		result.Critical = reg.critical

		m.mu.Lock()
		if existing, ok := m.results[name]; ok {
			result.CheckCount = existing.CheckCount + 1
			result.FailureCount = existing.FailureCount
		} else {
			result.CheckCount = 1
		}
		if result.Status == StatusUnhealthy {
			result.FailureCount++
		}
		stored := result
		m.results[name] = &stored
		m.mu.Unlock()

		if result.Status == StatusUnhealthy {
			m.logger.Warn("Health check failed",
				zap.String("name", name),
				zap.Bool("critical", reg.critical),
				zap.Duration("latency", result.Latency),
				zap.Error(result.LastError),
			)
		}

		out = append(out, result)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Healthy reports whether no critical check in results failed.
func Healthy(results []CheckResult) bool {
	for _, r := range results {
		if r.Critical && r.Status != StatusHealthy {
			return false
		}
	}
	return true
}

// GetResult gets the last result for a check
func (m *Monitor) GetResult(name string) (*CheckResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result, exists := m.results[name]
	if !exists {
		return nil, false
	}
	resultCopy := *result
	return &resultCopy, true
}
