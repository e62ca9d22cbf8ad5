package monitoring

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthCheck represents a health check result
type HealthCheck struct {
	Name      string        `json:"name"`
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
}

// HealthChecker interface for implementing health checks
type HealthChecker interface {
	Check(ctx context.Context) HealthCheck
}

// CheckFunc adapts a ping-style function to HealthChecker
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) HealthCheck {
	if err := f(ctx); err != nil {
		return HealthCheck{Status: StatusUnhealthy, Message: err.Error()}
	}
	return HealthCheck{Status: StatusHealthy}
}

// HealthCheckManager manages readiness checks for backing services
type HealthCheckManager struct {
	mu      sync.RWMutex
	checks  map[string]HealthChecker
	timeout time.Duration
	logger  *zap.Logger
}

// NewHealthCheckManager creates a new health check manager
func NewHealthCheckManager(logger *zap.Logger) *HealthCheckManager {
	return &HealthCheckManager{
		checks:  make(map[string]HealthChecker),
		timeout: 3 * time.Second,
		logger:  logger.Named("health"),
	}
}

// RegisterCheck registers a health check
func (h *HealthCheckManager) RegisterCheck(name string, checker HealthChecker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = checker
	h.logger.Debug("Health check registered", zap.String("name", name))
}

// CheckAll runs all registered checks concurrently and reports whether all passed
func (h *HealthCheckManager) CheckAll(ctx context.Context) ([]HealthCheck, bool) {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	checkers := make([]HealthChecker, len(names))
	for i, name := range names {
		checkers[i] = h.checks[name]
	}
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	results := make([]HealthCheck, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string, checker HealthChecker) {
			defer wg.Done()
			start := time.Now()
			result := checker.Check(ctx)
			result.Name = name
			result.Timestamp = start.UTC()
			result.Duration = time.Since(start)
			results[i] = result
		}(i, name, checkers[i])
	}
	wg.Wait()

	healthy := true
	for _, result := range results {
		if result.Status != StatusHealthy {
			healthy = false
			h.logger.Warn("Health check failed",
				zap.String("check", result.Name),
				zap.String("message", result.Message),
				zap.Duration("duration", result.Duration),
			)
		}
	}
	return results, healthy
}
