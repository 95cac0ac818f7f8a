package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ms"`
	Timestamp time.Time     `json:"timestamp"`
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// ReadyResponse represents the readiness response
type ReadyResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Checker defines a health check function
type Checker func(ctx context.Context) CheckResult

// Service handles health checks. Dependencies register themselves via
// RegisterPing; the service itself knows nothing about what it checks.
type Service struct {
	startTime time.Time
	version   string
	checkers  map[string]Checker
	log       *zap.Logger
	mu        sync.RWMutex
}

// NewService creates a new health service
func NewService(version string, log *zap.Logger) *Service {
	return &Service{
		startTime: time.Now(),
		version:   version,
		checkers:  make(map[string]Checker),
		log:       log,
	}
}

// RegisterChecker registers a custom health checker
func (s *Service) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
	s.log.Info("Registered health checker", zap.String("name", name))
}

// RegisterPing wraps a plain ping function as a checker.
func (s *Service) RegisterPing(name string, ping func(ctx context.Context) error) {
	s.RegisterChecker(name, func(ctx context.Context) CheckResult {
		start := time.Now()
		result := CheckResult{
			Name:      name,
			Timestamp: time.Now(),
		}

		err := ping(ctx)
		result.Duration = time.Since(start)

		if err != nil {
			result.Status = StatusUnhealthy
			result.Message = fmt.Sprintf("ping failed: %v", err)
			s.log.Warn("Health check failed",
				zap.String("name", name),
				zap.Error(err),
			)
		} else {
			result.Status = StatusHealthy
			result.Message = "connection ok"
		}

		return result
	})
}

// Health performs a basic liveness check
func (s *Service) Health(ctx context.Context) *HealthResponse {
	return &HealthResponse{
		Status:    StatusHealthy,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now(),
	}
}

// Ready performs a comprehensive readiness check
func (s *Service) Ready(ctx context.Context) *ReadyResponse {
	s.mu.RLock()
	checkers := make(map[string]Checker, len(s.checkers))
	for k, v := range s.checkers {
		checkers[k] = v
	}
	s.mu.RUnlock()

	// Run all checks concurrently
	results := make(map[string]CheckResult)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			result := checker(checkCtx)

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checker)
	}

	wg.Wait()

	// Determine overall status
	overallStatus := StatusHealthy
	allReady := true

	for _, result := range results {
		if result.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
			allReady = false
		} else if result.Status == StatusDegraded && overallStatus != StatusUnhealthy {
			overallStatus = StatusDegraded
		}
	}

	return &ReadyResponse{
		Ready:     allReady,
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    results,
	}
}
