package health

import (
	"context"
	"sync"
	"time"
)

// Manager runs registered checkers in parallel, each under its own timeout.
type Manager struct {
	mu       sync.RWMutex
	checkers []Checker
	timeout  time.Duration
}

// NewManager creates a manager with a 5 second per-check timeout.
func NewManager() *Manager {
	return &Manager{timeout: 5 * time.Second}
}

// WithTimeout sets the per-check timeout.
func (m *Manager) WithTimeout(timeout time.Duration) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return m
}

// AddChecker registers a checker.
func (m *Manager) AddChecker(c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, c)
}

// Check runs every checker and returns the results by name.
func (m *Manager) Check(ctx context.Context) map[string]*Result {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	timeout := m.timeout
	m.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]*Result, len(checkers))
	)
	for _, c := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			r := c.Check(checkCtx)
			if r.Latency == 0 {
				r.Latency = time.Since(start)
			}

			mu.Lock()
			results[c.Name()] = r
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	return results
}

// OverallStatus folds results into one status: any unhealthy wins, then any
// degraded. No results is healthy.
func OverallStatus(results map[string]*Result) Status {
	status := StatusHealthy
	for _, r := range results {
		switch r.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// Count returns the number of registered checkers.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.checkers)
}
