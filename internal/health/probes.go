package health

import (
	"context"
	"sync/atomic"
	"time"
)

// ProbeManager adds process lifecycle state to a Manager so it can answer
// Kubernetes-style liveness and readiness probes.
type ProbeManager struct {
	*Manager

	startTime  time.Time
	inShutdown atomic.Bool
	version    string
}

// NewProbeManager creates a probe manager reporting version.
func NewProbeManager(version string) *ProbeManager {
	return &ProbeManager{Manager: NewManager(), startTime: time.Now(), version: version}
}

// MarkShutdown makes readiness fail from now on.
func (pm *ProbeManager) MarkShutdown() { pm.inShutdown.Store(true) }

// IsShuttingDown reports whether MarkShutdown was called.
func (pm *ProbeManager) IsShuttingDown() bool { return pm.inShutdown.Load() }

// Uptime returns how long the process has been running.
func (pm *ProbeManager) Uptime() time.Duration { return time.Since(pm.startTime) }

// ProbeResult is the JSON body of a probe response.
type ProbeResult struct {
	Status    Status             `json:"status"`
	Version   string             `json:"version,omitempty"`
	Uptime    string             `json:"uptime,omitempty"`
	Checks    map[string]*Result `json:"checks,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

func (pm *ProbeManager) result(status Status, checks map[string]*Result) *ProbeResult {
	return &ProbeResult{
		Status:    status,
		Version:   pm.version,
		Uptime:    pm.Uptime().Round(time.Second).String(),
		Checks:    checks,
		Timestamp: time.Now().UTC(),
	}
}

// CheckLiveness reports whether the process is responsive. It never runs
// checkers; a draining process is degraded but alive.
func (pm *ProbeManager) CheckLiveness(context.Context) *ProbeResult {
	if pm.IsShuttingDown() {
		return pm.result(StatusDegraded, nil)
	}
	return pm.result(StatusHealthy, nil)
}

// CheckReadiness reports whether the process should receive traffic. It is
// unhealthy while shutting down, otherwise the aggregate of all checkers.
func (pm *ProbeManager) CheckReadiness(ctx context.Context) *ProbeResult {
	if pm.IsShuttingDown() {
		return pm.result(StatusUnhealthy, nil)
	}
	checks := pm.Check(ctx)
	return pm.result(OverallStatus(checks), checks)
}
