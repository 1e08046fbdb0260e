// Package health provides the checks behind the server's liveness and
// readiness probes.
//
//	pm := health.NewProbeManager(version.Version)
//	pm.AddChecker(health.NewSessionCapacityChecker(store, cfg.Server.MaxSessions))
//	result := pm.CheckReadiness(ctx)
package health

import (
	"context"
	"time"
)

// Checker verifies one capability of the running process.
type Checker interface {
	// Name is lowercase with hyphens, e.g. "session-capacity".
	Name() string
	// Check must respect the context deadline.
	Check(ctx context.Context) *Result
}

// Status is a health verdict.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded" // working with reduced headroom
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) String() string { return string(s) }

// Result is the outcome of one check.
type Result struct {
	Status  Status         `json:"status"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Latency time.Duration  `json:"latency_ns"`
}

// NewResult creates a result with the given status and message.
func NewResult(status Status, message string) *Result {
	return &Result{Status: status, Message: message, Details: make(map[string]any)}
}

// WithDetail adds a detail and returns r for chaining.
func (r *Result) WithDetail(key string, value any) *Result {
	r.Details[key] = value
	return r
}

// Healthy creates a healthy result.
func Healthy(message string) *Result { return NewResult(StatusHealthy, message) }

// Degraded creates a degraded result.
func Degraded(message string) *Result { return NewResult(StatusDegraded, message) }

// Unhealthy creates an unhealthy result.
func Unhealthy(message string) *Result { return NewResult(StatusUnhealthy, message) }
