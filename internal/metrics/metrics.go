package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/felixgeelhaar/waveplan/internal/errors"
	"github.com/felixgeelhaar/waveplan/internal/plan"
)

// Metrics holds all Prometheus metrics for waveplan
type Metrics struct {
	// Command execution metrics
	CommandExecutions *prometheus.CounterVec
	CommandDuration   *prometheus.HistogramVec

	// Plan construction metrics
	PlanBuilds        *prometheus.CounterVec
	PlanBuildDuration prometheus.Histogram
	PlanUnitCount     prometheus.Histogram
	PlanWaveCount     prometheus.Histogram
	PlanQualityScore  prometheus.Histogram
	BuildErrors       *prometheus.CounterVec

	// Replan metrics
	Replans        *prometheus.CounterVec
	ReplanDuration *prometheus.HistogramVec
	BlockedUnits   prometheus.Counter

	// Session metrics
	ActiveSessions prometheus.Gauge

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		CommandExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waveplan_command_executions_total",
				Help: "Total number of CLI command executions",
			},
			[]string{"command", "success"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "waveplan_command_duration_seconds",
				Help:    "CLI command duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),

		PlanBuilds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waveplan_plan_builds_total",
				Help: "Total number of plan builds by resulting status",
			},
			[]string{"status"},
		),
		PlanBuildDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "waveplan_plan_build_duration_seconds",
				Help:    "Plan construction duration in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		PlanUnitCount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "waveplan_plan_units",
				Help:    "Number of units in built plans",
				Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
			},
		),
		PlanWaveCount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "waveplan_plan_waves",
				Help:    "Number of waves in built plans",
				Buckets: []float64{1, 2, 3, 5, 10, 20, 50},
			},
		),
		PlanQualityScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "waveplan_plan_quality_score",
				Help:    "Quality score of built plans",
				Buckets: []float64{0.5, 0.7, 0.8, 0.85, 0.9, 0.95, 1},
			},
		),
		BuildErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waveplan_build_errors_total",
				Help: "Total number of rejected plan builds by error kind",
			},
			[]string{"kind"},
		),

		Replans: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waveplan_replans_total",
				Help: "Total number of replan steps by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		ReplanDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "waveplan_replan_duration_seconds",
				Help:    "Replan step duration in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"operation"},
		),
		BlockedUnits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "waveplan_blocked_units_total",
				Help: "Total number of units blocked by failure cascades",
			},
		),

		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "waveplan_active_sessions",
				Help: "Number of live planning sessions",
			},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waveplan_http_requests_total",
				Help: "Total number of HTTP API requests",
			},
			[]string{"route", "code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "waveplan_http_request_duration_seconds",
				Help:    "HTTP API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waveplan_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code"},
		),
	}
}

// RecordCommand records a CLI command execution
func (m *Metrics) RecordCommand(command string, duration time.Duration, success bool) {
	m.CommandExecutions.WithLabelValues(command, strconv.FormatBool(success)).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordBuild records one plan construction. p may be a partial plan when
// err is a cancellation.
func (m *Metrics) RecordBuild(duration time.Duration, p *plan.ExecutionPlan, err error) {
	m.PlanBuildDuration.Observe(duration.Seconds())
	if err != nil {
		m.BuildErrors.WithLabelValues(string(errors.KindOf(err))).Inc()
		m.RecordError(err)
		if p == nil {
			m.PlanBuilds.WithLabelValues("failed").Inc()
			return
		}
	}

	m.PlanBuilds.WithLabelValues(string(p.Status)).Inc()
	m.PlanUnitCount.Observe(float64(p.Metrics.TotalUnits))
	m.PlanWaveCount.Observe(float64(p.Metrics.WaveCount))
	m.PlanQualityScore.Observe(p.Metrics.QualityScore)
}

// RecordReplan records one replan step
func (m *Metrics) RecordReplan(operation string, duration time.Duration, blocked int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(errors.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
		m.RecordError(err)
	}
	m.Replans.WithLabelValues(operation, outcome).Inc()
	m.ReplanDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if blocked > 0 {
		m.BlockedUnits.Add(float64(blocked))
	}
}

// RecordHTTP records one API request
func (m *Metrics) RecordHTTP(route string, code int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordError records an error by its structured code, or "unknown"
func (m *Metrics) RecordError(err error) {
	if err == nil {
		return
	}
	code := "unknown"
	if pe, ok := errors.As(err); ok && pe.Code != "" {
		code = string(pe.Code)
	}
	m.Errors.WithLabelValues(code).Inc()
}
