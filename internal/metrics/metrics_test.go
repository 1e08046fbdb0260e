package metrics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/felixgeelhaar/waveplan/internal/errors"
	"github.com/felixgeelhaar/waveplan/internal/plan"
)

func TestRecordCommand(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordCommand("plan", 100*time.Millisecond, true)
	m.RecordCommand("plan", 50*time.Millisecond, false)

	if got := testutil.ToFloat64(m.CommandExecutions.WithLabelValues("plan", "true")); got != 1 {
		t.Errorf("successful executions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CommandExecutions.WithLabelValues("plan", "false")); got != 1 {
		t.Errorf("failed executions = %v, want 1", got)
	}
}

func TestRecordBuild(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	p := &plan.ExecutionPlan{Status: plan.StatusReady}
	p.Metrics.TotalUnits = 4
	p.Metrics.WaveCount = 3
	p.Metrics.QualityScore = 1
	m.RecordBuild(time.Millisecond, p, nil)

	m.RecordBuild(time.Millisecond, nil, errors.NewCycleError([]string{"A"}))

	cancelled := &plan.ExecutionPlan{Status: plan.StatusCancelled}
	m.RecordBuild(time.Millisecond, cancelled, errors.NewCancelledError(context.Canceled))

	if got := testutil.ToFloat64(m.PlanBuilds.WithLabelValues("ready")); got != 1 {
		t.Errorf("ready builds = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.PlanBuilds.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed builds = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.PlanBuilds.WithLabelValues("cancelled")); got != 1 {
		t.Errorf("cancelled builds = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.BuildErrors.WithLabelValues("Cycle")); got != 1 {
		t.Errorf("cycle errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Errors.WithLabelValues(string(errors.ErrCodeCycle))); got != 1 {
		t.Errorf("error code counter = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.PlanBuildDuration); got != 1 {
		t.Errorf("duration histogram count = %v, want 1", got)
	}
}

func TestRecordReplan(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordReplan("failure", time.Microsecond, 2, nil)
	m.RecordReplan("success", time.Microsecond, 0, errors.NewUnknownUnitError("Q"))
	m.RecordReplan("success", time.Microsecond, 0, fmt.Errorf("boom"))

	if got := testutil.ToFloat64(m.Replans.WithLabelValues("failure", "ok")); got != 1 {
		t.Errorf("ok failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Replans.WithLabelValues("success", "UnknownUnit")); got != 1 {
		t.Errorf("unknown unit = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Replans.WithLabelValues("success", "error")); got != 1 {
		t.Errorf("plain error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.BlockedUnits); got != 2 {
		t.Errorf("blocked units = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Errors.WithLabelValues("unknown")); got != 1 {
		t.Errorf("unknown code errors = %v, want 1", got)
	}
}

func TestRecordHTTP(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordHTTP("POST /v1/sessions", 201, 5*time.Millisecond)

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST /v1/sessions", "201")); got != 1 {
		t.Errorf("http requests = %v, want 1", got)
	}
}

func TestRecordError_Nil(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordError(nil)
	if got := testutil.CollectAndCount(m.Errors); got != 0 {
		t.Errorf("nil error should not be counted, got %d series", got)
	}
}
