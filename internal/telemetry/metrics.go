// Package telemetry wires OpenTelemetry tracing and OTLP metric export.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/felixgeelhaar/waveplan"

// Instruments are the OTel counterparts of the Prometheus metrics, pushed to
// the collector when an endpoint is configured.
type Instruments struct {
	PlanBuilds    metric.Int64Counter
	BuildDuration metric.Float64Histogram
	Replans       metric.Int64Counter
	BlockedUnits  metric.Int64Counter
}

var (
	instruments   *Instruments
	instrumentsMu sync.Mutex
)

func resetInstruments() {
	instrumentsMu.Lock()
	instruments = nil
	instrumentsMu.Unlock()
}

func newInstruments(meter metric.Meter) (*Instruments, error) {
	var (
		in  Instruments
		err error
	)
	if in.PlanBuilds, err = meter.Int64Counter(
		"waveplan.plan.builds",
		metric.WithDescription("Plan builds by resulting status"),
		metric.WithUnit("{build}"),
	); err != nil {
		return nil, err
	}
	if in.BuildDuration, err = meter.Float64Histogram(
		"waveplan.plan.build.duration",
		metric.WithDescription("Plan construction duration"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if in.Replans, err = meter.Int64Counter(
		"waveplan.replans",
		metric.WithDescription("Replan steps by operation and outcome"),
		metric.WithUnit("{replan}"),
	); err != nil {
		return nil, err
	}
	if in.BlockedUnits, err = meter.Int64Counter(
		"waveplan.units.blocked",
		metric.WithDescription("Units blocked by failure cascades"),
		metric.WithUnit("{unit}"),
	); err != nil {
		return nil, err
	}
	return &in, nil
}

// GetInstruments returns instruments bound to the current meter provider.
// Instrument creation only fails on invalid names, so a failure leaves nil
// and the Record helpers become no-ops.
func GetInstruments() *Instruments {
	instrumentsMu.Lock()
	defer instrumentsMu.Unlock()

	if instruments == nil {
		in, err := newInstruments(GetMeterProvider().Meter(instrumentationName))
		if err != nil {
			return nil
		}
		instruments = in
	}
	return instruments
}

// RecordBuild records one plan construction
func RecordBuild(ctx context.Context, status string, duration time.Duration) {
	in := GetInstruments()
	if in == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	in.PlanBuilds.Add(ctx, 1, attrs)
	in.BuildDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordReplan records one replan step
func RecordReplan(ctx context.Context, operation, outcome string, blocked int) {
	in := GetInstruments()
	if in == nil {
		return
	}
	in.Replans.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
	if blocked > 0 {
		in.BlockedUnits.Add(ctx, int64(blocked))
	}
}
