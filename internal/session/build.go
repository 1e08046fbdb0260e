package session

import (
	"context"
	"time"

	"github.com/felixgeelhaar/waveplan/internal/graph"
	"github.com/felixgeelhaar/waveplan/internal/log"
	"github.com/felixgeelhaar/waveplan/internal/metrics"
	"github.com/felixgeelhaar/waveplan/internal/plan"
	"github.com/felixgeelhaar/waveplan/internal/quality"
	"github.com/felixgeelhaar/waveplan/internal/registry"
	"github.com/felixgeelhaar/waveplan/internal/scheduler"
	"github.com/felixgeelhaar/waveplan/internal/telemetry"
)

// Options configures plan construction and the session's ambient stack.
type Options struct {
	MaxWaveWidth int
	Quality      quality.Bounds

	// Logger defaults to a discarding logger.
	Logger *log.Logger
	// Metrics is optional.
	Metrics *metrics.Metrics
	// Now defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Quality == (quality.Bounds{}) {
		o.Quality = quality.DefaultBounds()
	}
	o.Logger = log.OrDiscard(o.Logger)
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Build runs the full pipeline: register, build the graph, prove it acyclic,
// schedule and assess quality. On cancellation the partial plan is returned
// alongside the Cancelled error. Construction errors return a nil plan.
func Build(ctx context.Context, units []plan.Unit, opts Options) (*plan.ExecutionPlan, *graph.Checked, error) {
	opts = opts.withDefaults()

	ctx, span := telemetry.StartPlanSpan(ctx, "build", "")
	defer span.End()
	start := time.Now()

	p, checked, err := build(ctx, units, opts)

	elapsed := time.Since(start)
	if opts.Metrics != nil {
		opts.Metrics.RecordBuild(elapsed, p, err)
	}
	status := "failed"
	if p != nil {
		status = string(p.Status)
	}
	telemetry.RecordBuild(ctx, status, elapsed)
	telemetry.RecordPlan(span, p)

	logger := opts.Logger.WithContext(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		logger.WithError(err).Warn("plan build rejected", "units", len(units))
		return p, checked, err
	}

	telemetry.RecordSuccess(span)
	logger.Info("plan built",
		"units", p.Metrics.TotalUnits,
		"waves", p.Metrics.WaveCount,
		"critical_path", p.Metrics.CriticalPathLength,
		"quality_score", p.Metrics.QualityScore,
		"duration", elapsed,
	)
	for _, w := range p.Warnings {
		logger.Warn("plan quality warning", "warning", w)
	}
	return p, checked, nil
}

func build(ctx context.Context, units []plan.Unit, opts Options) (*plan.ExecutionPlan, *graph.Checked, error) {
	reg, err := registry.Register(units)
	if err != nil {
		return nil, nil, err
	}
	checked, err := graph.BuildChecked(reg)
	if err != nil {
		return nil, nil, err
	}

	p, err := scheduler.Schedule(ctx, checked, scheduler.Options{
		MaxWaveWidth: opts.MaxWaveWidth,
		Now:          opts.Now,
	})
	if p != nil {
		quality.Apply(p, opts.Quality)
	}
	return p, checked, err
}
