package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/waveplan/internal/errors"
	"github.com/felixgeelhaar/waveplan/internal/plan"
)

// StartCommandSpan creates a span for a CLI command execution.
//
// Usage:
//
//	ctx, span := telemetry.StartCommandSpan(ctx, "plan")
//	defer span.End()
func StartCommandSpan(ctx context.Context, cmdName string) (context.Context, trace.Span) {
	tracer := GetTracerProvider().Tracer("commands")
	ctx, span := tracer.Start(ctx, "command."+cmdName)

	span.SetAttributes(
		attribute.String("command", cmdName),
		attribute.String("component", "cli"),
	)

	return ctx, span
}

// StartPlanSpan creates a span for a planning operation such as "build",
// "report_failure" or "dispatch".
func StartPlanSpan(ctx context.Context, operation, sessionID string) (context.Context, trace.Span) {
	tracer := GetTracerProvider().Tracer("planner")
	ctx, span := tracer.Start(ctx, "plan."+operation)

	span.SetAttributes(
		attribute.String("operation", operation),
		attribute.String("component", "planner"),
	)
	if sessionID != "" {
		span.SetAttributes(attribute.String("session.id", sessionID))
	}

	return ctx, span
}

// RecordPlan attaches a plan version's summary to span.
func RecordPlan(span trace.Span, p *plan.ExecutionPlan) {
	if p == nil {
		return
	}
	span.SetAttributes(
		attribute.Int("plan.version", p.Version),
		attribute.String("plan.status", string(p.Status)),
		attribute.Int("plan.units", p.Metrics.TotalUnits),
		attribute.Int("plan.waves", p.Metrics.WaveCount),
		attribute.Float64("plan.quality_score", p.Metrics.QualityScore),
	)
}

// RecordSuccess marks a span as successful with optional result attributes.
func RecordSuccess(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	span.SetStatus(codes.Ok, "")
}

// RecordError records an error in a span and sets error status. Plan errors
// add their kind and code.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.Bool("error", true))

	if pe, ok := errors.As(err); ok {
		span.SetAttributes(
			attribute.String("error.kind", string(pe.Kind)),
			attribute.String("error.code", string(pe.Code)),
		)
	}
}

// RecordDuration records the duration of an operation as a span attribute.
func RecordDuration(span trace.Span, name string, duration time.Duration) {
	span.SetAttributes(
		attribute.Int64(name+"_ms", duration.Milliseconds()),
	)
}
