package telemetry

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	globalProvider      trace.TracerProvider
	globalMeterProvider metric.MeterProvider
	globalShutdown      func(context.Context) error
	providerMu          sync.RWMutex
)

// breakerExporter stops handing batches to the collector after repeated
// failures and retries after a cool-down. The OTLP client already retries
// individual requests.
type breakerExporter struct {
	sdktrace.SpanExporter

	mu        sync.Mutex
	failures  int
	openUntil time.Time
	threshold int
	cooldown  time.Duration
	now       func() time.Time
}

var errBreakerOpen = stderrors.New("span export suspended after repeated failures")

func newBreakerExporter(exp sdktrace.SpanExporter) *breakerExporter {
	return &breakerExporter{SpanExporter: exp, threshold: 5, cooldown: 30 * time.Second, now: time.Now}
}

func (b *breakerExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	b.mu.Lock()
	if b.now().Before(b.openUntil) {
		b.mu.Unlock()
		return errBreakerOpen
	}
	b.mu.Unlock()

	err := b.SpanExporter.ExportSpans(ctx, spans)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures = 0
		return nil
	}
	b.failures++
	if b.failures >= b.threshold {
		b.openUntil = b.now().Add(b.cooldown)
		b.failures = 0
	}
	return err
}

func createResource(cfg Config) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
}

// InitProvider installs the global tracer and meter providers. With tracing
// disabled both are noops. With an endpoint, spans and metrics (including Go
// runtime metrics) are pushed over OTLP/HTTP.
func InitProvider(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	providerMu.Lock()
	defer providerMu.Unlock()

	if !cfg.Enabled {
		globalProvider = noop.NewTracerProvider()
		globalMeterProvider = metricnoop.NewMeterProvider()
		globalShutdown = func(context.Context) error { return nil }
		otel.SetTracerProvider(globalProvider)
		resetInstruments()
		return globalShutdown, nil
	}

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	}
	meterOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if cfg.Endpoint != "" {
		spanOpts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(cfg.Endpoint),
			otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
			otlptracehttp.WithRetry(otlptracehttp.RetryConfig{
				Enabled:         true,
				InitialInterval: 100 * time.Millisecond,
				MaxInterval:     2 * time.Second,
				MaxElapsedTime:  10 * time.Second,
			}),
		}
		metricOpts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(cfg.Endpoint),
			otlpmetrichttp.WithCompression(otlpmetrichttp.GzipCompression),
		}
		if cfg.Insecure {
			spanOpts = append(spanOpts, otlptracehttp.WithInsecure())
			metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
		}

		spanExp, err := otlptracehttp.New(ctx, spanOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
		metricExp, err := otlpmetrichttp.New(ctx, metricOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
		}

		traceOpts = append(traceOpts, sdktrace.WithBatcher(
			newBreakerExporter(spanExp),
			sdktrace.WithBatchTimeout(5*time.Second),
			sdktrace.WithMaxExportBatchSize(512),
		))
		meterOpts = append(meterOpts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(15*time.Second)),
		))
	}

	tp := sdktrace.NewTracerProvider(traceOpts...)
	mp := sdkmetric.NewMeterProvider(meterOpts...)

	globalProvider = tp
	globalMeterProvider = mp
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	resetInstruments()

	if err := runtime.Start(
		runtime.WithMeterProvider(mp),
		runtime.WithMinimumReadMemStatsInterval(time.Second),
	); err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, fmt.Errorf("failed to start runtime instrumentation: %w", err)
	}

	globalShutdown = func(shutdownCtx context.Context) error {
		return stderrors.Join(tp.Shutdown(shutdownCtx), mp.Shutdown(shutdownCtx))
	}
	return globalShutdown, nil
}

// Shutdown flushes and stops the installed providers
func Shutdown(ctx context.Context) error {
	providerMu.RLock()
	shutdown := globalShutdown
	providerMu.RUnlock()

	if shutdown != nil {
		return shutdown(ctx)
	}
	return nil
}

// ForceFlush forces all pending spans to be exported
func ForceFlush(ctx context.Context) error {
	providerMu.RLock()
	provider := globalProvider
	providerMu.RUnlock()

	if tp, ok := provider.(*sdktrace.TracerProvider); ok {
		return tp.ForceFlush(ctx)
	}
	return nil
}

// GetTracerProvider returns the installed tracer provider, or a noop one
func GetTracerProvider() trace.TracerProvider {
	providerMu.RLock()
	defer providerMu.RUnlock()

	if globalProvider != nil {
		return globalProvider
	}
	return noop.NewTracerProvider()
}

// GetMeterProvider returns the installed meter provider, or a noop one
func GetMeterProvider() metric.MeterProvider {
	providerMu.RLock()
	defer providerMu.RUnlock()

	if globalMeterProvider != nil {
		return globalMeterProvider
	}
	return metricnoop.NewMeterProvider()
}

// SetProviders installs explicit providers. Tests use it with in-memory
// exporters and manual readers.
func SetProviders(tp trace.TracerProvider, mp metric.MeterProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	globalProvider = tp
	globalMeterProvider = mp
	resetInstruments()
}
