package cmd

import (
	"context"
	"time"

	"github.com/felixgeelhaar/waveplan/internal/log"
	"github.com/felixgeelhaar/waveplan/internal/telemetry"
	"github.com/felixgeelhaar/waveplan/internal/version"
)

// setupTelemetry installs the OpenTelemetry providers and returns a function
// that flushes them. A failure leaves telemetry off and is only logged.
func setupTelemetry(ctx context.Context, cfg telemetry.Config, logger *log.Logger) func() {
	cfg.ServiceVersion = version.GetInfo().Version

	shutdown, err := telemetry.InitProvider(ctx, cfg)
	if err != nil {
		logger.WithError(err).Warn("failed to initialize telemetry")
		return func() {}
	}
	if cfg.Enabled {
		logger.Debug("telemetry enabled", "endpoint", cfg.Endpoint, "sample_rate", cfg.SampleRate)
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if err := shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("failed to flush telemetry")
		}
	}
}
