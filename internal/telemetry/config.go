package telemetry

import "fmt"

// Config holds configuration for tracing and OTLP metric export
type Config struct {
	// ServiceName is the name of the service
	ServiceName string `mapstructure:"service_name"`

	// ServiceVersion is the version of the service
	ServiceVersion string `mapstructure:"-"`

	// Environment is the deployment environment (dev, staging, production)
	Environment string `mapstructure:"environment"`

	// Enabled determines whether tracing is enabled.
	// When false, noop providers are installed.
	Enabled bool `mapstructure:"enabled"`

	// Endpoint is the OTLP/HTTP collector host:port. If empty, spans are
	// sampled but not exported.
	Endpoint string `mapstructure:"endpoint"`

	// Insecure disables TLS towards the collector
	Insecure bool `mapstructure:"insecure"`

	// SampleRate is the fraction of traces to sample (0.0 to 1.0)
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DefaultConfig returns tracing disabled, sampling everything once enabled.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "waveplan",
		ServiceVersion: "dev",
		Environment:    "development",
		SampleRate:     1.0,
	}
}

// Validate checks the sample rate and that an enabled config names a service.
func (c Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("telemetry sample rate %v must be within [0, 1]", c.SampleRate)
	}
	if c.Enabled && c.ServiceName == "" {
		return fmt.Errorf("telemetry service name is required when tracing is enabled")
	}
	return nil
}
