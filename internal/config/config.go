// Package config loads waveplan configuration from defaults, an optional
// YAML file and WAVEPLAN_* environment variables, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/felixgeelhaar/waveplan/internal/log"
	"github.com/felixgeelhaar/waveplan/internal/quality"
	"github.com/felixgeelhaar/waveplan/internal/telemetry"
)

// EnvPrefix prefixes every environment override, e.g.
// WAVEPLAN_SCHEDULER_MAX_WAVE_WIDTH.
const EnvPrefix = "WAVEPLAN"

// Config holds the application configuration.
type Config struct {
	Scheduler SchedulerConfig  `mapstructure:"scheduler"`
	Quality   quality.Bounds   `mapstructure:"quality"`
	Log       LogConfig        `mapstructure:"log"`
	Telemetry telemetry.Config `mapstructure:"telemetry"`
	Server    ServerConfig     `mapstructure:"server"`
}

// SchedulerConfig tunes wave construction.
type SchedulerConfig struct {
	MaxWaveWidth int `mapstructure:"max_wave_width"`
}

// LogConfig selects log level and format.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds the feedback API settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxSessions     int           `mapstructure:"max_sessions"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads configuration. An explicit path must exist; otherwise
// ./waveplan.yaml and $HOME/.waveplan/config.yaml are tried and a missing
// file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath == "" {
		configPath = discover()
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// discover returns the first existing default config file, or "".
func discover() string {
	candidates := []string{"waveplan.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".waveplan", "config.yaml"))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	q := quality.DefaultBounds()
	t := telemetry.DefaultConfig()

	v.SetDefault("scheduler.max_wave_width", 0)

	v.SetDefault("quality.complexity_min", q.ComplexityMin)
	v.SetDefault("quality.complexity_max", q.ComplexityMax)
	v.SetDefault("quality.size_min", q.SizeMin)
	v.SetDefault("quality.size_max", q.SizeMax)
	v.SetDefault("quality.threshold", q.Threshold)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", t.ServiceName)
	v.SetDefault("telemetry.environment", t.Environment)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("telemetry.sample_rate", t.SampleRate)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.max_sessions", 1024)
	v.SetDefault("server.max_body_bytes", int64(8<<20))
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c.Scheduler.MaxWaveWidth < 0 {
		return fmt.Errorf("scheduler.max_wave_width must be >= 0, got %d", c.Scheduler.MaxWaveWidth)
	}
	if err := c.Quality.Validate(); err != nil {
		return fmt.Errorf("quality: %w", err)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if _, err := log.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if c.Server.MaxSessions < 0 {
		return fmt.Errorf("server.max_sessions must be >= 0, got %d", c.Server.MaxSessions)
	}
	return nil
}
