// Package cmd implements the waveplan command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/waveplan/internal/config"
	"github.com/felixgeelhaar/waveplan/internal/log"
	"github.com/felixgeelhaar/waveplan/internal/metrics"
	"github.com/felixgeelhaar/waveplan/internal/telemetry"
)

// app carries what every command needs once the root pre-run has loaded
// configuration and set up observability.
type app struct {
	cfgFile   string
	logLevel  string
	logFormat string

	cfg      *config.Config
	logger   *log.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	cleanup  func()
}

// NewRootCommand builds the waveplan command tree.
func NewRootCommand() *cobra.Command {
	a := &app{cleanup: func() {}}

	root := &cobra.Command{
		Use:   "waveplan",
		Short: "Dependency-aware wave scheduling for parallel work",
		Long: `waveplan turns a set of work units and their prerequisites into an
execution plan of waves: every unit in a wave may run in parallel, and each
wave only starts once the waves before it are done. Execution feedback
replans the remaining work without rebuilding the schedule.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { a.cleanup() },
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default ./waveplan.yaml or $HOME/.waveplan/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		newPlanCmd(a),
		newValidateCmd(a),
		newReplanCmd(a),
		newDiffCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

// ExecuteContext runs the CLI with os.Args under ctx.
func ExecuteContext(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// setup loads configuration, applies flag overrides and installs logging,
// metrics and telemetry.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.logger = logger
	log.SetDefaultLogger(logger)

	a.registry, a.metrics = metrics.NewRegistry()
	a.cleanup = setupTelemetry(cmd.Context(), cfg.Telemetry, logger)
	return nil
}

func newLogger(cfg config.LogConfig, w io.Writer) (*log.Logger, error) {
	lc, err := log.ConfigFromStrings(cfg.Level, cfg.Format, w)
	if err != nil {
		return nil, err
	}
	lc.ServiceName = "waveplan"
	return log.New(lc), nil
}

// instrumented wraps a command body with a command span, a metric sample and
// a completion log line.
func (a *app) instrumented(name string, fn func(ctx context.Context, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, span := telemetry.StartCommandSpan(cmd.Context(), name)
		defer span.End()

		start := time.Now()
		err := fn(ctx, cmd, args)
		elapsed := time.Since(start)

		a.metrics.RecordCommand(name, elapsed, err == nil)
		telemetry.RecordDuration(span, "command.duration", elapsed)
		if err != nil {
			telemetry.RecordError(span, err)
			a.metrics.RecordError(err)
			a.logger.WithContext(ctx).WithError(err).Debug("command failed", "command", name, "duration", elapsed)
			return err
		}
		telemetry.RecordSuccess(span)
		a.logger.WithContext(ctx).Debug("command finished", "command", name, "duration", elapsed)
		return nil
	}
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
