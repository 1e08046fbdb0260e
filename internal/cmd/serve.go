package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/waveplan/internal/health"
	"github.com/felixgeelhaar/waveplan/internal/server"
	"github.com/felixgeelhaar/waveplan/internal/session"
	"github.com/felixgeelhaar/waveplan/internal/version"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the session API",
		Long: `Run the HTTP session API. Orchestrators create a session from a
unit list, dispatch waves and report unit outcomes; every report returns the
next plan version. Sessions live in memory and end with the process.

Probes are served on /health/live and /health/ready, Prometheus metrics on
/metrics. SIGINT or SIGTERM drains in-flight requests before exiting.`,
		Example: `  waveplan serve --addr :8080`,
		RunE: a.instrumented("serve", func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			l, err := net.Listen("tcp", a.cfg.Server.Addr)
			if err != nil {
				return err
			}
			return a.serve(ctx, l)
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

// serve runs the API on l until ctx is done, then shuts down gracefully.
func (a *app) serve(ctx context.Context, l net.Listener) error {
	sc := a.cfg.Server
	store := session.NewStore(a.buildOptions(-1), sc.MaxSessions)
	defer store.Close()

	probes := health.NewProbeManager(version.GetInfo().Version)
	probes.AddChecker(health.NewSessionCapacityChecker(store, sc.MaxSessions))

	srv := server.NewServer(store, probes, server.Config{
		Address:         l.Addr().String(),
		ShutdownTimeout: sc.ShutdownTimeout,
		ReadTimeout:     sc.ReadTimeout,
		WriteTimeout:    sc.WriteTimeout,
		MaxBodyBytes:    sc.MaxBodyBytes,
	}, server.WithLogger(a.logger), server.WithMetrics(a.metrics, a.registry))

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(l) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down", "sessions", store.Len())
	if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
