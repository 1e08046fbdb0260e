// Package server exposes planning sessions over HTTP.
//
// Besides the session API it serves Kubernetes-style health probes and a
// Prometheus scrape endpoint, and shuts down gracefully: readiness fails
// first, then in-flight requests drain up to the shutdown timeout.
package server

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/waveplan/internal/health"
	"github.com/felixgeelhaar/waveplan/internal/log"
	"github.com/felixgeelhaar/waveplan/internal/metrics"
	"github.com/felixgeelhaar/waveplan/internal/session"
	"github.com/felixgeelhaar/waveplan/internal/telemetry"
)

// Server is the waveplan HTTP API.
type Server struct {
	httpServer      *http.Server
	store           *session.Store
	probes          *health.ProbeManager
	metrics         *metrics.Metrics
	gatherer        prometheus.Gatherer
	logger          *log.Logger
	inShutdown      atomic.Bool
	shutdownTimeout time.Duration
	maxBodyBytes    int64
}

// Config holds server configuration.
type Config struct {
	// Address is the listen address, e.g. ":8080".
	Address string

	// Defaults: 30s shutdown, 10s read, 30s write, 60s idle.
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration

	// MaxBodyBytes caps request bodies. Defaults to 8 MiB.
	MaxBodyBytes int64
}

// Option configures optional server dependencies.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics records request metrics into m and serves gatherer on /metrics.
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// NewServer creates a server for store. probes answers /health/*.
func NewServer(store *session.Store, probes *health.ProbeManager, cfg Config, opts ...Option) *Server {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 8 << 20
	}

	s := &Server{
		store:           store,
		probes:          probes,
		shutdownTimeout: cfg.ShutdownTimeout,
		maxBodyBytes:    cfg.MaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = log.OrDiscard(s.logger)

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	s.handle(mux, "POST /v1/sessions", s.handleCreateSession)
	s.handle(mux, "GET /v1/sessions", s.handleListSessions)
	s.handle(mux, "GET /v1/sessions/{id}", s.handleGetSession)
	s.handle(mux, "DELETE /v1/sessions/{id}", s.handleDeleteSession)
	s.handle(mux, "GET /v1/sessions/{id}/waves/{n}", s.handleGetWave)
	s.handle(mux, "POST /v1/sessions/{id}/waves/{n}/dispatch", s.handleDispatch)
	s.handle(mux, "POST /v1/sessions/{id}/units/{unit}/success", s.handleReport(outcomeSuccess))
	s.handle(mux, "POST /v1/sessions/{id}/units/{unit}/failure", s.handleReport(outcomeFailure))

	mux.HandleFunc("GET /health/live", s.handleLiveness)
	mux.HandleFunc("GET /health/ready", s.handleReadiness)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", metrics.HandlerFor(s.gatherer))
	}
	return mux
}

// handle registers h under pattern, traced and measured under that pattern.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, otelhttp.NewHandler(s.instrument(pattern, h), pattern,
		otelhttp.WithTracerProvider(telemetry.GetTracerProvider()),
		otelhttp.WithMeterProvider(telemetry.GetMeterProvider()),
	))
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		span := trace.SpanFromContext(ctx)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		r.Body = http.MaxBytesReader(rec, r.Body, s.maxBodyBytes)
		h(rec, r)
		elapsed := time.Since(start)

		if s.metrics != nil {
			s.metrics.RecordHTTP(route, rec.code, elapsed)
		}
		telemetry.RecordDuration(span, "http.duration", elapsed)
		s.logger.WithContext(ctx).Debug("http request",
			"route", route,
			"path", r.URL.Path,
			"status", rec.code,
			"duration", elapsed,
		)
	})
}

// Handler returns the server's routing handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens on the configured address and blocks until the server stops.
// It returns http.ErrServerClosed after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on l until the server stops.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("http server listening", "addr", l.Addr().String())
	return s.httpServer.Serve(l)
}

// Shutdown fails readiness, stops accepting keep-alive requests and waits up
// to the shutdown timeout for in-flight requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.inShutdown.Store(true)
	s.probes.MarkShutdown()
	s.httpServer.SetKeepAlivesEnabled(false)

	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// IsShuttingDown reports whether Shutdown was called.
func (s *Server) IsShuttingDown() bool {
	return s.inShutdown.Load()
}
