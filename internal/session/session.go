// Package session owns one planning session: its graph, its current plan
// version and the single-writer replan loop around it.
package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/waveplan/internal/errors"
	"github.com/felixgeelhaar/waveplan/internal/graph"
	"github.com/felixgeelhaar/waveplan/internal/log"
	"github.com/felixgeelhaar/waveplan/internal/metrics"
	"github.com/felixgeelhaar/waveplan/internal/plan"
	"github.com/felixgeelhaar/waveplan/internal/replan"
	"github.com/felixgeelhaar/waveplan/internal/telemetry"
)

// ErrWaveNotFound is returned for a wave index outside the plan.
var ErrWaveNotFound = stderrors.New("wave not found")

// Session is a live planning session. Reads return the current immutable plan
// version without locking; feedback is applied one report at a time.
type Session struct {
	id        string
	createdAt time.Time
	checked   *graph.Checked
	coord     *replan.Coordinator

	current atomic.Pointer[plan.ExecutionPlan]
	mu      sync.Mutex // serialises replans

	ctx    context.Context
	cancel context.CancelFunc

	logger  *log.Logger
	metrics *metrics.Metrics
}

// New builds a plan for units and opens a session around it. The session
// outlives ctx; only ctx's values are kept, and Cancel ends it.
func New(ctx context.Context, units []plan.Unit, opts Options) (*Session, error) {
	opts = opts.withDefaults()
	id := uuid.NewString()
	opts.Logger = opts.Logger.WithSession(id)

	p, checked, err := Build(ctx, units, opts)
	if err != nil {
		return nil, err
	}
	p.SessionID = id

	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Session{
		id:        id,
		createdAt: opts.Now().UTC(),
		checked:   checked,
		coord:     replan.New(checked, replan.WithClock(opts.Now)),
		ctx:       sctx,
		cancel:    cancel,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
	s.current.Store(p)
	return s, nil
}

// ID returns the session's UUID.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session was opened.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Graph returns the checked dependency graph.
func (s *Session) Graph() *graph.Graph { return s.checked.Graph() }

// Plan returns the current plan version.
func (s *Session) Plan() *plan.ExecutionPlan { return s.current.Load() }

// Wave returns wave n of the current version.
func (s *Session) Wave(n int) (plan.Wave, error) {
	w, ok := s.Plan().Wave(n)
	if !ok {
		return plan.Wave{}, fmt.Errorf("%w: %d", ErrWaveNotFound, n)
	}
	return w, nil
}

// Ready returns the units that may start now.
func (s *Session) Ready() []string { return s.Plan().Ready() }

// Cancelled reports whether Cancel was called.
func (s *Session) Cancelled() bool { return s.ctx.Err() != nil }

// Cancel ends the session. The current plan is republished with status
// cancelled and every later replan returns a Cancelled error.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}
	s.cancel()

	p := s.Plan().Clone()
	p.Status = plan.StatusCancelled
	s.current.Store(p)
	s.logger.Info("session cancelled", "version", p.Version)
}

// ReportSuccess marks a unit completed.
func (s *Session) ReportSuccess(ctx context.Context, id string) (*replan.Result, error) {
	return s.apply(ctx, "report_success", func(ctx context.Context, p *plan.ExecutionPlan) (*replan.Result, error) {
		return s.coord.ReportSuccess(ctx, p, id)
	}, attribute.String("unit.id", id))
}

// ReportFailure marks a unit failed and blocks everything downstream of it.
func (s *Session) ReportFailure(ctx context.Context, id string) (*replan.Result, error) {
	return s.apply(ctx, "report_failure", func(ctx context.Context, p *plan.ExecutionPlan) (*replan.Result, error) {
		return s.coord.ReportFailure(ctx, p, id)
	}, attribute.String("unit.id", id))
}

// Dispatch marks the ready pending units of wave n scheduled and returns
// them. Units whose prerequisites are still running are left pending. A
// wave with nothing to dispatch returns the current plan unchanged.
func (s *Session) Dispatch(ctx context.Context, n int) ([]string, *plan.ExecutionPlan, error) {
	var ids []string
	res, err := s.apply(ctx, "dispatch", func(ctx context.Context, p *plan.ExecutionPlan) (*replan.Result, error) {
		if err := ctx.Err(); err != nil {
			return &replan.Result{Plan: p}, errors.NewCancelledError(err)
		}
		w, ok := p.Wave(n)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrWaveNotFound, n)
		}
		ready := make(map[string]bool)
		for _, id := range p.Ready() {
			ready[id] = true
		}
		for _, id := range w.Units {
			if ready[id] {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return &replan.Result{Plan: p, Exhausted: !p.HasRemainingWork()}, nil
		}
		return s.coord.MarkScheduled(ctx, p, ids)
	}, attribute.Int("wave", n))
	if err != nil {
		return nil, s.Plan(), err
	}
	return ids, res.Plan, nil
}

type step func(ctx context.Context, p *plan.ExecutionPlan) (*replan.Result, error)

// apply runs one replan step under the writer lock and publishes its result.
func (s *Session) apply(ctx context.Context, op string, fn step, attrs ...attribute.KeyValue) (*replan.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := telemetry.StartPlanSpan(ctx, op, s.id)
	defer span.End()
	span.SetAttributes(attrs...)
	start := time.Now()

	// A cancelled session wins over a live request context.
	stepCtx := ctx
	if s.ctx.Err() != nil {
		stepCtx = s.ctx
	}

	prev := s.Plan()
	res, err := fn(stepCtx, prev)
	if err == nil && res.Plan != prev {
		s.current.Store(res.Plan)
	}

	blocked := 0
	if res != nil {
		blocked = len(res.Blocked)
	}
	s.record(ctx, op, time.Since(start), blocked, err)

	logger := s.logger.WithContext(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		logger.WithError(err).Warn("replan rejected", "operation", op, "version", prev.Version)
		return res, err
	}

	telemetry.RecordPlan(span, res.Plan)
	telemetry.RecordSuccess(span, attribute.Int("blocked", blocked))
	logger.Info("replanned",
		"operation", op,
		"version", res.Plan.Version,
		"blocked", res.Blocked,
		"changed_waves", res.ChangedWaves,
		"exhausted", res.Exhausted,
	)
	return res, nil
}

func (s *Session) record(ctx context.Context, op string, d time.Duration, blocked int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(errors.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	telemetry.RecordReplan(ctx, op, outcome, blocked)
	if s.metrics != nil {
		s.metrics.RecordReplan(op, d, blocked, err)
	}
}
