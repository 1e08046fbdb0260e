// Package replan turns execution feedback into new plan versions.
//
// A replan never rebuilds the schedule: wave membership is fixed at build
// time, and feedback only moves unit statuses forward. Each call returns a new
// ExecutionPlan with Version+1 and leaves its input untouched.
//
// A failure cascade is therefore a status change only. The waves listed in
// Result.ChangedWaves hold the same units in the same order as before; only
// the statuses of those units differ, and their slices are copied so the new
// version shares no mutable state with the old one.
package replan

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/waveplan/internal/domain"
	"github.com/felixgeelhaar/waveplan/internal/errors"
	"github.com/felixgeelhaar/waveplan/internal/graph"
	"github.com/felixgeelhaar/waveplan/internal/plan"
)

// Result is the outcome of one replan step.
type Result struct {
	Plan *plan.ExecutionPlan
	// Blocked lists units newly blocked by this step, sorted.
	Blocked []string
	// ChangedWaves lists the indices of waves holding a unit whose status
	// changed. Their membership and order are unchanged.
	ChangedWaves []int
	// Exhausted is true when no pending or scheduled unit remains.
	Exhausted bool
}

// Coordinator applies feedback against the graph a plan was built from.
type Coordinator struct {
	g   *graph.Graph
	now func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock overrides the timestamp source for new versions.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// New creates a Coordinator for a checked graph.
func New(checked *graph.Checked, opts ...Option) *Coordinator {
	c := &Coordinator{g: checked.Graph(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReportFailure marks id failed and blocks every pending or scheduled unit
// reachable from it by forward edges.
func (c *Coordinator) ReportFailure(ctx context.Context, p *plan.ExecutionPlan, id string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return &Result{Plan: p}, errors.NewCancelledError(err)
	}
	u, err := c.lookup(p, id)
	if err != nil {
		return nil, err
	}
	if !u.Status.CanTransitionTo(domain.StatusFailed) {
		return nil, errors.NewInvalidTransitionError(id, u.Status.String(), domain.StatusFailed.String())
	}

	next := p.Clone()
	touched := []string{id}
	setStatus(next, id, domain.StatusFailed)

	var blocked []string
	for _, d := range c.g.Descendants(id) {
		if next.Units[d].Status.IsRunnable() {
			setStatus(next, d, domain.StatusBlocked)
			blocked = append(blocked, d)
		}
	}
	sort.Strings(blocked)
	touched = append(touched, blocked...)

	return c.publish(next, touched, blocked), nil
}

// ReportSuccess marks id completed. Every prerequisite must already be
// completed.
func (c *Coordinator) ReportSuccess(ctx context.Context, p *plan.ExecutionPlan, id string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return &Result{Plan: p}, errors.NewCancelledError(err)
	}
	u, err := c.lookup(p, id)
	if err != nil {
		return nil, err
	}
	if !u.Status.CanTransitionTo(domain.StatusCompleted) {
		return nil, errors.NewInvalidTransitionError(id, u.Status.String(), domain.StatusCompleted.String())
	}
	if pending := unfinishedPrerequisites(p, u); len(pending) > 0 {
		return nil, errors.NewInvalidTransitionError(id, u.Status.String(), domain.StatusCompleted.String()).
			WithSuggestion("Report prerequisites first: " + strings.Join(pending, ", "))
	}

	next := p.Clone()
	setStatus(next, id, domain.StatusCompleted)
	return c.publish(next, []string{id}, nil), nil
}

// MarkScheduled moves pending units to scheduled once an executor has picked
// them up. Every unit must be pending with all prerequisites completed.
func (c *Coordinator) MarkScheduled(ctx context.Context, p *plan.ExecutionPlan, ids []string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return &Result{Plan: p}, errors.NewCancelledError(err)
	}
	for _, id := range ids {
		u, err := c.lookup(p, id)
		if err != nil {
			return nil, err
		}
		if u.Status != domain.StatusPending {
			return nil, errors.NewInvalidTransitionError(id, u.Status.String(), domain.StatusScheduled.String())
		}
		if pending := unfinishedPrerequisites(p, u); len(pending) > 0 {
			return nil, errors.NewInvalidTransitionError(id, u.Status.String(), domain.StatusScheduled.String()).
				WithSuggestion("Wait for prerequisites: " + strings.Join(pending, ", "))
		}
	}

	next := p.Clone()
	for _, id := range ids {
		setStatus(next, id, domain.StatusScheduled)
	}
	return c.publish(next, ids, nil), nil
}

func (c *Coordinator) lookup(p *plan.ExecutionPlan, id string) (plan.Unit, error) {
	u, ok := p.Units[id]
	if !ok || !c.g.Has(id) {
		return plan.Unit{}, errors.NewUnknownUnitError(id)
	}
	return u, nil
}

// publish stamps next as the following version. Waves holding a touched unit
// get a fresh slice; the rest keep sharing the previous version's.
func (c *Coordinator) publish(next *plan.ExecutionPlan, touched, blocked []string) *Result {
	at := next.Assignments()
	changed := make(map[int]bool, len(touched))
	for _, id := range touched {
		changed[at[id]] = true
	}
	waves := make([]int, 0, len(changed))
	for i := range changed {
		next.Waves[i].Units = append([]string(nil), next.Waves[i].Units...)
		waves = append(waves, i)
	}
	sort.Ints(waves)

	next.Version++
	next.GeneratedAt = c.now().UTC()
	next.RefreshStatusCounts()
	next.Fingerprint = plan.Fingerprint(next)

	return &Result{
		Plan:         next,
		Blocked:      blocked,
		ChangedWaves: waves,
		Exhausted:    next.Status == plan.StatusExhausted,
	}
}

func setStatus(p *plan.ExecutionPlan, id string, s domain.Status) {
	u := p.Units[id]
	u.Status = s
	p.Units[id] = u
}

func unfinishedPrerequisites(p *plan.ExecutionPlan, u plan.Unit) []string {
	var out []string
	for _, dep := range u.DependsOn {
		if p.Units[dep].Status != domain.StatusCompleted {
			out = append(out, dep)
		}
	}
	sort.Strings(out)
	return out
}
