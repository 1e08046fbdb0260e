// Package scheduler layers a proven-acyclic dependency graph into waves.
package scheduler

import (
	"context"
	"sort"
	"time"

	"github.com/felixgeelhaar/waveplan/internal/domain"
	"github.com/felixgeelhaar/waveplan/internal/errors"
	"github.com/felixgeelhaar/waveplan/internal/graph"
	"github.com/felixgeelhaar/waveplan/internal/plan"
)

// Options tunes wave construction.
type Options struct {
	// MaxWaveWidth caps the number of units per wave. Oversize layers are
	// split into consecutive sub-batches. Zero means unbounded.
	MaxWaveWidth int

	// Now stamps GeneratedAt. Defaults to time.Now.
	Now func() time.Time
}

// Schedule assigns every unit the wave 1 + max(wave of its prerequisites),
// roots being wave 0, and orders each wave by priority desc, complexity desc,
// then ID asc.
//
// The context is checked before each layer. On cancellation the layers built
// so far are returned in a plan with status cancelled, together with a
// Cancelled error wrapping ctx.Err().
func Schedule(ctx context.Context, checked *graph.Checked, opts Options) (*plan.ExecutionPlan, error) {
	g := checked.Graph()
	if g == nil {
		return nil, errors.NewEmptyInputError()
	}
	if opts.MaxWaveWidth < 0 {
		opts.MaxWaveWidth = 0
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	p := &plan.ExecutionPlan{
		Version: 1,
		Status:  plan.StatusReady,
		Units:   make(map[string]plan.Unit, g.Len()),
	}
	for _, id := range g.Nodes() {
		u, _ := g.Unit(id)
		u.Status = domain.StatusPending
		p.Units[id] = u
	}

	remaining := checked.InDegree()
	frontier := g.Roots()
	layer := 0
	var cancelErr error

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			cancelErr = errors.NewCancelledError(err)
			break
		}

		sortLayer(frontier, p.Units)
		appendLayer(p, layer, frontier, opts.MaxWaveWidth)

		var next []string
		for _, id := range frontier {
			for _, dep := range g.Dependents(id) {
				remaining[dep]--
				if remaining[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		frontier = next
		layer++
	}

	summarize(p, layer)
	p.GeneratedAt = now().UTC()
	p.Fingerprint = plan.Fingerprint(p)

	if cancelErr != nil {
		p.Status = plan.StatusCancelled
		return p, cancelErr
	}
	return p, nil
}

// sortLayer orders ids by priority desc, complexity desc, ID asc.
func sortLayer(ids []string, units map[string]plan.Unit) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := units[ids[i]], units[ids[j]]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Complexity != b.Complexity {
			return a.Complexity > b.Complexity
		}
		return a.ID < b.ID
	})
}

// appendLayer adds one logical layer, split into sub-batches of at most width
// units when width > 0.
func appendLayer(p *plan.ExecutionPlan, layer int, ids []string, width int) {
	if width <= 0 || len(ids) <= width {
		p.Waves = append(p.Waves, plan.Wave{Index: len(p.Waves), Layer: layer, Units: ids})
		return
	}
	for start := 0; start < len(ids); start += width {
		end := start + width
		if end > len(ids) {
			end = len(ids)
		}
		batch := append([]string(nil), ids[start:end]...)
		p.Waves = append(p.Waves, plan.Wave{Index: len(p.Waves), Layer: layer, Units: batch})
	}
}

func summarize(p *plan.ExecutionPlan, layers int) {
	m := &p.Metrics
	m.TotalUnits = len(p.Units)
	m.WaveCount = len(p.Waves)
	m.CriticalPathLength = layers
	m.WaveSizes = make([]int, len(p.Waves))
	m.MaxWaveSize = 0
	for i, w := range p.Waves {
		m.WaveSizes[i] = len(w.Units)
		if len(w.Units) > m.MaxWaveSize {
			m.MaxWaveSize = len(w.Units)
		}
	}
	p.RefreshStatusCounts()
}
