package plan

import (
	"sort"
	"time"

	"github.com/felixgeelhaar/waveplan/internal/domain"
)

// Unit is an atomic unit of work as produced by the upstream planner.
// The scheduling core never inspects anything beyond these fields.
type Unit struct {
	ID            string          `json:"id" yaml:"id" toml:"id"`
	Name          string          `json:"name" yaml:"name" toml:"name"`
	Type          string          `json:"type" yaml:"type" toml:"type"`
	Complexity    float64         `json:"complexity" yaml:"complexity" toml:"complexity"`         // 0..1
	EstimatedSize int             `json:"estimated_size" yaml:"estimated_size" toml:"estimated_size"` // > 0
	Priority      domain.Priority `json:"priority" yaml:"priority" toml:"priority"`             // 1..5, 5 highest
	DependsOn     []string        `json:"depends_on,omitempty" yaml:"depends_on,omitempty" toml:"depends_on,omitempty"`
	Status        domain.Status   `json:"status,omitempty" yaml:"status,omitempty" toml:"status,omitempty"`
}

// Clone returns a deep copy of the unit.
func (u Unit) Clone() Unit {
	if u.DependsOn != nil {
		u.DependsOn = append([]string(nil), u.DependsOn...)
	}
	return u
}

// Wave is a batch of units with no dependency relationship among themselves.
type Wave struct {
	// Index is the physical execution position.
	Index int `json:"index"`
	// Layer is the logical longest-path layer. It differs from Index only when
	// oversize layers were split into sub-batches.
	Layer int      `json:"layer"`
	Units []string `json:"units"`
}

// Status describes a plan version as a whole.
type Status string

// Plan statuses
const (
	StatusReady     Status = "ready"
	StatusCancelled Status = "cancelled"
	StatusExhausted Status = "exhausted" // no pending or scheduled unit remains
)

// Metrics summarises a plan version.
type Metrics struct {
	TotalUnits         int      `json:"total_units"`
	ValidUnits         int      `json:"valid_units"`
	InvalidUnits       int      `json:"invalid_units"`
	QualityScore       float64  `json:"quality_score"`
	WaveCount          int      `json:"wave_count"`
	WaveSizes          []int    `json:"wave_sizes"`
	MaxWaveSize        int      `json:"max_wave_size"`
	CriticalPathLength int      `json:"critical_path_length"`
	InvalidIDs         []string `json:"invalid_ids,omitempty"`

	PendingUnits   int `json:"pending_units"`
	ScheduledUnits int `json:"scheduled_units"`
	CompletedUnits int `json:"completed_units"`
	FailedUnits    int `json:"failed_units"`
	BlockedUnits   int `json:"blocked_units"`
}

// ExecutionPlan is one immutable version of a session's schedule.
// Replanning produces a new value; nothing mutates a published plan.
type ExecutionPlan struct {
	SessionID   string          `json:"session_id,omitempty"`
	Version     int             `json:"version"`
	Status      Status          `json:"status"`
	Waves       []Wave          `json:"waves"`
	Units       map[string]Unit `json:"units"`
	Metrics     Metrics         `json:"metrics"`
	Warnings    []string        `json:"warnings,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
	Fingerprint string          `json:"fingerprint"`
}

// Assignments maps every unit ID to its wave index.
func (p *ExecutionPlan) Assignments() map[string]int {
	out := make(map[string]int, len(p.Units))
	for _, w := range p.Waves {
		for _, id := range w.Units {
			out[id] = w.Index
		}
	}
	return out
}

// WaveOf returns the wave index of a unit.
func (p *ExecutionPlan) WaveOf(id string) (int, bool) {
	for _, w := range p.Waves {
		for _, u := range w.Units {
			if u == id {
				return w.Index, true
			}
		}
	}
	return 0, false
}

// Wave returns wave n, if present.
func (p *ExecutionPlan) Wave(n int) (Wave, bool) {
	if n < 0 || n >= len(p.Waves) {
		return Wave{}, false
	}
	return p.Waves[n], true
}

// Remaining returns, per wave, the units that are still pending or scheduled.
// Waves keep their indices; a wave whose units have all finished or been
// blocked is returned empty.
func (p *ExecutionPlan) Remaining() []Wave {
	out := make([]Wave, len(p.Waves))
	for i, w := range p.Waves {
		out[i] = Wave{Index: w.Index, Layer: w.Layer, Units: []string{}}
		for _, id := range w.Units {
			if p.Units[id].Status.IsRunnable() {
				out[i].Units = append(out[i].Units, id)
			}
		}
	}
	return out
}

// HasRemainingWork reports whether any unit is pending or scheduled.
func (p *ExecutionPlan) HasRemainingWork() bool {
	for _, u := range p.Units {
		if u.Status.IsRunnable() {
			return true
		}
	}
	return false
}

// Ready returns pending units whose prerequisites have all completed, in
// wave order. These may be started now.
func (p *ExecutionPlan) Ready() []string {
	var ready []string
	for _, w := range p.Waves {
		for _, id := range w.Units {
			u := p.Units[id]
			if u.Status != domain.StatusPending {
				continue
			}
			ok := true
			for _, dep := range u.DependsOn {
				if p.Units[dep].Status != domain.StatusCompleted {
					ok = false
					break
				}
			}
			if ok {
				ready = append(ready, id)
			}
		}
	}
	return ready
}

// WithStatus returns the sorted IDs of units in the given status.
func (p *ExecutionPlan) WithStatus(s domain.Status) []string {
	var ids []string
	for id, u := range p.Units {
		if u.Status == s {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a copy that can be modified into the next version. Wave unit
// slices are shared because they are never written after publication.
func (p *ExecutionPlan) Clone() *ExecutionPlan {
	cp := *p
	cp.Waves = append([]Wave(nil), p.Waves...)
	cp.Units = make(map[string]Unit, len(p.Units))
	for id, u := range p.Units {
		cp.Units[id] = u.Clone()
	}
	cp.Warnings = append([]string(nil), p.Warnings...)
	cp.Metrics.WaveSizes = append([]int(nil), p.Metrics.WaveSizes...)
	cp.Metrics.InvalidIDs = append([]string(nil), p.Metrics.InvalidIDs...)
	return &cp
}

// RefreshStatusCounts recomputes the per-status counters and the plan status.
func (p *ExecutionPlan) RefreshStatusCounts() {
	m := &p.Metrics
	m.PendingUnits, m.ScheduledUnits, m.CompletedUnits, m.FailedUnits, m.BlockedUnits = 0, 0, 0, 0, 0
	for _, u := range p.Units {
		switch u.Status {
		case domain.StatusPending:
			m.PendingUnits++
		case domain.StatusScheduled:
			m.ScheduledUnits++
		case domain.StatusCompleted:
			m.CompletedUnits++
		case domain.StatusFailed:
			m.FailedUnits++
		case domain.StatusBlocked:
			m.BlockedUnits++
		}
	}
	if p.Status == StatusCancelled {
		return
	}
	if m.PendingUnits+m.ScheduledUnits == 0 {
		p.Status = StatusExhausted
	} else {
		p.Status = StatusReady
	}
}
