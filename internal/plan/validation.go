package plan

import (
	"fmt"
	"math"
	"sort"

	"github.com/felixgeelhaar/waveplan/internal/domain"
)

// Validate checks the unit's declared metadata against its value ranges.
func (u *Unit) Validate() error {
	if _, err := domain.NewUnitID(u.ID); err != nil {
		return fmt.Errorf("invalid unit ID: %w", err)
	}

	if math.IsNaN(u.Complexity) || u.Complexity < 0 || u.Complexity > 1 {
		return fmt.Errorf("complexity must be within [0, 1], got %v", u.Complexity)
	}

	if u.EstimatedSize <= 0 {
		return fmt.Errorf("estimated size must be positive, got %d", u.EstimatedSize)
	}

	if err := u.Priority.Validate(); err != nil {
		return err
	}

	for i, dep := range u.DependsOn {
		if _, err := domain.NewUnitID(dep); err != nil {
			return fmt.Errorf("dependency at index %d has invalid unit ID: %w", i, err)
		}
	}

	if u.Status != "" {
		if err := u.Status.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks the structural invariants of a plan: every unit appears in
// exactly one wave, waves are numbered consecutively, and every unit sits in a
// strictly later wave than each of its prerequisites.
func (p *ExecutionPlan) Validate() error {
	if len(p.Units) == 0 {
		return fmt.Errorf("plan must have at least one unit")
	}

	assigned := make(map[string]int, len(p.Units))
	for i, w := range p.Waves {
		if w.Index != i {
			return fmt.Errorf("wave at position %d has index %d", i, w.Index)
		}
		for _, id := range w.Units {
			if _, ok := p.Units[id]; !ok {
				return fmt.Errorf("wave %d references unknown unit %q", i, id)
			}
			if prev, dup := assigned[id]; dup {
				return fmt.Errorf("unit %q appears in waves %d and %d", id, prev, i)
			}
			assigned[id] = i
		}
	}

	ids := make([]string, 0, len(p.Units))
	for id := range p.Units {
		if _, ok := assigned[id]; !ok {
			return fmt.Errorf("unit %q is not assigned to any wave", id)
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		w := assigned[id]
		for _, dep := range p.Units[id].DependsOn {
			dw, ok := assigned[dep]
			if !ok {
				return fmt.Errorf("unit %q depends on %q which is not in the plan", id, dep)
			}
			if dw >= w {
				return fmt.Errorf("unit %q in wave %d depends on %q in wave %d", id, w, dep, dw)
			}
		}
	}

	return nil
}
