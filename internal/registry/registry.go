// Package registry holds the validated, immutable set of units a plan is
// built from.
package registry

import (
	"sort"

	"github.com/felixgeelhaar/waveplan/internal/errors"
	"github.com/felixgeelhaar/waveplan/internal/plan"
)

// Registry is an immutable ID -> Unit lookup.
type Registry struct {
	units map[string]plan.Unit
	order []string // input order
	ids   []string // sorted
}

// Register validates units and indexes them by ID. Duplicate prerequisite IDs
// on a single unit collapse to one edge.
func Register(units []plan.Unit) (*Registry, error) {
	if len(units) == 0 {
		return nil, errors.NewEmptyInputError()
	}

	r := &Registry{
		units: make(map[string]plan.Unit, len(units)),
		order: make([]string, 0, len(units)),
	}

	for i := range units {
		u := units[i].Clone()

		if err := u.Validate(); err != nil {
			return nil, errors.NewInvalidUnitError(u.ID, err)
		}
		if _, dup := r.units[u.ID]; dup {
			return nil, errors.NewDuplicateIDError(u.ID)
		}

		u.DependsOn = dedupe(u.DependsOn)
		r.units[u.ID] = u
		r.order = append(r.order, u.ID)
	}

	r.ids = append([]string(nil), r.order...)
	sort.Strings(r.ids)

	return r, nil
}

func dedupe(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Get returns a copy of the unit with the given ID.
func (r *Registry) Get(id string) (plan.Unit, bool) {
	u, ok := r.units[id]
	if !ok {
		return plan.Unit{}, false
	}
	return u.Clone(), true
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.units[id]
	return ok
}

// IDs returns all unit IDs in ascending order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.ids...)
}

// Len returns the number of registered units.
func (r *Registry) Len() int {
	return len(r.units)
}

// Units returns copies of all units in input order.
func (r *Registry) Units() []plan.Unit {
	out := make([]plan.Unit, len(r.order))
	for i, id := range r.order {
		out[i] = r.units[id].Clone()
	}
	return out
}
