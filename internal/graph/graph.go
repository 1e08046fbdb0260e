// Package graph builds the dependency graph over registered units and proves
// it acyclic before anything is scheduled on it.
//
// An edge A -> B means "B requires A". The forward index maps a prerequisite
// to its dependents; the reverse index maps a dependent to its prerequisites.
// Both are sorted by unit ID so every traversal is deterministic.
package graph

import (
	"sort"

	"github.com/felixgeelhaar/waveplan/internal/errors"
	"github.com/felixgeelhaar/waveplan/internal/plan"
	"github.com/felixgeelhaar/waveplan/internal/registry"
)

// Edge is a single dependency: To requires From.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the forward and reverse dependency index of a registry.
type Graph struct {
	reg      *registry.Registry
	nodes    []string
	forward  map[string][]string
	reverse  map[string][]string
	numEdges int
}

// Build indexes every unit's prerequisites. A prerequisite that is not
// registered fails the build with UnknownDependency; units are walked in ID
// order so the reported offender is stable across runs.
func Build(reg *registry.Registry) (*Graph, error) {
	if reg == nil || reg.Len() == 0 {
		return nil, errors.NewEmptyInputError()
	}

	g := &Graph{
		reg:     reg,
		nodes:   reg.IDs(),
		forward: make(map[string][]string, reg.Len()),
		reverse: make(map[string][]string, reg.Len()),
	}

	for _, id := range g.nodes {
		u, _ := reg.Get(id)
		for _, dep := range u.DependsOn {
			if !reg.Has(dep) {
				return nil, errors.NewUnknownDependencyError(dep, id)
			}
			g.forward[dep] = append(g.forward[dep], id)
			g.reverse[id] = append(g.reverse[id], dep)
			g.numEdges++
		}
	}

	for _, ids := range g.forward {
		sort.Strings(ids)
	}
	for _, ids := range g.reverse {
		sort.Strings(ids)
	}

	return g, nil
}

// Registry returns the registry the graph was built from.
func (g *Graph) Registry() *registry.Registry { return g.reg }

// Unit returns a copy of the unit with the given ID.
func (g *Graph) Unit(id string) (plan.Unit, bool) { return g.reg.Get(id) }

// Nodes returns every unit ID in ascending order.
func (g *Graph) Nodes() []string { return append([]string(nil), g.nodes...) }

// Len returns the node count.
func (g *Graph) Len() int { return len(g.nodes) }

// Has reports whether id is a node.
func (g *Graph) Has(id string) bool { return g.reg.Has(id) }

// Dependents returns the units that directly require id.
func (g *Graph) Dependents(id string) []string {
	return append([]string(nil), g.forward[id]...)
}

// Prerequisites returns the units id directly requires.
func (g *Graph) Prerequisites(id string) []string {
	return append([]string(nil), g.reverse[id]...)
}

// Roots returns the units without prerequisites, sorted.
func (g *Graph) Roots() []string {
	var roots []string
	for _, id := range g.nodes {
		if len(g.reverse[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Edges returns every edge ordered by (From, To).
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.numEdges)
	for _, from := range g.nodes {
		for _, to := range g.forward[from] {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// Descendants returns every unit transitively reachable from id by forward
// edges, excluding id itself.
func (g *Graph) Descendants(id string) []string {
	seen := make(map[string]bool)
	queue := append([]string(nil), g.forward[id]...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if seen[n] || n == id {
			continue
		}
		seen[n] = true
		queue = append(queue, g.forward[n]...)
	}

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// inDegree returns the number of prerequisites of every node.
func (g *Graph) inDegree() map[string]int {
	deg := make(map[string]int, len(g.nodes))
	for _, id := range g.nodes {
		deg[id] = len(g.reverse[id])
	}
	return deg
}
