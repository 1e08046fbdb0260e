package graph

import (
	"github.com/felixgeelhaar/waveplan/internal/errors"
	"github.com/felixgeelhaar/waveplan/internal/registry"
)

const (
	white = iota // unvisited
	grey         // on the current DFS path
	black        // fully explored
)

// DetectCycle walks the graph depth-first in ID order. On the first back edge
// it returns a Cycle error carrying the exact cycle, prerequisite first and
// starting at the node the back edge points to.
func DetectCycle(g *Graph) error {
	if path := findCycle(g); path != nil {
		return errors.NewCycleError(path)
	}
	return nil
}

func findCycle(g *Graph) []string {
	color := make(map[string]int, len(g.nodes))
	parent := make(map[string]string, len(g.nodes))
	var cycle []string

	var visit func(u string) bool
	visit = func(u string) bool {
		color[u] = grey
		for _, v := range g.forward[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if visit(v) {
					return true
				}
			case grey:
				// Back edge u -> v closes v -> ... -> u -> v.
				rev := []string{u}
				for cur := u; cur != v; {
					cur = parent[cur]
					rev = append(rev, cur)
				}
				cycle = make([]string, len(rev))
				for i, id := range rev {
					cycle[len(rev)-1-i] = id
				}
				return true
			}
		}
		color[u] = black
		return false
	}

	for _, id := range g.nodes {
		if color[id] == white && visit(id) {
			return cycle
		}
	}
	return nil
}

// Checked is a graph proven acyclic. Only BuildChecked and Check produce one,
// and the scheduler accepts nothing else.
type Checked struct {
	g *Graph
}

// Graph returns the underlying graph.
func (c *Checked) Graph() *Graph {
	if c == nil {
		return nil
	}
	return c.g
}

// Check runs DetectCycle on g and wraps it on success.
func Check(g *Graph) (*Checked, error) {
	if g == nil {
		return nil, errors.NewEmptyInputError()
	}
	if err := DetectCycle(g); err != nil {
		return nil, err
	}
	return &Checked{g: g}, nil
}

// BuildChecked builds the graph for reg and proves it acyclic.
func BuildChecked(reg *registry.Registry) (*Checked, error) {
	g, err := Build(reg)
	if err != nil {
		return nil, err
	}
	return Check(g)
}

// InDegree returns the prerequisite count of every node.
func (c *Checked) InDegree() map[string]int { return c.g.inDegree() }
