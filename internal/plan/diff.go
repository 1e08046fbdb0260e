package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChangeKind classifies how a unit's placement differs between two plans.
type ChangeKind string

// Change kinds
const (
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
	ChangeMoved   ChangeKind = "moved"
)

// Change is a single unit placement difference. FromWave/ToWave are -1 when
// the unit is absent on that side.
type Change struct {
	UnitID   string     `json:"unit_id"`
	Kind     ChangeKind `json:"kind"`
	FromWave int        `json:"from_wave"`
	ToWave   int        `json:"to_wave"`
}

// PlanDiff compares the wave layout of two plans.
type PlanDiff struct {
	Changes []Change `json:"changes"`
	// Reordered lists waves whose membership is equal but whose order differs.
	Reordered []int `json:"reordered,omitempty"`
	// Unified is a line diff of the rendered wave listings.
	Unified string `json:"unified"`
}

// Identical reports whether both plans schedule the same units in the same order.
func (d PlanDiff) Identical() bool {
	return len(d.Changes) == 0 && len(d.Reordered) == 0
}

// Diff compares the wave layout of prev and next.
func Diff(prev, next *ExecutionPlan) PlanDiff {
	oldAt := prev.Assignments()
	newAt := next.Assignments()

	var changes []Change
	for id, ow := range oldAt {
		nw, ok := newAt[id]
		switch {
		case !ok:
			changes = append(changes, Change{UnitID: id, Kind: ChangeRemoved, FromWave: ow, ToWave: -1})
		case nw != ow:
			changes = append(changes, Change{UnitID: id, Kind: ChangeMoved, FromWave: ow, ToWave: nw})
		}
	}
	for id, nw := range newAt {
		if _, ok := oldAt[id]; !ok {
			changes = append(changes, Change{UnitID: id, Kind: ChangeAdded, FromWave: -1, ToWave: nw})
		}
	}
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].UnitID < changes[j].UnitID
	})

	var reordered []int
	for i := 0; i < len(prev.Waves) && i < len(next.Waves); i++ {
		a, b := prev.Waves[i].Units, next.Waves[i].Units
		if sameMembers(a, b) && strings.Join(a, "\x00") != strings.Join(b, "\x00") {
			reordered = append(reordered, i)
		}
	}

	return PlanDiff{
		Changes:   changes,
		Reordered: reordered,
		Unified:   unifiedWaveDiff(renderWaves(prev), renderWaves(next)),
	}
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		seen[id]--
		if seen[id] < 0 {
			return false
		}
	}
	return true
}

func renderWaves(p *ExecutionPlan) string {
	var b strings.Builder
	for _, w := range p.Waves {
		fmt.Fprintf(&b, "wave %d: %s\n", w.Index, strings.Join(w.Units, " "))
	}
	return b.String()
}

// unifiedWaveDiff produces a line-oriented diff with +/- prefixes.
func unifiedWaveDiff(oldText, newText string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var buf strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			buf.WriteString(prefix)
			buf.WriteString(line)
		}
	}
	return buf.String()
}
