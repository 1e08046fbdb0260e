// Package quality scores a plan by how many of its units fall inside the
// configured complexity and size bounds.
package quality

import (
	"fmt"
	"sort"

	"github.com/felixgeelhaar/waveplan/internal/plan"
)

// Bounds defines what counts as a valid unit and when the plan is flagged.
type Bounds struct {
	ComplexityMin float64 `mapstructure:"complexity_min" json:"complexity_min"`
	ComplexityMax float64 `mapstructure:"complexity_max" json:"complexity_max"`
	SizeMin       int     `mapstructure:"size_min" json:"size_min"`
	SizeMax       int     `mapstructure:"size_max" json:"size_max"`
	Threshold     float64 `mapstructure:"threshold" json:"threshold"`
}

// DefaultBounds returns complexity [0, 0.9], size [1, 500], threshold 0.85.
func DefaultBounds() Bounds {
	return Bounds{
		ComplexityMin: 0,
		ComplexityMax: 0.9,
		SizeMin:       1,
		SizeMax:       500,
		Threshold:     0.85,
	}
}

// Validate checks that every range is well-formed.
func (b Bounds) Validate() error {
	if b.ComplexityMin < 0 || b.ComplexityMax > 1 || b.ComplexityMin > b.ComplexityMax {
		return fmt.Errorf("complexity bounds [%v, %v] must satisfy 0 <= min <= max <= 1", b.ComplexityMin, b.ComplexityMax)
	}
	if b.SizeMin < 1 || b.SizeMin > b.SizeMax {
		return fmt.Errorf("size bounds [%d, %d] must satisfy 1 <= min <= max", b.SizeMin, b.SizeMax)
	}
	if b.Threshold < 0 || b.Threshold > 1 {
		return fmt.Errorf("threshold %v must be within [0, 1]", b.Threshold)
	}
	return nil
}

// Valid reports whether u lies inside the bounds.
func (b Bounds) Valid(u plan.Unit) bool {
	return u.Complexity >= b.ComplexityMin && u.Complexity <= b.ComplexityMax &&
		u.EstimatedSize >= b.SizeMin && u.EstimatedSize <= b.SizeMax
}

// Report is the outcome of assessing a plan.
type Report struct {
	Total      int
	Valid      int
	Invalid    int
	Score      float64
	InvalidIDs []string
	Warning    string
}

// Assess scores p against b. A plan without units scores 0.
func Assess(p *plan.ExecutionPlan, b Bounds) Report {
	r := Report{Total: len(p.Units)}
	for id, u := range p.Units {
		if b.Valid(u) {
			r.Valid++
			continue
		}
		r.InvalidIDs = append(r.InvalidIDs, id)
	}
	sort.Strings(r.InvalidIDs)
	r.Invalid = r.Total - r.Valid
	r.Score = Score(r.Valid, r.Total)

	if r.Total > 0 && r.Score < b.Threshold {
		r.Warning = fmt.Sprintf("quality score %.4f is below threshold %.2f: %d of %d units fall outside complexity [%v, %v] or size [%d, %d]",
			r.Score, b.Threshold, r.Invalid, r.Total, b.ComplexityMin, b.ComplexityMax, b.SizeMin, b.SizeMax)
	}
	return r
}

// Score returns valid/total, or 0 when total is 0.
func Score(valid, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(valid) / float64(total)
}

// Apply writes the assessment into p's metrics and warnings.
func Apply(p *plan.ExecutionPlan, b Bounds) Report {
	r := Assess(p, b)
	p.Metrics.TotalUnits = r.Total
	p.Metrics.ValidUnits = r.Valid
	p.Metrics.InvalidUnits = r.Invalid
	p.Metrics.QualityScore = r.Score
	p.Metrics.InvalidIDs = r.InvalidIDs
	if r.Warning != "" {
		p.Warnings = append(p.Warnings, r.Warning)
	}
	return r
}
