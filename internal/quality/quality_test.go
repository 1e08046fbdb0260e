package quality

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/waveplan/internal/plan"
)

func planWith(units ...plan.Unit) *plan.ExecutionPlan {
	p := &plan.ExecutionPlan{Units: make(map[string]plan.Unit, len(units))}
	for _, u := range units {
		p.Units[u.ID] = u
	}
	return p
}

func TestScore(t *testing.T) {
	assert.InDelta(t, 0.8979, Score(343, 382), 1e-4)
	assert.Equal(t, 0.0, Score(0, 0))
	assert.Equal(t, 1.0, Score(5, 5))
}

func TestAssess_QualityArithmetic(t *testing.T) {
	units := make([]plan.Unit, 0, 382)
	for i := 0; i < 382; i++ {
		cx := 0.5
		if i >= 343 {
			cx = 0.95
		}
		units = append(units, plan.Unit{ID: fmt.Sprintf("u%03d", i), Complexity: cx, EstimatedSize: 100, Priority: 3})
	}

	p := planWith(units...)
	r := Apply(p, DefaultBounds())

	assert.Equal(t, 382, r.Total)
	assert.Equal(t, 343, r.Valid)
	assert.Equal(t, 39, r.Invalid)
	assert.InDelta(t, 0.8979, r.Score, 1e-4)
	assert.Empty(t, r.Warning, "0.8979 is above the default 0.85 threshold")
	assert.Equal(t, 343, p.Metrics.ValidUnits)
	assert.Len(t, p.Metrics.InvalidIDs, 39)
	assert.Equal(t, "u343", p.Metrics.InvalidIDs[0])
}

func TestAssess_WarningBelowThreshold(t *testing.T) {
	p := planWith(
		plan.Unit{ID: "ok", Complexity: 0.2, EstimatedSize: 10},
		plan.Unit{ID: "huge", Complexity: 0.2, EstimatedSize: 900},
		plan.Unit{ID: "hard", Complexity: 1, EstimatedSize: 10},
	)

	r := Apply(p, DefaultBounds())
	assert.Equal(t, []string{"hard", "huge"}, r.InvalidIDs)
	require.Len(t, p.Warnings, 1)
	assert.Contains(t, p.Warnings[0], "below threshold")
}

func TestBounds_Inclusive(t *testing.T) {
	b := DefaultBounds()
	assert.True(t, b.Valid(plan.Unit{Complexity: 0.9, EstimatedSize: 500}))
	assert.True(t, b.Valid(plan.Unit{Complexity: 0, EstimatedSize: 1}))
	assert.False(t, b.Valid(plan.Unit{Complexity: 0.91, EstimatedSize: 1}))
	assert.False(t, b.Valid(plan.Unit{Complexity: 0.5, EstimatedSize: 501}))
}

func TestBounds_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Bounds)
		wantErr bool
	}{
		{"defaults", func(*Bounds) {}, false},
		{"inverted complexity", func(b *Bounds) { b.ComplexityMin, b.ComplexityMax = 0.8, 0.2 }, true},
		{"complexity above one", func(b *Bounds) { b.ComplexityMax = 1.5 }, true},
		{"size min zero", func(b *Bounds) { b.SizeMin = 0 }, true},
		{"inverted size", func(b *Bounds) { b.SizeMin, b.SizeMax = 10, 5 }, true},
		{"threshold above one", func(b *Bounds) { b.Threshold = 1.1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := DefaultBounds()
			tt.mutate(&b)
			err := b.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}

func TestAssess_Empty(t *testing.T) {
	r := Assess(planWith(), DefaultBounds())
	assert.Equal(t, 0.0, r.Score)
	assert.Empty(t, r.Warning)
}
