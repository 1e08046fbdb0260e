package plan

import (
	"math"
	"strings"
	"testing"

	"github.com/felixgeelhaar/waveplan/internal/domain"
)

func TestUnit_Validate(t *testing.T) {
	valid := Unit{
		ID:            "unit-001",
		Name:          "create schema",
		Type:          "database",
		Complexity:    0.5,
		EstimatedSize: 120,
		Priority:      domain.Priority(4),
		DependsOn:     []string{"unit-000"},
	}

	tests := []struct {
		name    string
		mutate  func(u *Unit)
		wantErr bool
		errMsg  string
	}{
		{name: "valid unit", mutate: func(u *Unit) {}},
		{name: "empty id", mutate: func(u *Unit) { u.ID = "" }, wantErr: true, errMsg: "invalid unit ID"},
		{name: "complexity below zero", mutate: func(u *Unit) { u.Complexity = -0.1 }, wantErr: true, errMsg: "complexity"},
		{name: "complexity above one", mutate: func(u *Unit) { u.Complexity = 1.01 }, wantErr: true, errMsg: "complexity"},
		{name: "complexity NaN", mutate: func(u *Unit) { u.Complexity = math.NaN() }, wantErr: true, errMsg: "complexity"},
		{name: "complexity bounds inclusive", mutate: func(u *Unit) { u.Complexity = 1 }},
		{name: "zero size", mutate: func(u *Unit) { u.EstimatedSize = 0 }, wantErr: true, errMsg: "estimated size"},
		{name: "priority zero", mutate: func(u *Unit) { u.Priority = 0 }, wantErr: true, errMsg: "priority"},
		{name: "priority six", mutate: func(u *Unit) { u.Priority = 6 }, wantErr: true, errMsg: "priority"},
		{name: "empty dependency", mutate: func(u *Unit) { u.DependsOn = []string{""} }, wantErr: true, errMsg: "dependency at index 0"},
		{name: "unknown status", mutate: func(u *Unit) { u.Status = "running" }, wantErr: true, errMsg: "invalid status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := valid.Clone()
			tt.mutate(&u)
			err := u.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %q, want containing %q", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestExecutionPlan_Validate(t *testing.T) {
	units := map[string]Unit{
		"A": {ID: "A"},
		"B": {ID: "B"},
		"C": {ID: "C", DependsOn: []string{"A", "B"}},
	}

	tests := []struct {
		name    string
		waves   []Wave
		wantErr string
	}{
		{
			name:  "valid",
			waves: []Wave{{Index: 0, Units: []string{"A", "B"}}, {Index: 1, Layer: 1, Units: []string{"C"}}},
		},
		{
			name:    "same wave as prerequisite",
			waves:   []Wave{{Index: 0, Units: []string{"A", "B", "C"}}},
			wantErr: "depends on",
		},
		{
			name:    "missing unit",
			waves:   []Wave{{Index: 0, Units: []string{"A"}}, {Index: 1, Units: []string{"C"}}},
			wantErr: "not assigned",
		},
		{
			name:    "duplicate unit",
			waves:   []Wave{{Index: 0, Units: []string{"A", "B"}}, {Index: 1, Units: []string{"C", "A"}}},
			wantErr: "appears in waves",
		},
		{
			name:    "bad index",
			waves:   []Wave{{Index: 0, Units: []string{"A", "B"}}, {Index: 5, Units: []string{"C"}}},
			wantErr: "has index",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &ExecutionPlan{Waves: tt.waves, Units: units}
			err := p.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestExecutionPlan_Validate_Empty(t *testing.T) {
	p := &ExecutionPlan{}
	if err := p.Validate(); err == nil {
		t.Error("expected error for empty plan")
	}
}
