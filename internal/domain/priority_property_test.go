package domain

import (
	"testing"

	"pgregory.net/rapid"
)

// TestPriority_RangeProperty checks that exactly the values 1..5 validate.
func TestPriority_RangeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.IntRange(-100, 100).Draw(t, "value")

		err := Priority(v).Validate()
		inRange := v >= 1 && v <= 5
		if inRange && err != nil {
			t.Fatalf("priority %d should be valid: %v", v, err)
		}
		if !inRange && err == nil {
			t.Fatalf("priority %d should be invalid", v)
		}
	})
}

// TestPriority_ComparisonIsStrictOrder checks antisymmetry of IsHigherThan.
func TestPriority_ComparisonIsStrictOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := Priority(rapid.IntRange(1, 5).Draw(t, "a"))
		b := Priority(rapid.IntRange(1, 5).Draw(t, "b"))

		if a.IsHigherThan(b) && b.IsHigherThan(a) {
			t.Fatalf("%v and %v cannot both be higher than each other", a, b)
		}
		if a.IsHigherThan(b) != b.IsLowerThan(a) {
			t.Fatalf("IsHigherThan and IsLowerThan disagree for %v, %v", a, b)
		}
	})
}
