package domain

import "fmt"

// Priority ranks a unit from 1 (lowest) to 5 (highest).
type Priority int

// Priority bounds
const (
	PriorityLowest  Priority = 1
	PriorityDefault Priority = 3
	PriorityHighest Priority = 5
)

// NewPriority creates a new Priority value object with validation
func NewPriority(value int) (Priority, error) {
	p := Priority(value)
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return p, nil
}

// Validate checks if the priority is valid
func (p Priority) Validate() error {
	if p < PriorityLowest || p > PriorityHighest {
		return fmt.Errorf("invalid priority %d: must be between %d and %d", int(p), PriorityLowest, PriorityHighest)
	}
	return nil
}

// String returns the string representation
func (p Priority) String() string {
	return fmt.Sprintf("P%d", int(p))
}

// IsHigherThan checks if this priority is higher than another
func (p Priority) IsHigherThan(other Priority) bool {
	return p > other
}

// IsLowerThan checks if this priority is lower than another
func (p Priority) IsLowerThan(other Priority) bool {
	return p < other
}
