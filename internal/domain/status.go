package domain

import "fmt"

// Status is the lifecycle state of a unit inside one plan version.
type Status string

// Unit statuses.
//
//	pending -> scheduled -> completed | failed
//	pending | scheduled -> blocked
const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusBlocked   Status = "blocked"
	StatusFailed    Status = "failed"
	StatusCompleted Status = "completed"
)

// ParseStatus parses a status string. Empty input yields StatusPending.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if st == "" {
		return StatusPending, nil
	}
	if err := st.Validate(); err != nil {
		return "", err
	}
	return st, nil
}

// Validate checks if the status is one of the known values
func (s Status) Validate() error {
	switch s {
	case StatusPending, StatusScheduled, StatusBlocked, StatusFailed, StatusCompleted:
		return nil
	default:
		return fmt.Errorf("invalid status %q", string(s))
	}
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible in this plan version.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusBlocked, StatusFailed, StatusCompleted:
		return true
	default:
		return false
	}
}

// IsRunnable reports whether the unit still counts as remaining work.
func (s Status) IsRunnable() bool {
	return s == StatusPending || s == StatusScheduled
}

// CanTransitionTo reports whether s -> next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		// Completion and failure reports may arrive without an explicit dispatch.
		return next == StatusScheduled || next == StatusBlocked ||
			next == StatusCompleted || next == StatusFailed
	case StatusScheduled:
		return next == StatusCompleted || next == StatusFailed || next == StatusBlocked
	default:
		return false
	}
}
