package health

import (
	"context"
	"fmt"
)

// SessionCounter reports the number of live sessions.
type SessionCounter interface {
	Len() int
}

// SessionCapacityChecker turns degraded at 90% of the session limit and
// unhealthy once the limit is reached, since new sessions would be refused.
type SessionCapacityChecker struct {
	sessions SessionCounter
	limit    int
}

// NewSessionCapacityChecker creates a checker for sessions. limit <= 0 means
// unlimited and the check is always healthy.
func NewSessionCapacityChecker(sessions SessionCounter, limit int) *SessionCapacityChecker {
	return &SessionCapacityChecker{sessions: sessions, limit: limit}
}

// Name implements Checker.
func (c *SessionCapacityChecker) Name() string { return "session-capacity" }

// Check implements Checker.
func (c *SessionCapacityChecker) Check(ctx context.Context) *Result {
	n := c.sessions.Len()
	var r *Result
	switch {
	case c.limit <= 0:
		r = Healthy("no session limit")
	case n >= c.limit:
		r = Unhealthy(fmt.Sprintf("session limit reached (%d)", c.limit))
	case n*10 >= c.limit*9:
		r = Degraded(fmt.Sprintf("%d of %d sessions in use", n, c.limit))
	default:
		r = Healthy(fmt.Sprintf("%d of %d sessions in use", n, c.limit))
	}
	return r.WithDetail("sessions", n).WithDetail("limit", c.limit)
}
