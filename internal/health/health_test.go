package health

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter int

func (c counter) Len() int { return int(c) }

type slowChecker struct{ calls atomic.Int32 }

func (s *slowChecker) Name() string { return "slow" }

func (s *slowChecker) Check(ctx context.Context) *Result {
	s.calls.Add(1)
	<-ctx.Done()
	return Unhealthy(ctx.Err().Error())
}

func TestSessionCapacityChecker(t *testing.T) {
	tests := []struct {
		n, limit int
		want     Status
	}{
		{0, 0, StatusHealthy},
		{5000, 0, StatusHealthy},
		{3, 10, StatusHealthy},
		{9, 10, StatusDegraded},
		{10, 10, StatusUnhealthy},
		{12, 10, StatusUnhealthy},
	}
	for _, tt := range tests {
		r := NewSessionCapacityChecker(counter(tt.n), tt.limit).Check(context.Background())
		assert.Equal(t, tt.want, r.Status, "n=%d limit=%d", tt.n, tt.limit)
		assert.Equal(t, tt.n, r.Details["sessions"])
	}
}

func TestOverallStatus(t *testing.T) {
	assert.Equal(t, StatusHealthy, OverallStatus(nil))
	assert.Equal(t, StatusDegraded, OverallStatus(map[string]*Result{
		"a": Healthy("ok"), "b": Degraded("meh"),
	}))
	assert.Equal(t, StatusUnhealthy, OverallStatus(map[string]*Result{
		"a": Degraded("meh"), "b": Unhealthy("down"),
	}))
}

func TestManager_Timeout(t *testing.T) {
	slow := &slowChecker{}
	m := NewManager().WithTimeout(20 * time.Millisecond)
	m.AddChecker(slow)
	m.AddChecker(NewSessionCapacityChecker(counter(1), 10))
	require.Equal(t, 2, m.Count())

	results := m.Check(context.Background())
	require.Len(t, results, 2)
	assert.Equal(t, StatusUnhealthy, results["slow"].Status)
	assert.Equal(t, StatusHealthy, results["session-capacity"].Status)
	assert.Positive(t, results["slow"].Latency)
	assert.Equal(t, int32(1), slow.calls.Load())
}

func TestProbeManager(t *testing.T) {
	pm := NewProbeManager("1.2.3")
	pm.AddChecker(NewSessionCapacityChecker(counter(10), 10))

	live := pm.CheckLiveness(context.Background())
	assert.Equal(t, StatusHealthy, live.Status)
	assert.Equal(t, "1.2.3", live.Version)

	ready := pm.CheckReadiness(context.Background())
	assert.Equal(t, StatusUnhealthy, ready.Status)
	assert.Contains(t, ready.Checks, "session-capacity")

	pm.MarkShutdown()
	assert.True(t, pm.IsShuttingDown())
	assert.Equal(t, StatusDegraded, pm.CheckLiveness(context.Background()).Status)
	ready = pm.CheckReadiness(context.Background())
	assert.Equal(t, StatusUnhealthy, ready.Status)
	assert.Empty(t, ready.Checks)
}
