package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/waveplan/internal/domain"
	"github.com/felixgeelhaar/waveplan/internal/plan"
)

func testPlan() *plan.ExecutionPlan {
	p := &plan.ExecutionPlan{
		SessionID: "s-1",
		Version:   3,
		Waves: []plan.Wave{
			{Index: 0, Layer: 0, Units: []string{"A"}},
			{Index: 1, Layer: 1, Units: []string{"B", "C"}},
			{Index: 2, Layer: 1, Units: []string{"D"}},
		},
		Units: map[string]plan.Unit{
			"A": {ID: "A", Complexity: 0.5, EstimatedSize: 10, Priority: 3, Status: domain.StatusCompleted},
			"B": {ID: "B", Complexity: 0.5, EstimatedSize: 10, Priority: 5, DependsOn: []string{"A"}, Status: domain.StatusFailed},
			"C": {ID: "C", Complexity: 0.5, EstimatedSize: 10, Priority: 1, DependsOn: []string{"A"}, Status: domain.StatusScheduled},
			"D": {ID: "D", Complexity: 0.5, EstimatedSize: 10, Priority: 1, DependsOn: []string{"A"}, Status: domain.StatusPending},
		},
		Warnings: []string{"quality score 0.50 below threshold 0.85"},
	}
	p.Metrics.TotalUnits = 4
	p.Metrics.WaveCount = 3
	p.RefreshStatusCounts()
	return p
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m reviewModel, keys ...string) (reviewModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(reviewModel)
	}
	return m, cmd
}

func TestRenderPlan(t *testing.T) {
	out := RenderPlan(testPlan())

	assert.Contains(t, out, "Execution plan v3 (ready)")
	assert.Contains(t, out, "session s-1")
	assert.Contains(t, out, "Wave 1")
	assert.Contains(t, out, "Wave 2 (layer 1)")
	assert.Contains(t, out, "pending 1 · scheduled 1 · completed 1 · failed 1 · blocked 0")
	assert.Contains(t, out, "← A")
	assert.Contains(t, out, "quality score 0.50 below threshold 0.85")
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "✗")
}

func TestReviewModel_Navigation(t *testing.T) {
	m := newReviewModel(testPlan())
	assert.Nil(t, m.Init())

	m, _ = send(m, "j", "j", "j")
	assert.Equal(t, 2, m.cursor, "cursor stops at the last wave")
	m, _ = send(m, "k")
	assert.Equal(t, 1, m.cursor)

	m, _ = send(m, "enter")
	assert.Equal(t, modeWave, m.mode)
	assert.Contains(t, m.View(), "Wave 2 of 3")
	assert.Contains(t, m.View(), "after A")

	m, _ = send(m, "j")
	assert.Equal(t, 1, m.cursor, "no wave navigation inside a wave")
	m, _ = send(m, "esc")
	assert.Equal(t, modeWaves, m.mode)
}

func TestReviewModel_Approve(t *testing.T) {
	m, cmd := send(newReviewModel(testPlan()), "a")
	require.NotNil(t, m.result)
	assert.True(t, m.result.Approved)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Plan approved")
}

func TestReviewModel_Reject(t *testing.T) {
	m, _ := send(newReviewModel(testPlan()), "r", "t", "o", "o", "x", "backspace")
	assert.True(t, m.editing)
	assert.Equal(t, "too", m.reason)
	assert.Contains(t, m.View(), "Rejection reason")

	m, cmd := send(m, "enter")
	require.NotNil(t, m.result)
	assert.False(t, m.result.Approved)
	assert.Equal(t, "too", m.result.Reason)
	assert.NotNil(t, cmd)
}

func TestReviewModel_Quit(t *testing.T) {
	m, _ := send(newReviewModel(testPlan()), "q")
	require.NotNil(t, m.result)
	assert.False(t, m.result.Approved)
	assert.Equal(t, "review cancelled", m.result.Reason)
}

func TestRunPlanReview_EmptyPlan(t *testing.T) {
	res, err := RunPlanReview(&plan.ExecutionPlan{})
	require.NoError(t, err)
	assert.True(t, res.Approved)
}

func TestPromptForUnits_Empty(t *testing.T) {
	got, err := PromptForUnits("pick", nil)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestShouldPrompt_CI(t *testing.T) {
	t.Setenv("CI", "true")
	assert.False(t, ShouldPrompt())
}
