package tui

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/waveplan/internal/plan"
)

// RenderPlan renders a plan version as a wave-by-wave listing with its
// summary metrics and quality warnings.
func RenderPlan(p *plan.ExecutionPlan) string {
	return renderPlan(p, DefaultStyles())
}

func renderPlan(p *plan.ExecutionPlan, st Styles) string {
	var b strings.Builder

	title := fmt.Sprintf("Execution plan v%d (%s)", p.Version, p.Status)
	if p.SessionID != "" {
		title += "  session " + p.SessionID
	}
	b.WriteString(st.Title.Render(title))
	b.WriteString("\n")

	m := p.Metrics
	summary := fmt.Sprintf("units %d · waves %d · critical path %d · max width %d · quality %.2f",
		m.TotalUnits, m.WaveCount, m.CriticalPathLength, m.MaxWaveSize, m.QualityScore)
	b.WriteString(st.Box.Render(summary))
	b.WriteString("\n")

	progress := fmt.Sprintf("pending %d · scheduled %d · completed %d · failed %d · blocked %d",
		m.PendingUnits, m.ScheduledUnits, m.CompletedUnits, m.FailedUnits, m.BlockedUnits)
	b.WriteString(st.Muted.Render(progress))
	b.WriteString("\n\n")

	for _, w := range p.Waves {
		header := fmt.Sprintf("Wave %d", w.Index)
		if w.Layer != w.Index {
			header += fmt.Sprintf(" (layer %d)", w.Layer)
		}
		b.WriteString(st.Header.Render(header))
		b.WriteString("\n")
		for _, id := range w.Units {
			u := p.Units[id]
			b.WriteString("  ")
			b.WriteString(statusBadge(u.Status))
			b.WriteString(" ")
			b.WriteString(st.Value.Render(fmt.Sprintf("%-20s %s  c=%.2f  size=%d", id, u.Priority, u.Complexity, u.EstimatedSize)))
			if len(u.DependsOn) > 0 {
				b.WriteString(st.Muted.Render("  ← " + strings.Join(u.DependsOn, ", ")))
			}
			b.WriteString("\n")
		}
	}

	if len(p.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(st.Header.Render("Warnings"))
		b.WriteString("\n")
		for _, w := range p.Warnings {
			b.WriteString(st.Warning.Render("  ! " + w))
			b.WriteString("\n")
		}
	}

	return b.String()
}
