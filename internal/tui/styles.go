// Package tui renders execution plans for terminals: a static lipgloss
// rendering for command output and an interactive review program.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/waveplan/internal/domain"
)

// Styles holds the lipgloss styles shared by the renderers.
type Styles struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Muted    lipgloss.Style
	Item     lipgloss.Style
	Selected lipgloss.Style
	Key      lipgloss.Style
	Value    lipgloss.Style
	Warning  lipgloss.Style
	Approve  lipgloss.Style
	Reject   lipgloss.Style
	Help     lipgloss.Style
	Box      lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Item:     lipgloss.NewStyle().PaddingLeft(4),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true).PaddingLeft(2),
		Key:      lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true),
		Value:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Approve:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Reject:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Help:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1),
	}
}

var statusGlyphs = map[domain.Status]string{
	domain.StatusPending:   "○",
	domain.StatusScheduled: "◐",
	domain.StatusCompleted: "✓",
	domain.StatusFailed:    "✗",
	domain.StatusBlocked:   "⊘",
}

var statusColors = map[domain.Status]lipgloss.Color{
	domain.StatusPending:   "252",
	domain.StatusScheduled: "39",
	domain.StatusCompleted: "10",
	domain.StatusFailed:    "9",
	domain.StatusBlocked:   "214",
}

func statusBadge(s domain.Status) string {
	glyph, ok := statusGlyphs[s]
	if !ok {
		glyph = "?"
	}
	return lipgloss.NewStyle().Foreground(statusColors[s]).Render(glyph)
}
