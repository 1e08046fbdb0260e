package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/waveplan/internal/plan"
)

// ReviewResult is the operator's verdict on a plan.
type ReviewResult struct {
	Approved bool
	Reason   string
}

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Back    key.Binding
	Approve key.Binding
	Reject  key.Binding
	Quit    key.Binding
}

var reviewKeys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Open:    key.NewBinding(key.WithKeys("enter", "right", "l"), key.WithHelp("enter", "open wave")),
	Back:    key.NewBinding(key.WithKeys("left", "h", "esc"), key.WithHelp("h/esc", "back")),
	Approve: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "approve")),
	Reject:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reject")),
	Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
}

func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, " | ")
}

type viewMode int

const (
	modeWaves viewMode = iota
	modeWave
)

// reviewModel walks the operator through a plan wave by wave.
type reviewModel struct {
	plan    *plan.ExecutionPlan
	styles  Styles
	cursor  int
	mode    viewMode
	reason  string
	editing bool
	result  *ReviewResult
}

func newReviewModel(p *plan.ExecutionPlan) reviewModel {
	return reviewModel{plan: p, styles: DefaultStyles()}
}

func (m reviewModel) Init() tea.Cmd { return nil }

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.editing {
		switch km.Type {
		case tea.KeyEnter:
			m.editing = false
			m.result = &ReviewResult{Approved: false, Reason: m.reason}
			return m, tea.Quit
		case tea.KeyEsc:
			m.editing = false
			m.reason = ""
		case tea.KeyBackspace:
			if len(m.reason) > 0 {
				m.reason = m.reason[:len(m.reason)-1]
			}
		case tea.KeyRunes, tea.KeySpace:
			m.reason += km.String()
		}
		return m, nil
	}

	switch {
	case key.Matches(km, reviewKeys.Quit):
		m.result = &ReviewResult{Approved: false, Reason: "review cancelled"}
		return m, tea.Quit
	case key.Matches(km, reviewKeys.Up):
		if m.mode == modeWaves && m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, reviewKeys.Down):
		if m.mode == modeWaves && m.cursor < len(m.plan.Waves)-1 {
			m.cursor++
		}
	case key.Matches(km, reviewKeys.Open):
		m.mode = modeWave
	case key.Matches(km, reviewKeys.Back):
		m.mode = modeWaves
	case key.Matches(km, reviewKeys.Approve):
		m.result = &ReviewResult{Approved: true}
		return m, tea.Quit
	case key.Matches(km, reviewKeys.Reject):
		m.editing = true
	}
	return m, nil
}

func (m reviewModel) View() string {
	st := m.styles
	if m.result != nil {
		if m.result.Approved {
			return st.Approve.Render("✓ Plan approved") + "\n"
		}
		reason := m.result.Reason
		if reason == "" {
			reason = "no reason given"
		}
		return st.Reject.Render("✗ Plan rejected: "+reason) + "\n"
	}

	var b strings.Builder
	b.WriteString(st.Title.Render(fmt.Sprintf("Plan review · %d units in %d waves",
		len(m.plan.Units), len(m.plan.Waves))))
	b.WriteString("\n\n")

	if m.mode == modeWaves {
		for i, w := range m.plan.Waves {
			line := fmt.Sprintf("Wave %d  %d units", w.Index, len(w.Units))
			if i == m.cursor {
				b.WriteString(st.Selected.Render("→ " + line))
			} else {
				b.WriteString(st.Item.Render(line))
			}
			b.WriteString("\n")
		}
	} else {
		w := m.plan.Waves[m.cursor]
		b.WriteString(st.Header.Render(fmt.Sprintf("Wave %d of %d (layer %d)", w.Index+1, len(m.plan.Waves), w.Layer)))
		b.WriteString("\n")
		for _, id := range w.Units {
			u := m.plan.Units[id]
			b.WriteString("  ")
			b.WriteString(st.Key.Render(fmt.Sprintf("%-20s", id)))
			b.WriteString(st.Value.Render(fmt.Sprintf(" %s  c=%.2f  size=%d", u.Priority, u.Complexity, u.EstimatedSize)))
			if len(u.DependsOn) > 0 {
				b.WriteString(st.Muted.Render("  after " + strings.Join(u.DependsOn, ", ")))
			}
			b.WriteString("\n")
		}
	}

	for _, w := range m.plan.Warnings {
		b.WriteString(st.Warning.Render("! " + w))
		b.WriteString("\n")
	}

	if m.editing {
		b.WriteString("\n")
		b.WriteString(st.Reject.Render("Rejection reason: "))
		b.WriteString(m.reason + "_")
		b.WriteString(st.Help.Render("enter: submit | esc: cancel"))
		return b.String()
	}

	k := reviewKeys
	if m.mode == modeWaves {
		b.WriteString(st.Help.Render(helpLine(k.Up, k.Down, k.Open, k.Approve, k.Reject, k.Quit)))
	} else {
		b.WriteString(st.Help.Render(helpLine(k.Back, k.Approve, k.Reject, k.Quit)))
	}
	return b.String()
}

// RunPlanReview lets an operator browse p and approve or reject it. A plan
// without waves is approved without prompting.
func RunPlanReview(p *plan.ExecutionPlan) (*ReviewResult, error) {
	if len(p.Waves) == 0 {
		return &ReviewResult{Approved: true}, nil
	}

	final, err := tea.NewProgram(newReviewModel(p)).Run()
	if err != nil {
		return nil, fmt.Errorf("running plan review UI: %w", err)
	}
	m, ok := final.(reviewModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type: %T", final)
	}
	if m.result == nil {
		return &ReviewResult{Approved: false, Reason: "review ended without a decision"}, nil
	}
	return m.result, nil
}
