// Package tui implements the live session view behind `cv status --watch`.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/deeklead/conclave/internal/session"
)

// refreshInterval is how often the view re-reads the session record.
const refreshInterval = 500 * time.Millisecond

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
)

// Watch runs the live view for a session until it ends or the user quits.
func Watch(store *session.Store, id string) error {
	m := newModel(store, id)
	_, err := tea.NewProgram(m).Run()
	return err
}

type model struct {
	store *session.Store
	id    string

	rec  *session.Record
	gone bool
	err  error

	spin spinner.Model
}

func newModel(store *session.Store, id string) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = pendingStyle
	return model{store: store, id: id, spin: sp}
}

// refreshMsg carries the result of re-reading the session record.
type refreshMsg struct {
	rec  *session.Record
	gone bool
	err  error
}

func (m model) refresh() tea.Msg {
	rec, err := m.store.Load(m.id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return refreshMsg{gone: true}
		}
		return refreshMsg{err: err}
	}
	return refreshMsg{rec: rec}
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.refresh, m.spin.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil

	case refreshMsg:
		m.rec, m.gone, m.err = msg.rec, msg.gone, msg.err
		if m.gone || m.err != nil {
			return m, tea.Quit
		}
		return m, tick()

	case tickMsg:
		return m, m.refresh

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("watch: %v\n", m.err)
	}
	if m.gone {
		return dimStyle.Render("session ended") + "\n"
	}
	if m.rec == nil {
		return m.spin.View() + " loading\n"
	}

	s := &m.rec.Session
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render(s.Chain), dimStyle.Render(s.ID))
	fmt.Fprintf(&b, "%s\n\n", s.Task)
	fmt.Fprintf(&b, "%s phase %d/%d\n\n", renderBar(s.Progress(), 30), s.PhaseIndex, len(s.Phases))

	for i, p := range s.Phases {
		for _, role := range p.Roles {
			switch {
			case i < s.PhaseIndex || s.PhaseSatisfied(i):
				fmt.Fprintf(&b, "  %s %s\n", doneStyle.Render("✓"), role)
			case i == s.PhaseIndex:
				fmt.Fprintf(&b, "  %s %s\n", m.spin.View(), role)
			default:
				fmt.Fprintf(&b, "  %s\n", dimStyle.Render("· "+role))
			}
		}
	}

	fmt.Fprintf(&b, "\nloops %d", m.rec.Guard.Loops)
	if m.rec.Guard.Tripped {
		fmt.Fprintf(&b, "  %s", pendingStyle.Render("breaker: "+m.rec.Guard.TripReason))
	}
	b.WriteString(dimStyle.Render("\n\nq to quit\n"))
	return b.String()
}

func renderBar(frac float64, width int) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return barStyle.Render(bar)
}
