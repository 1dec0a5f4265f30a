// Package style provides shared lipgloss styles for human-facing output.
// Machine-readable control tokens are printed unstyled; these styles only
// dress the surrounding status text, and only when stdout is a terminal.
package style

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	// Bold highlights headings and role names.
	Bold = lipgloss.NewStyle().Bold(true)

	// Dim de-emphasizes secondary detail.
	Dim = lipgloss.NewStyle().Faint(true)

	// Success marks approved outcomes.
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	// Warning marks pending or forced conditions.
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	// Error marks rejected outcomes and faults.
	Error = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// IsTTY reports whether stdout is a terminal. Styled output is suppressed
// when piping into another tool.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Render applies st only when writing to a terminal.
func Render(st lipgloss.Style, s string) string {
	if !IsTTY() {
		return s
	}
	return st.Render(s)
}
