package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/agentsay/internal/ttypes"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	keyword   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Render
	paragraph = lipgloss.NewStyle().Width(78).Padding(0, 0, 0, 2).Render

	faint   = lipgloss.NewStyle().Faint(true).Render
	success = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true).Render
	warning = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB454")).Render
	failure = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Render
	header  = lipgloss.NewStyle().Bold(true).Underline(true).Render

	priorityStyles = map[ttypes.Priority]lipgloss.Style{
		ttypes.PriorityCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true),
		ttypes.PriorityHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB454")),
		ttypes.PriorityNormal:   lipgloss.NewStyle(),
		ttypes.PriorityLow:      lipgloss.NewStyle().Faint(true),
	}
)

// priority renders a priority name padded to width cells.
func priority(p ttypes.Priority, width int) string {
	p = p.Normalize()
	return priorityStyles[p].Render(runewidth.FillRight(string(p), width))
}

// stdoutIsTerminal reports whether stdout is attached to a terminal.
func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec
}

// terminalWidth returns the width of stdout, or fallback when it is not a
// terminal.
func terminalWidth(fallback int) int {
	if !stdoutIsTerminal() {
		return fallback
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd())) //nolint:gosec
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// plainOutputWhenPiped drops colours when agentsay is driven by another
// program.
func plainOutputWhenPiped() {
	if !stdoutIsTerminal() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}
