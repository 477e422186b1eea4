package main

import "github.com/charmbracelet/lipgloss"

// ANSI colors 0-15 only, so the terminal theme applies.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.ANSIColor(11)).
			Reverse(true).
			Padding(0, 1)

	cursorStyle = lipgloss.NewStyle().Reverse(true).Bold(true)
	indexStyle  = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(8))  // Dark gray
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(12)) // Bright blue
	urlStyle    = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(7))

	loadingStyle = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(8)).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(9)).Bold(true) // Bright red
	emptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(8))

	helpKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(8))
	helpDescStyle = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(7))

	detailLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(3)).Bold(true) // Yellow
	detailValueStyle = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(7))
	detailPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.ANSIColor(8)).
				Padding(0, 1)
)
