package progress

import "github.com/charmbracelet/lipgloss"

var (
	gruvboxFg2    = lipgloss.Color("#d5c4a1")
	gruvboxGreen  = lipgloss.Color("#b8bb26")
	gruvboxYellow = lipgloss.Color("#fabd2f")
	gruvboxBlue   = lipgloss.Color("#83a598")
	gruvboxAqua   = lipgloss.Color("#8ec07c")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(gruvboxYellow)

	workerLabelStyle = lipgloss.NewStyle().
				Foreground(gruvboxBlue).
				Width(10)

	totalLabelStyle = lipgloss.NewStyle().
			Foreground(gruvboxYellow).
			Bold(true).
			Width(10)

	percentStyle = lipgloss.NewStyle().
			Foreground(gruvboxAqua).
			Width(8).
			Align(lipgloss.Right)

	sizeStyle = lipgloss.NewStyle().
			Foreground(gruvboxFg2).
			Faint(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(gruvboxGreen).
			Bold(true)
)
