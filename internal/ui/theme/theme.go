package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette, readable on dark and light terminals
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Quiz
var (
	QuestionNumber = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	Question = lipgloss.NewStyle().
			Bold(true)

	OptionLetter = lipgloss.NewStyle().
			Foreground(Primary)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
)

// Status lines
var (
	Warning = lipgloss.NewStyle().
		Foreground(Accent)

	Failure = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)
)
