package main

import "github.com/charmbracelet/lipgloss"

// Color palette, shared with the dashboard theme where it overlaps.
var (
	mintGreen   = lipgloss.Color("#A8E6CF") // headers and success states
	mutedGray   = lipgloss.Color("#6B7280") // secondary text
	brightWhite = lipgloss.Color("#F9FAFB") // primary text
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	responseStyle = lipgloss.NewStyle().
			Foreground(brightWhite)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(mintGreen)
)
