package main

import "github.com/charmbracelet/lipgloss"

// Layout constants
const (
	bitsW  = 12 // width of the phase bitstring column
	valueW = 8  // width of the phase value column
	freqW  = 8  // width of the frequency column
	minBar = 10 // narrowest histogram bar
)

// Lipgloss styles shared by the histogram printer and the browser.
var (
	histogramStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7aa2f7")).
			Padding(1)

	circuitStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#bb9af7")).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#9ece6a")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff9e64"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff9e64"))

	bitsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7dcfff"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#73daca"))

	peakStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#e0af68"))

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e0af68"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565f89"))
)
