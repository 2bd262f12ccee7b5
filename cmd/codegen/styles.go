package main

import (
	"github.com/charmbracelet/lipgloss"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for secondary text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	// WarningStyle for diagnostics.
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	// SuccessStyle for completed steps.
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
