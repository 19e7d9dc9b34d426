package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Box     lipgloss.Style
	On      lipgloss.Style
	Off     lipgloss.Style
	Idle    lipgloss.Style
	Running lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1),
		On:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		Off:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Idle:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Running: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Failure: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}
