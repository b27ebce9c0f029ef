package tui

import "github.com/charmbracelet/lipgloss"

// Styles - оформление экранов.
type Styles struct {
	Title    lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	Notice   lipgloss.Style
	Error    lipgloss.Style
	Help     lipgloss.Style
	Key      lipgloss.Style
}

func DefaultStyles() Styles {
	accent := lipgloss.Color("62")
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(accent).
			Padding(0, 1),
		Selected: lipgloss.NewStyle().Foreground(accent).Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Notice:   lipgloss.NewStyle().Foreground(lipgloss.Color("35")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Help:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Key:      lipgloss.NewStyle().Foreground(accent).Bold(true),
	}
}
