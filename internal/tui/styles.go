// Package tui renders the grownby screens in the terminal with bubbletea.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	Green  = lipgloss.Color("#4CAF50")
	Soil   = lipgloss.Color("#795548")
	Muted  = lipgloss.Color("#8a8f98")
	Danger = lipgloss.Color("#e53935")
	Ink    = lipgloss.Color("#f2f2f2")
)

// Styles is the set of lipgloss styles the views use.
type Styles struct {
	Header  lipgloss.Style
	Title   lipgloss.Style
	Label   lipgloss.Style
	Focused lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Help    lipgloss.Style
	Row     lipgloss.Style
	Cell    lipgloss.Style
	Box     lipgloss.Style
}

// DefaultStyles returns the app's styles.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(Ink).Background(Green).Padding(0, 1),
		Title:   lipgloss.NewStyle().Bold(true).Foreground(Green).MarginBottom(1),
		Label:   lipgloss.NewStyle().Foreground(Muted).Width(18),
		Focused: lipgloss.NewStyle().Foreground(Green).Bold(true).Width(18),
		Error:   lipgloss.NewStyle().Foreground(Danger),
		Success: lipgloss.NewStyle().Foreground(Green).Bold(true),
		Help:    lipgloss.NewStyle().Foreground(Muted).MarginTop(1),
		Row:     lipgloss.NewStyle().Foreground(Soil),
		Cell:    lipgloss.NewStyle().PaddingRight(2),
		Box:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(Green).Padding(0, 1),
	}
}
