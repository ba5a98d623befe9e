package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/skillflow/pkg/models"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#45B7D1"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#96E6A1"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC857"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	headerCell   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell         = lipgloss.NewStyle().Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// statusStyle colors a security status.
func statusStyle(s models.SecurityStatus) lipgloss.Style {
	switch s {
	case models.SecurityPassed:
		return successStyle
	case models.SecurityWarning:
		return warningStyle
	case models.SecurityFailed:
		return errorStyle
	default:
		return mutedStyle
	}
}
