package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Header renders the skillflow title bar.
type Header struct {
	width   int
	version string
}

// NewHeader creates a new Header.
func NewHeader(version string) *Header {
	return &Header{width: 80, version: version}
}

// SetWidth sets the header width.
func (h *Header) SetWidth(width int) {
	h.width = width
}

// View renders the header.
func (h *Header) View() string {
	colors := []string{"#FF6B6B", "#FF8E53", "#FFC857", "#4ECDC4", "#45B7D1", "#96E6A1"}

	var letters []string
	for i, r := range "skillflow" {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(colors[i%len(colors)])).Bold(true)
		letters = append(letters, style.Render(string(r)))
	}
	logo := lipgloss.JoinHorizontal(lipgloss.Bottom, letters...)

	subtitle := mutedStyle.Render("Skill Orchestration Engine " + h.version)

	return lipgloss.NewStyle().
		Width(h.width).
		PaddingBottom(1).
		Render(lipgloss.JoinVertical(lipgloss.Left, logo, subtitle))
}
