package main

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles for one background.
type palette struct {
	heading lipgloss.Style
	muted   lipgloss.Style
	good    lipgloss.Style
	fair    lipgloss.Style
	poor    lipgloss.Style
}

var (
	darkPalette = palette{
		heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")),
		good:    lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")),
		fair:    lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")),
		poor:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")),
	}
	lightPalette = palette{
		heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1F1F1F")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E")),
		good:    lipgloss.NewStyle().Foreground(lipgloss.Color("#237804")),
		fair:    lipgloss.NewStyle().Foreground(lipgloss.Color("#AD6800")),
		poor:    lipgloss.NewStyle().Foreground(lipgloss.Color("#A8071A")),
	}
)

func paletteFor(dark bool) palette {
	if dark {
		return darkPalette
	}
	return lightPalette
}

// score colours a 0-100 score by band.
func (p palette) score(n int) string {
	s := p.poor
	switch {
	case n >= 70:
		s = p.good
	case n >= 50:
		s = p.fair
	}
	return s.Render(strconv.Itoa(n))
}
