package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Slider is one horizontal gain fader: label, bar, percentage and a
// mute hint. The mixer view owns the value; the slider only renders it.
type Slider struct {
	Label      string
	Value      int // 0-100
	Width      int
	Focused    bool
	Failed     bool
	LabelWidth int

	LabelStyle   lipgloss.Style
	FocusedStyle lipgloss.Style
	FilledStyle  lipgloss.Style
	EmptyStyle   lipgloss.Style
	FailedStyle  lipgloss.Style
}

// NewSlider creates a slider with the given label.
func NewSlider(label string, width int) Slider {
	return Slider{
		Label:      label,
		Value:      100,
		Width:      width,
		LabelWidth: 14,
		LabelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")),
		FocusedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true),
		FilledStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")),
		EmptyStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		FailedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
	}
}

// Update handles messages for the slider
func (s Slider) Update(msg tea.Msg) (Slider, tea.Cmd) {
	return s, nil
}

// View renders the slider
func (s Slider) View() string {
	label := s.Label
	if len(label) > s.LabelWidth {
		label = label[:s.LabelWidth-1] + "…"
	}
	label = fmt.Sprintf("%-*s", s.LabelWidth, label)

	if s.Failed {
		return s.FailedStyle.Render(label + " ✗ unavailable")
	}

	barWidth := s.Width - s.LabelWidth - 10
	if barWidth < 10 {
		barWidth = 10
	}
	filled := barWidth * s.Value / 100
	bar := s.FilledStyle.Render(strings.Repeat("█", filled)) +
		s.EmptyStyle.Render(strings.Repeat("░", barWidth-filled))

	var muted string
	if s.Value == 0 {
		muted = " 🔇"
	}

	line := fmt.Sprintf("%s %s %3d%%%s", label, bar, s.Value, muted)
	if s.Focused {
		return s.FocusedStyle.Render("▶ ") + line
	}
	return "  " + line
}
