package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/yarango582/tunesplit-web/api"
	"github.com/yarango582/tunesplit-web/internal/ui/components"
)

// MixerView renders the transport and the gain faders for the loaded
// song. Focus 0 is the master fader; 1..N are the stems, in track
// order. It is pure presentation: the app translates key gestures into
// engine calls and feeds the resulting state back in via SetState.
type MixerView struct {
	Width  int
	Height int

	State     api.EngineState
	Progress  components.ProgressBar
	Focus     int
	Uploading bool
	UploadPct int
	ErrMsg    string

	TitleStyle    lipgloss.Style
	StatusStyle   lipgloss.Style
	SectionStyle  lipgloss.Style
	ErrorStyle    lipgloss.Style
	ControlsStyle lipgloss.Style
	BorderStyle   lipgloss.Style
}

// NewMixerView creates a new mixer view
func NewMixerView(width, height int) MixerView {
	return MixerView{
		Width:    width,
		Height:   height,
		Progress: components.NewProgressBar(width - 8),
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginBottom(1),
		StatusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
		SectionStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")),
		ErrorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		ControlsStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
	}
}

// SetState updates the rendered engine state and the scrubber.
func (v *MixerView) SetState(state api.EngineState) {
	v.State = state
	v.Progress.SetProgress(state.Position, state.Duration)
	if max := len(state.Tracks); v.Focus > max {
		v.Focus = max
	}
}

// Update handles messages
func (v MixerView) Update(msg tea.Msg) (MixerView, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "up", "k":
			if v.Focus > 0 {
				v.Focus--
			}
		case "down", "j":
			if v.Focus < len(v.State.Tracks) {
				v.Focus++
			}
		}
	}
	return v, nil
}

// FocusedTrack returns the focused stem index, or -1 for the master
// fader.
func (v *MixerView) FocusedTrack() int {
	return v.Focus - 1
}

// FocusedVolume returns the current volume of the focused fader.
func (v *MixerView) FocusedVolume() int {
	if v.Focus == 0 {
		return v.State.MasterVolume
	}
	if i := v.Focus - 1; i < len(v.State.Tracks) {
		return v.State.Tracks[i].Volume
	}
	return 0
}

// View renders the mixer view
func (v MixerView) View() string {
	var sb strings.Builder

	sb.WriteString(v.TitleStyle.Render("TuneSplit"))
	sb.WriteString("\n")

	switch {
	case v.Uploading:
		sb.WriteString(v.StatusStyle.Render("⏳ Analyzing song..."))
		sb.WriteString("\n")
		sb.WriteString(renderPercent(v.UploadPct, v.Width-12))
		sb.WriteString("\n")

	case v.State.Status == api.StatusLoading:
		sb.WriteString(v.StatusStyle.Render("⏳ Loading song..."))
		sb.WriteString("\n")

	case len(v.State.Tracks) == 0:
		sb.WriteString("No song loaded")
		sb.WriteString("\n\n")
		sb.WriteString(v.ControlsStyle.Render("Press [u] to upload a song"))

	default:
		sb.WriteString(v.renderPlayer())
		sb.WriteString("\n")
		sb.WriteString(v.renderFaders())
	}

	if v.ErrMsg != "" {
		sb.WriteString("\n")
		sb.WriteString(v.ErrorStyle.Render(v.ErrMsg))
	}

	sb.WriteString("\n")
	sb.WriteString(v.ControlsStyle.Render(
		"[Space] Play/Pause  [←/→] Seek 10s  [↑/↓] Fader  [,/.] Volume  [m] Mute  [u] Upload  [L] Logout  [q] Quit",
	))

	return v.BorderStyle.Width(v.Width - 4).Render(sb.String())
}

// renderPlayer renders the transport block.
func (v MixerView) renderPlayer() string {
	var sb strings.Builder

	var statusIcon string
	switch v.State.Status {
	case api.StatusPlaying:
		statusIcon = "▶"
	case api.StatusPaused:
		statusIcon = "⏸"
	default:
		statusIcon = "⏹"
	}

	sb.WriteString(v.StatusStyle.Render(statusIcon + " "))
	sb.WriteString(v.TitleStyle.Render(v.State.SongName))
	sb.WriteString("\n")
	sb.WriteString(v.Progress.View())
	sb.WriteString("\n")
	return sb.String()
}

// renderFaders renders master plus one fader per stem.
func (v MixerView) renderFaders() string {
	var sb strings.Builder

	sb.WriteString(v.SectionStyle.Render("Mixer"))
	sb.WriteString("\n")

	master := components.NewSlider("Master", v.Width-10)
	master.Value = v.State.MasterVolume
	master.Focused = v.Focus == 0
	sb.WriteString(master.View())
	sb.WriteString("\n")

	for i, tr := range v.State.Tracks {
		s := components.NewSlider(tr.Name, v.Width-10)
		s.Value = tr.Volume
		s.Focused = v.Focus == i+1
		s.Failed = tr.Failed
		sb.WriteString(s.View())
		if i < len(v.State.Tracks)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// renderPercent renders the coarse upload progress readout.
func renderPercent(pct, width int) string {
	if width < 10 {
		width = 10
	}
	filled := width * pct / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %3d%%", bar, pct)
}
