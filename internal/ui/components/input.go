package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TextInput is a single-line input field. With Secret set the value is
// rendered masked, for the password prompt.
type TextInput struct {
	Value       string
	Placeholder string
	Focused     bool
	Secret      bool
	Width       int
	CursorPos   int
	Style       lipgloss.Style
	FocusStyle  lipgloss.Style
	Prompt      string
}

// NewTextInput creates a new text input
func NewTextInput(prompt, placeholder string, width int) TextInput {
	return TextInput{
		Prompt:      prompt,
		Placeholder: placeholder,
		Width:       width,
		Style: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		FocusStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("212")).
			Padding(0, 1),
	}
}

// Focus sets focus on the input
func (s *TextInput) Focus() {
	s.Focused = true
}

// Blur removes focus from the input
func (s *TextInput) Blur() {
	s.Focused = false
}

// Clear clears the input
func (s *TextInput) Clear() {
	s.Value = ""
	s.CursorPos = 0
}

// Update handles messages for the text input
func (s TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if !s.Focused {
		return s, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyBackspace:
			if len(s.Value) > 0 && s.CursorPos > 0 {
				s.Value = s.Value[:s.CursorPos-1] + s.Value[s.CursorPos:]
				s.CursorPos--
			}
		case tea.KeyDelete:
			if s.CursorPos < len(s.Value) {
				s.Value = s.Value[:s.CursorPos] + s.Value[s.CursorPos+1:]
			}
		case tea.KeyLeft:
			if s.CursorPos > 0 {
				s.CursorPos--
			}
		case tea.KeyRight:
			if s.CursorPos < len(s.Value) {
				s.CursorPos++
			}
		case tea.KeyHome:
			s.CursorPos = 0
		case tea.KeyEnd:
			s.CursorPos = len(s.Value)
		case tea.KeyRunes:
			// Insert character at cursor position
			char := string(msg.Runes)
			s.Value = s.Value[:s.CursorPos] + char + s.Value[s.CursorPos:]
			s.CursorPos += len(char)
		}
	}

	return s, nil
}

// View renders the text input
func (s TextInput) View() string {
	// One mask byte per value byte keeps CursorPos valid for slicing.
	shown := s.Value
	if s.Secret {
		shown = strings.Repeat("*", len(s.Value))
	}

	var content string
	if s.Value == "" && !s.Focused {
		content = s.Prompt + lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(s.Placeholder)
	} else if s.Focused {
		before := shown[:s.CursorPos]
		after := shown[s.CursorPos:]
		cursor := lipgloss.NewStyle().Background(lipgloss.Color("212")).Render(" ")
		content = s.Prompt + before + cursor + after
	} else {
		content = s.Prompt + shown
	}

	maxWidth := s.Width - 4
	if len(content) > maxWidth {
		content = content[:maxWidth]
	}

	if s.Focused {
		return s.FocusStyle.Width(s.Width).Render(content)
	}
	return s.Style.Width(s.Width).Render(content)
}
