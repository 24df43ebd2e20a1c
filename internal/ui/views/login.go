package views

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/yarango582/tunesplit-web/internal/ui/components"
)

// LoginView is the mocked login gate screen.
type LoginView struct {
	Width  int
	Height int

	Username components.TextInput
	Password components.TextInput
	ErrMsg   string

	TitleStyle  lipgloss.Style
	ErrorStyle  lipgloss.Style
	HelpStyle   lipgloss.Style
	BorderStyle lipgloss.Style
}

// NewLoginView creates a new login view
func NewLoginView(width, height int) LoginView {
	v := LoginView{
		Width:    width,
		Height:   height,
		Username: components.NewTextInput("👤 ", "Username", 36),
		Password: components.NewTextInput("🔑 ", "Password", 36),
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginBottom(1),
		ErrorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		HelpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
	}
	v.Password.Secret = true
	v.Username.Focus()
	return v
}

// Update handles messages; tab moves between the two fields.
func (v LoginView) Update(msg tea.Msg) (LoginView, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "shift+tab", "up", "down":
			if v.Username.Focused {
				v.Username.Blur()
				v.Password.Focus()
			} else {
				v.Password.Blur()
				v.Username.Focus()
			}
			return v, nil
		}
	}

	v.Username, _ = v.Username.Update(msg)
	v.Password, _ = v.Password.Update(msg)
	return v, nil
}

// Credentials returns the entered username and password.
func (v *LoginView) Credentials() (string, string) {
	return v.Username.Value, v.Password.Value
}

// Reset clears both fields, keeping any error message.
func (v *LoginView) Reset() {
	v.Username.Clear()
	v.Password.Clear()
	v.Password.Blur()
	v.Username.Focus()
}

// View renders the login view
func (v LoginView) View() string {
	var sb strings.Builder

	sb.WriteString(v.TitleStyle.Render("Login to TuneSplit"))
	sb.WriteString("\n")
	sb.WriteString(v.Username.View())
	sb.WriteString("\n")
	sb.WriteString(v.Password.View())
	sb.WriteString("\n")

	if v.ErrMsg != "" {
		sb.WriteString(v.ErrorStyle.Render(v.ErrMsg))
		sb.WriteString("\n")
	}

	sb.WriteString(v.HelpStyle.Render("[Tab] Switch field  [Enter] Login  [Ctrl+C] Quit"))

	card := v.BorderStyle.Render(sb.String())
	return lipgloss.Place(v.Width, v.Height, lipgloss.Center, lipgloss.Center, card)
}
