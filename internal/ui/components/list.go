package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/yarango582/tunesplit-web/api"
)

// SongList is the scrollable sidebar of processed songs.
type SongList struct {
	Items         []*api.Song
	Selected      int
	Height        int
	Width         int
	Offset        int
	Title         string
	CurrentID     string // currently loaded song, marked in the list
	SelectedStyle lipgloss.Style
	NormalStyle   lipgloss.Style
	CurrentStyle  lipgloss.Style
	TitleStyle    lipgloss.Style
}

// NewSongList creates a new song list
func NewSongList(height, width int) SongList {
	return SongList{
		Items:    make([]*api.Song, 0),
		Selected: 0,
		Height:   height,
		Width:    width,
		Offset:   0,
		Title:    "Processed songs",
		SelectedStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Bold(true).
			Padding(0, 1),
		NormalStyle: lipgloss.NewStyle().
			Padding(0, 1),
		CurrentStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Padding(0, 1),
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginBottom(1),
	}
}

// SetItems sets the list items, keeping the selection when possible.
func (l *SongList) SetItems(items []*api.Song) {
	l.Items = items
	if l.Selected >= len(items) {
		l.Selected = 0
		l.Offset = 0
	}
}

// Update handles messages for the song list
func (l SongList) Update(msg tea.Msg) (SongList, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "home":
			l.Selected = 0
			l.Offset = 0
		case "end":
			if len(l.Items) > 0 {
				l.Selected = len(l.Items) - 1
				l.ensureVisible()
			}
		}
	}
	return l, nil
}

// MoveUp moves selection up
func (l *SongList) MoveUp() {
	if l.Selected > 0 {
		l.Selected--
		l.ensureVisible()
	}
}

// MoveDown moves selection down
func (l *SongList) MoveDown() {
	if l.Selected < len(l.Items)-1 {
		l.Selected++
		l.ensureVisible()
	}
}

// ensureVisible ensures the selected item is visible
func (l *SongList) ensureVisible() {
	visibleHeight := l.Height - 2
	if visibleHeight < 1 {
		visibleHeight = 1
	}

	if l.Selected < l.Offset {
		l.Offset = l.Selected
	} else if l.Selected >= l.Offset+visibleHeight {
		l.Offset = l.Selected - visibleHeight + 1
	}
}

// SelectedItem returns the currently selected song
func (l *SongList) SelectedItem() *api.Song {
	if l.Selected >= 0 && l.Selected < len(l.Items) {
		return l.Items[l.Selected]
	}
	return nil
}

// View renders the song list
func (l SongList) View() string {
	var sb strings.Builder

	if l.Title != "" {
		sb.WriteString(l.TitleStyle.Render(l.Title))
		sb.WriteString("\n")
	}

	if len(l.Items) == 0 {
		sb.WriteString(l.NormalStyle.Render("No songs yet"))
		return sb.String()
	}

	visibleHeight := l.Height - 2
	if visibleHeight < 1 {
		visibleHeight = 1
	}

	end := l.Offset + visibleHeight
	if end > len(l.Items) {
		end = len(l.Items)
	}

	for i := l.Offset; i < end; i++ {
		song := l.Items[i]

		marker := "  "
		if song.ID == l.CurrentID {
			marker = "♪ "
		}
		line := fmt.Sprintf("%s%s (%d stems)", marker, truncate(song.Name, 24), len(song.Tracks))
		if len(line) > l.Width-2 {
			line = line[:l.Width-5] + "..."
		}

		switch {
		case i == l.Selected:
			sb.WriteString(l.SelectedStyle.Render(line))
		case song.ID == l.CurrentID:
			sb.WriteString(l.CurrentStyle.Render(line))
		default:
			sb.WriteString(l.NormalStyle.Render(line))
		}

		if i < end-1 {
			sb.WriteString("\n")
		}
	}

	if len(l.Items) > visibleHeight {
		sb.WriteString("\n")
		sb.WriteString(l.NormalStyle.Render(fmt.Sprintf("  [%d/%d]", l.Selected+1, len(l.Items))))
	}

	return sb.String()
}

// truncate truncates a string to the specified length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
