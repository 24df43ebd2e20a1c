package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/yarango582/tunesplit-web/api"
	"github.com/yarango582/tunesplit-web/internal/config"
	"github.com/yarango582/tunesplit-web/internal/separation"
	"github.com/yarango582/tunesplit-web/internal/session"
	"github.com/yarango582/tunesplit-web/internal/store"
	"github.com/yarango582/tunesplit-web/internal/ui/components"
	"github.com/yarango582/tunesplit-web/internal/ui/views"
	tserrors "github.com/yarango582/tunesplit-web/pkg/errors"
)

// ViewType represents the current active view
type ViewType int

const (
	ViewLogin ViewType = iota
	ViewMixer
	ViewUpload
)

// focusArea selects which pane receives navigation keys.
type focusArea int

const (
	focusFaders focusArea = iota
	focusSongs
)

// Model is the main bubbletea model
type Model struct {
	// Dimensions
	width  int
	height int

	// Current view
	activeView ViewType
	focus      focusArea

	// Views
	loginView views.LoginView
	mixerView views.MixerView
	songList  components.SongList
	browser   components.FileBrowser

	// Collaborators, injected — no ambient singletons.
	engine api.Mixer
	store  *store.Store
	gate   *session.Gate
	client *separation.Client
	cfg    *config.Config

	// State
	ctx       context.Context
	cancel    context.CancelFunc
	events    <-chan api.Event
	uploading bool
	uploadPct *int32
}

// TickMsg is sent on the position poll interval
type TickMsg time.Time

// EngineEventMsg wraps an engine event for the update loop
type EngineEventMsg api.Event

type uploadDoneMsg struct {
	song *api.Song
	err  error
}

type loadDoneMsg struct {
	err error
}

// NewModel creates the application model.
func NewModel(ctx context.Context, cfg *config.Config, engine api.Mixer, st *store.Store, gate *session.Gate, client *separation.Client) Model {
	ctx, cancel := context.WithCancel(ctx)

	m := Model{
		width:      100,
		height:     30,
		activeView: ViewLogin,
		engine:     engine,
		store:      st,
		gate:       gate,
		client:     client,
		cfg:        cfg,
		ctx:        ctx,
		cancel:     cancel,
		events:     engine.Events(),
		uploadPct:  new(int32),
	}

	if gate.LoggedIn() {
		m.activeView = ViewMixer
	}

	m.loginView = views.NewLoginView(m.width, m.height)
	m.mixerView = views.NewMixerView(m.width-34, m.height)
	m.songList = components.NewSongList(m.height-6, 30)
	m.browser = components.NewFileBrowser("", cfg.MaxUploadBytes, m.width-34, m.height-4)
	m.songList.SetItems(st.Songs())

	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.tickCmd(),
		m.listenForEvents(),
	)
}

// tickCmd drives the periodic position/display refresh.
func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.cfg.PollInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// listenForEvents returns a command that waits for one engine event
func (m Model) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		select {
		case event, ok := <-m.events:
			if !ok {
				return nil
			}
			return EngineEventMsg(event)
		case <-m.ctx.Done():
			return nil
		}
	}
}

// uploadCmd runs the analyze round trip off the update loop.
func (m Model) uploadCmd(path string, size int64) tea.Cmd {
	pct := m.uploadPct
	client := m.client
	ctx := m.ctx
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return uploadDoneMsg{err: err}
		}
		defer f.Close()

		name := separation.SongName(f, filepath.Base(path))
		tracks, err := client.Analyze(ctx, f, filepath.Base(path), size, func(p int) {
			atomic.StoreInt32(pct, int32(p))
		})
		if err != nil {
			return uploadDoneMsg{err: err}
		}
		return uploadDoneMsg{song: store.NewSong(name, tracks)}
	}
}

// loadSongCmd rebuilds the playback session for song.
func (m Model) loadSongCmd(song *api.Song) tea.Cmd {
	engine := m.engine
	ctx := m.ctx
	return func() tea.Msg {
		return loadDoneMsg{err: engine.LoadSong(ctx, song)}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewSizes()

	case TickMsg:
		m.mixerView.SetState(m.engine.State())
		m.mixerView.Uploading = m.uploading
		m.mixerView.UploadPct = int(atomic.LoadInt32(m.uploadPct))
		cmds = append(cmds, m.tickCmd())

	case EngineEventMsg:
		m.mixerView.SetState(m.engine.State())
		if msg.Type == api.EventTrackFailed {
			if err, ok := msg.Payload.(error); ok {
				m.mixerView.ErrMsg = err.Error()
			}
		}
		cmds = append(cmds, m.listenForEvents())

	case uploadDoneMsg:
		m.uploading = false
		m.mixerView.Uploading = false
		if msg.err != nil {
			m.mixerView.ErrMsg = uploadErrorMessage(msg.err)
		} else {
			// The store is only touched after a successful analyze.
			m.store.AddSong(msg.song)
			m.songList.SetItems(m.store.Songs())
			m.songList.CurrentID = msg.song.ID
			m.mixerView.ErrMsg = ""
			cmds = append(cmds, m.loadSongCmd(msg.song))
		}

	case loadDoneMsg:
		if msg.err != nil {
			m.mixerView.ErrMsg = msg.err.Error()
		}
		m.mixerView.SetState(m.engine.State())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, tea.Batch(cmds...)
}

// handleKey routes key presses by active view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.cancel()
		return m, tea.Quit
	}

	switch m.activeView {
	case ViewLogin:
		return m.handleLoginKey(msg)
	case ViewUpload:
		return m.handleUploadKey(msg)
	default:
		return m.handleMixerKey(msg)
	}
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		user, pass := m.loginView.Credentials()
		if err := m.gate.Login(user, pass); err != nil {
			m.loginView.ErrMsg = "Invalid credentials"
			m.loginView.Reset()
			return m, nil
		}
		m.loginView.ErrMsg = ""
		m.activeView = ViewMixer
		return m, nil
	}

	m.loginView, _ = m.loginView.Update(msg)
	return m, nil
}

func (m Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.activeView = ViewMixer
		return m, nil

	case "enter":
		entry := m.browser.EnterSelected()
		if entry == nil {
			return m, nil
		}
		if entry.Size > m.cfg.MaxUploadBytes {
			// Rejected locally; no request is made.
			m.mixerView.ErrMsg = uploadErrorMessage(tserrors.ErrFileTooLarge)
			m.activeView = ViewMixer
			return m, nil
		}
		m.activeView = ViewMixer
		m.uploading = true
		m.mixerView.Uploading = true
		m.mixerView.ErrMsg = ""
		atomic.StoreInt32(m.uploadPct, 0)
		return m, m.uploadCmd(entry.Path, entry.Size)
	}

	m.browser, _ = m.browser.Update(msg)
	return m, nil
}

func (m Model) handleMixerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.cancel()
		return m, tea.Quit

	case "u":
		if !m.uploading {
			m.activeView = ViewUpload
		}

	case "L":
		m.gate.Logout()
		m.activeView = ViewLogin
		m.loginView.Reset()

	case "tab":
		if m.focus == focusFaders {
			m.focus = focusSongs
		} else {
			m.focus = focusFaders
		}

	case " ":
		switch m.engine.State().Status {
		case api.StatusPlaying:
			m.engine.Pause()
		case api.StatusReady, api.StatusPaused:
			if err := m.engine.Play(); err != nil {
				m.mixerView.ErrMsg = playErrorMessage(err)
			} else {
				m.mixerView.ErrMsg = ""
			}
		}
		m.mixerView.SetState(m.engine.State())

	case "right":
		m.engine.Advance(m.cfg.SeekStep)
		m.mixerView.SetState(m.engine.State())

	case "left":
		m.engine.Rewind(m.cfg.SeekStep)
		m.mixerView.SetState(m.engine.State())

	case "up", "k", "down", "j":
		if m.focus == focusSongs {
			m.songList, _ = m.songList.Update(msg)
		} else {
			m.mixerView, _ = m.mixerView.Update(msg)
		}

	case "enter":
		if m.focus == focusSongs {
			if song := m.songList.SelectedItem(); song != nil {
				m.songList.CurrentID = song.ID
				m.mixerView.ErrMsg = ""
				return m, m.loadSongCmd(song)
			}
		}

	case ".":
		m.adjustFocusedVolume(5)

	case ",":
		m.adjustFocusedVolume(-5)

	case "m":
		m.setFocusedVolume(0)

	default:
		if m.focus == focusSongs {
			m.songList, _ = m.songList.Update(msg)
		}
	}

	return m, nil
}

// adjustFocusedVolume nudges the focused fader by delta.
func (m *Model) adjustFocusedVolume(delta int) {
	m.setFocusedVolume(m.mixerView.FocusedVolume() + delta)
}

// setFocusedVolume routes a volume change to the master or stem gain.
// Mute is just volume zero; moving the fader again is the only way back.
func (m *Model) setFocusedVolume(volume int) {
	if index := m.mixerView.FocusedTrack(); index >= 0 {
		m.engine.SetTrackVolume(index, volume)
	} else {
		m.engine.SetMasterVolume(volume)
	}
	m.mixerView.SetState(m.engine.State())
}

// updateViewSizes updates view dimensions
func (m *Model) updateViewSizes() {
	sidebar := 30
	m.loginView.Width = m.width
	m.loginView.Height = m.height
	m.mixerView.Width = m.width - sidebar - 4
	m.mixerView.Height = m.height
	m.mixerView.Progress.Width = m.mixerView.Width - 8
	m.songList.Width = sidebar
	m.songList.Height = m.height - 6
	m.browser.Width = m.width - sidebar - 4
	m.browser.Height = m.height - 4
}

// View renders the UI
func (m Model) View() string {
	if m.activeView == ViewLogin {
		return m.loginView.View()
	}

	var main string
	if m.activeView == ViewUpload {
		main = m.browser.View()
	} else {
		main = m.mixerView.View()
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, main, m.songList.View())
}

// uploadErrorMessage maps upload failures to a user-facing line.
func uploadErrorMessage(err error) string {
	var sepErr *tserrors.SeparationError
	switch {
	case errors.Is(err, tserrors.ErrFileTooLarge):
		return "File is too large, please pick a smaller one"
	case errors.As(err, &sepErr):
		return "Could not analyze the song, please try again"
	default:
		return fmt.Sprintf("Upload failed: %v", err)
	}
}

// playErrorMessage maps playback start failures to a user-facing line.
// An output failure is recoverable: pressing play again retries.
func playErrorMessage(err error) string {
	if errors.Is(err, tserrors.ErrAudioOutput) {
		return "Audio output unavailable, press space to retry"
	}
	return fmt.Sprintf("Playback failed: %v", err)
}

// Run starts the bubbletea program
func Run(ctx context.Context, cfg *config.Config, engine api.Mixer, st *store.Store, gate *session.Gate, client *separation.Client) error {
	model := NewModel(ctx, cfg, engine, st, gate, client)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
