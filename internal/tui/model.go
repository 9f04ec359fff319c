package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ramonehamilton/FallGuys-Companion/internal/events"
	"github.com/ramonehamilton/FallGuys-Companion/internal/fallguys/rounds"
)

// =============================================================================
// Messages
// =============================================================================

// CurrentMsg carries the rounds of the show in progress.
type CurrentMsg struct {
	Rounds []rounds.RoundInfo
}

// CompletedMsg carries the rounds of a finished show.
type CompletedMsg struct {
	Rounds []rounds.RoundInfo
}

// ShowMsg reports a show starting or ending.
type ShowMsg events.ShowStateEvent

// PingMsg carries the latest server round trip time in milliseconds.
type PingMsg int

// SessionMsg carries the date of the current game session.
type SessionMsg time.Time

// ErrorMsg carries a watcher error.
type ErrorMsg events.WatcherErrorEvent

// =============================================================================
// Model
// =============================================================================

// Model is the TUI state.
type Model struct {
	title string

	current     []rounds.RoundInfo
	lastShow    []rounds.RoundInfo
	inShow      bool
	ended       bool
	ping        int
	sessionDate time.Time
	lastError   string
	showsSeen   int
	crowns      int

	width    int
	height   int
	quitting bool
}

// New creates a new TUI model.
func New(title string) Model {
	if title == "" {
		title = "Fall Guys Companion"
	}
	return Model{
		title:  title,
		width:  80,
		height: 24,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "c":
			m.lastError = ""
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case CurrentMsg:
		m.current = msg.Rounds

	case CompletedMsg:
		m.lastShow = msg.Rounds
		m.showsSeen++
		for _, r := range msg.Rounds {
			if r.Crown {
				m.crowns++
				break
			}
		}

	case ShowMsg:
		m.inShow = msg.InShow
		if msg.InShow {
			m.ended = false
		}
		if msg.Ended {
			m.ended = true
		}

	case PingMsg:
		m.ping = int(msg)

	case SessionMsg:
		m.sessionDate = time.Time(msg)

	case ErrorMsg:
		m.lastError = msg.Source + ": " + msg.Error
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.render()
}

// EventToMsg converts a dispatched event into a TUI message.
// It returns nil for events the TUI does not show.
func EventToMsg(event events.Event) tea.Msg {
	switch event.Type {
	case events.TypeRoundsCurrent:
		if data, ok := events.GetTypedData[events.RoundsCurrentEvent](event); ok {
			return CurrentMsg{Rounds: data.Rounds}
		}
	case events.TypeRoundsCompleted:
		if data, ok := events.GetTypedData[events.RoundsCompletedEvent](event); ok {
			return CompletedMsg{Rounds: data.Rounds}
		}
	case events.TypeShowStarted, events.TypeShowEnded:
		if data, ok := events.GetTypedData[events.ShowStateEvent](event); ok {
			return ShowMsg(data)
		}
	case events.TypePingUpdated:
		if data, ok := events.GetTypedData[events.PingEvent](event); ok {
			return PingMsg(data.Ping)
		}
	case events.TypeSessionDate:
		if data, ok := events.GetTypedData[events.SessionDateEvent](event); ok {
			return SessionMsg(data.Date)
		}
	case events.TypeWatcherError:
		if data, ok := events.GetTypedData[events.WatcherErrorEvent](event); ok {
			return ErrorMsg(data)
		}
	}
	return nil
}
