package events

import (
	"time"

	"github.com/ramonehamilton/FallGuys-Companion/internal/fallguys/rounds"
)

// Event types published by the watcher.
const (
	TypeRoundsCompleted = "rounds:completed"
	TypeRoundsCurrent   = "rounds:current"
	TypeSessionDate     = "session:date"
	TypeWatcherError    = "watcher:error"
	TypePingUpdated     = "ping:updated"
	TypeShowStarted     = "show:started"
	TypeShowEnded       = "show:ended"
)

// ============================================================================
// Event Message Types
// These types define the structure of data sent with events.
// Round slices are copies; observers may keep or modify them.
// ============================================================================

// RoundsCompletedEvent is the payload for rounds:completed events.
// Sent once per parser tick in which at least one show was resolved.
type RoundsCompletedEvent struct {
	Rounds []rounds.RoundInfo `json:"rounds"`
}

// RoundsCurrentEvent is the payload for rounds:current events.
// Sent every parser tick with the rounds of the show in progress (possibly none).
type RoundsCurrentEvent struct {
	Rounds []rounds.RoundInfo `json:"rounds"`
}

// SessionDateEvent is the payload for session:date events.
// Sent when the client logs the start of a new session.
type SessionDateEvent struct {
	Date time.Time `json:"date"`
}

// WatcherErrorEvent is the payload for watcher:error events.
type WatcherErrorEvent struct {
	Source string `json:"source"` // "tailer" or "parser"
	Error  string `json:"error"`
}

// PingEvent is the payload for ping:updated events.
type PingEvent struct {
	Ping int `json:"ping"` // Round trip time in milliseconds
}

// ShowStateEvent is the payload for show:started and show:ended events.
type ShowStateEvent struct {
	InShow bool   `json:"inShow"`
	Ended  bool   `json:"ended"`  // Set when an episode summary completed the show
	Reason string `json:"reason"` // "matchmaking", "main_menu" or "summary"
}
