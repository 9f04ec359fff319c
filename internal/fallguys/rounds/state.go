package rounds

import "time"

// ShowChange reports how a line changed whether the player is in a show.
type ShowChange int

const (
	ShowUnchanged ShowChange = iota
	// ShowStarted is reported when matchmaking begins.
	ShowStarted
	// ShowLeft is reported when the client returns to the main menu.
	ShowLeft
	// ShowEnded is reported when an episode summary completes the show.
	ShowEnded
)

func (c ShowChange) String() string {
	switch c {
	case ShowStarted:
		return "started"
	case ShowLeft:
		return "left"
	case ShowEnded:
		return "ended"
	default:
		return "unchanged"
	}
}

// GameState is the parse state carried from line to line.
//
// LastRound is either nil or points into CurrentRounds. CurrentRounds is only
// ever replaced as a whole when matchmaking begins.
type GameState struct {
	CurrentRounds []*RoundInfo
	LastRound     *RoundInfo
	CountPlayers  bool
	InParty       bool
	FindPosition  bool
	PlayerID      string
	Ping          int
	Duration      int
}

// Step describes what applying one line did.
type Step struct {
	// Trigger names the transition that matched, empty when the line was ignored.
	Trigger string
	// Completed holds the rounds of a show resolved by an episode summary.
	Completed []RoundInfo
	Show      ShowChange
	// PingCaptured is set when the line carried a round trip time.
	PingCaptured bool
}

// Snapshot returns a copy of the rounds of the current show.
func (s *GameState) Snapshot() []RoundInfo {
	return cloneRounds(s.CurrentRounds)
}

// Reset clears all state.
func (s *GameState) Reset() {
	*s = GameState{}
}

// closeLastRound ends the active round, if any, at date.
func (s *GameState) closeLastRound(date time.Time) {
	if s.LastRound == nil {
		return
	}
	s.LastRound.closeEnd(date)
	s.LastRound.Playing = false
}
