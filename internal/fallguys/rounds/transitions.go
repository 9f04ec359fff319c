package rounds

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ramonehamilton/FallGuys-Companion/internal/fallguys/logreader"
)

// ErrMalformedNumber is returned when a recognised line carries a number that does not parse.
var ErrMalformedNumber = errors.New("malformed number")

const (
	markerLevelLoaded   = "[StateGameLoading] Finished loading game level, assumed to be "
	markerMatchmaking   = "[StateMatchmaking] Begin matchmaking"
	markerDuration      = "NetworkGameOptions: durationInSeconds="
	markerPlayers       = " players in system."
	markerLocalPlayer   = "[ClientGameManager] Handling bootstrap for local player FallGuy ["
	markerUnspawn       = "[ClientGameManager] Handling unspawn for player FallGuy ["
	markerPosition      = "[ClientGameSession] NumPlayersAchievingObjective="
	markerPing          = "RTT: "
	markerPlaying       = "[GameSession] Changing state from Countdown to Playing"
	markerGameOver      = "[GameSession] Changing state from Playing to GameOver"
	markerEliminated    = "Changing local player state to: SpectatingEliminated"
	markerDisconnecting = "[GlobalGameStateClient] SwitchToDisconnectingState"
	markerMainMenu      = "[StateMainMenu] Loading scene MainMenu"
)

// summaryHeaders identify a merged episode summary block.
var summaryHeaders = []string{" == [CompletedEpisodeDto] ==", "== [Episode Summary] =="}

// A transition reports whether it matched the line. The first transition that
// matches consumes the line.
type transition struct {
	name  string
	apply func(s *GameState, line *logreader.LogLine, step *Step) (bool, error)
}

// transitions is ordered by priority.
var transitions = []transition{
	{"level_loaded", levelLoaded},
	{"matchmaking", matchmaking},
	{"duration", duration},
	{"players", players},
	{"local_player", localPlayer},
	{"unspawn", unspawn},
	{"position", position},
	{"ping", ping},
	{"playing", playing},
	{"round_over", roundOver},
	{"main_menu", mainMenu},
	{"episode_summary", episodeSummary},
}

// Apply feeds one line through the transition table.
// On error the state is left as it was before the line.
func (s *GameState) Apply(line *logreader.LogLine) (Step, error) {
	var step Step
	for _, t := range transitions {
		matched, err := t.apply(s, line, &step)
		if err != nil {
			return Step{Trigger: t.name}, fmt.Errorf("%s: %w", t.name, err)
		}
		if matched {
			step.Trigger = t.name
			return step, nil
		}
	}
	return step, nil
}

func levelLoaded(s *GameState, line *logreader.LogLine, _ *Step) (bool, error) {
	name := line.Retrieve(markerLevelLoaded, "")
	if name == "" {
		return false, nil
	}

	round := &RoundInfo{
		Name:         stripEventOnly(name),
		Round:        len(s.CurrentRounds) + 1,
		Start:        line.Date,
		InParty:      s.InParty,
		GameDuration: s.Duration,
	}
	s.CountPlayers = true
	s.CurrentRounds = append(s.CurrentRounds, round)
	s.LastRound = round
	return true, nil
}

func matchmaking(s *GameState, line *logreader.LogLine, step *Step) (bool, error) {
	index := line.Find(markerMatchmaking)
	if index == -1 {
		return false, nil
	}

	mode := strings.TrimSpace(line.Text[index+len(markerMatchmaking):])
	if mode == "" {
		return false, nil
	}
	s.InParty = !strings.EqualFold(mode, "solo")
	s.closeLastRound(line.Date)
	s.CurrentRounds = nil
	s.LastRound = nil
	step.Show = ShowStarted
	return true, nil
}

func duration(s *GameState, line *logreader.LogLine, _ *Step) (bool, error) {
	str := line.Retrieve(markerDuration, " ")
	if str == "" {
		return false, nil
	}

	n, err := parseNumber("duration", str)
	if err != nil {
		return false, err
	}
	s.Duration = n
	return true, nil
}

func players(s *GameState, line *logreader.LogLine, _ *Step) (bool, error) {
	if s.LastRound == nil || !s.CountPlayers {
		return false, nil
	}
	str := line.RetrieveLast(markerPlayers, " ")
	if str == "" {
		return false, nil
	}

	if n, err := strconv.Atoi(str); err == nil {
		s.LastRound.Players = n
	}
	return true, nil
}

func localPlayer(s *GameState, line *logreader.LogLine, _ *Step) (bool, error) {
	id := line.Retrieve(markerLocalPlayer, "]")
	if id == "" {
		return false, nil
	}
	s.PlayerID = id
	return true, nil
}

func unspawn(s *GameState, line *logreader.LogLine, _ *Step) (bool, error) {
	if s.LastRound == nil || line.Find(markerUnspawn+s.PlayerID+"]") == -1 {
		return false, nil
	}

	finish := line.Date
	if !s.LastRound.End.IsZero() {
		finish = s.LastRound.End
	}
	s.LastRound.Finish = &finish
	s.FindPosition = true
	return true, nil
}

func position(s *GameState, line *logreader.LogLine, _ *Step) (bool, error) {
	if s.LastRound == nil || !s.FindPosition {
		return false, nil
	}
	str := line.Retrieve(markerPosition, "")
	if str == "" {
		return false, nil
	}

	if n, err := strconv.Atoi(strings.TrimSpace(str)); err == nil {
		s.LastRound.Position = &n
		s.FindPosition = false
	}
	return true, nil
}

func ping(s *GameState, line *logreader.LogLine, step *Step) (bool, error) {
	if s.LastRound == nil {
		return false, nil
	}
	str := line.Retrieve(markerPing, "ms")
	if str == "" {
		return false, nil
	}

	n, err := parseNumber("ping", str)
	if err != nil {
		return false, err
	}
	s.Ping = n
	step.PingCaptured = true
	return true, nil
}

func playing(s *GameState, line *logreader.LogLine, _ *Step) (bool, error) {
	if s.LastRound == nil || line.Find(markerPlaying) == -1 {
		return false, nil
	}

	s.LastRound.Start = line.Date
	s.LastRound.Playing = true
	s.CountPlayers = false
	return true, nil
}

func roundOver(s *GameState, line *logreader.LogLine, _ *Step) (bool, error) {
	if s.LastRound == nil {
		return false, nil
	}
	if line.Find(markerGameOver) == -1 &&
		line.Find(markerEliminated) == -1 &&
		line.Find(markerDisconnecting) == -1 {
		return false, nil
	}

	s.closeLastRound(line.Date)
	s.FindPosition = false
	return true, nil
}

func mainMenu(s *GameState, line *logreader.LogLine, step *Step) (bool, error) {
	if line.Find(markerMainMenu) == -1 {
		return false, nil
	}

	s.closeLastRound(line.Date)
	s.FindPosition = false
	s.CountPlayers = false
	step.Show = ShowLeft
	return true, nil
}

func episodeSummary(s *GameState, line *logreader.LogLine, step *Step) (bool, error) {
	if !isSummary(line) {
		return false, nil
	}

	completed, err := s.resolveSummary(line)
	if err != nil {
		return false, err
	}
	if completed != nil {
		step.Completed = completed
		step.Show = ShowEnded
	}
	return true, nil
}

func isSummary(line *logreader.LogLine) bool {
	for _, header := range summaryHeaders {
		if line.Find(header) != -1 {
			return true
		}
	}
	return false
}

func parseNumber(field, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrMalformedNumber, field, value)
	}
	return n, nil
}
