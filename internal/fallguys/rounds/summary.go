package rounds

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ramonehamilton/FallGuys-Companion/internal/fallguys/logreader"
)

var (
	// [Round 0 | round_door_dash], numbered from zero.
	roundLineZeroBased = regexp.MustCompile(`(?i)^\[Round (\d+) \| (.+)\]$`)
	// [Round 1] round_door_dash, numbered from one.
	roundLineOneBased = regexp.MustCompile(`(?i)^\[Round (\d+)\] (.+)$`)
)

// summaryRound is one round entry of an episode summary and the detail lines under it.
type summaryRound struct {
	number  int
	name    string
	details []func(*RoundInfo)
}

// resolveSummary matches an episode summary block against the rounds of the
// current show. It returns nil when the block does not describe the tracked
// show, in which case nothing is changed.
func (s *GameState) resolveSummary(line *logreader.LogLine) ([]RoundInfo, error) {
	if s.LastRound == nil {
		return nil, nil
	}

	entries, err := parseSummary(line.Text)
	if err != nil {
		return nil, err
	}
	if !s.summaryMatches(entries) {
		return nil, nil
	}

	s.applySummary(entries, line.Date)

	last := s.CurrentRounds[len(s.CurrentRounds)-1]
	for _, r := range s.CurrentRounds {
		r.ShowEnd = last.End
	}
	if last.Qualified {
		last.Crown = true
	}
	s.LastRound = nil

	return cloneRounds(s.CurrentRounds), nil
}

// summaryMatches reports whether every round in the summary is tracked under
// the same name and the summary covers every tracked round.
func (s *GameState) summaryMatches(entries []summaryRound) bool {
	maxRound := 0
	for _, e := range entries {
		if e.number < 1 || e.number > len(s.CurrentRounds) {
			return false
		}
		if !strings.EqualFold(s.CurrentRounds[e.number-1].Name, e.name) {
			return false
		}
		if e.number > maxRound {
			maxRound = e.number
		}
	}
	return len(s.CurrentRounds) <= maxRound
}

func (s *GameState) applySummary(entries []summaryRound, date time.Time) {
	var showStart time.Time
	for _, e := range entries {
		r := s.CurrentRounds[e.number-1]
		if e.number == 1 {
			showStart = r.Start
		}
		r.ShowStart = showStart
		r.Playing = false
		r.Round = e.number
		s.InParty = r.InParty

		r.closeEnd(date)
		if r.Start.IsZero() {
			r.Start = r.End
		}
		if r.Finish == nil {
			finish := r.End
			r.Finish = &finish
		}

		for _, detail := range e.details {
			detail(r)
		}
	}
}

// parseSummary reads the round entries of a summary block. Detail lines before
// the first round entry are ignored.
func parseSummary(text string) ([]summaryRound, error) {
	var entries []summaryRound

	for _, raw := range strings.Split(text, "\n") {
		detail := strings.TrimRight(raw, "\r")

		if number, name, ok := parseRoundLine(detail); ok {
			entries = append(entries, summaryRound{number: number, name: stripEventOnly(name)})
			continue
		}
		if len(entries) == 0 {
			continue
		}

		apply, err := parseDetail(detail)
		if err != nil {
			return nil, err
		}
		if apply != nil {
			current := &entries[len(entries)-1]
			current.details = append(current.details, apply)
		}
	}

	return entries, nil
}

func parseRoundLine(detail string) (int, string, bool) {
	if m := roundLineZeroBased.FindStringSubmatch(detail); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, "", false
		}
		return n + 1, m[2], true
	}
	if m := roundLineOneBased.FindStringSubmatch(detail); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, "", false
		}
		return n, strings.TrimSpace(m[2]), true
	}
	return 0, "", false
}

// parseDetail turns a "> Field: value" line into the change it makes to its round.
func parseDetail(detail string) (func(*RoundInfo), error) {
	switch {
	case hasPrefixFold(detail, "> Position: "):
		n, err := parseNumber("position", detail[len("> Position: "):])
		if err != nil {
			return nil, err
		}
		return func(r *RoundInfo) { r.Position = &n }, nil

	case hasPrefixFold(detail, "> Team Score: "):
		n, err := parseNumber("team score", detail[len("> Team Score: "):])
		if err != nil {
			return nil, err
		}
		return func(r *RoundInfo) { r.Score = n }, nil

	case hasPrefixFold(detail, "> Qualified: "):
		qualified := hasPrefixFold(detail[len("> Qualified: "):], "T")
		return func(r *RoundInfo) {
			r.Qualified = qualified
			if !qualified {
				r.Finish = nil
			}
		}, nil

	case hasPrefixFold(detail, "> Bonus Tier: "):
		// Only a single digit tier is recorded.
		value := detail[len("> Bonus Tier: "):]
		if len(value) != 1 || value[0] < '0' || value[0] > '9' {
			return nil, nil
		}
		tier := int(value[0]-'0') + 1
		return func(r *RoundInfo) { r.Tier = tier }, nil

	case hasPrefixFold(detail, "> Kudos: "):
		n, err := parseNumber("kudos", detail[len("> Kudos: "):])
		if err != nil {
			return nil, err
		}
		return func(r *RoundInfo) { r.Kudos += n }, nil

	case hasPrefixFold(detail, "> Bonus Kudos: "):
		n, err := parseNumber("bonus kudos", detail[len("> Bonus Kudos: "):])
		if err != nil {
			return nil, err
		}
		return func(r *RoundInfo) { r.Kudos += n }, nil
	}

	return nil, nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
