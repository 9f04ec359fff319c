// Package rounds turns Fall Guys log lines into round and show results.
package rounds

import (
	"strings"
	"time"
)

// eventOnlySuffix is appended by the client to round names played in events.
const eventOnlySuffix = "_event_only"

// RoundInfo is the result of one round of a show.
type RoundInfo struct {
	Name         string     `json:"name"`
	Round        int        `json:"round"`
	Start        time.Time  `json:"start"`
	End          time.Time  `json:"end"`
	Finish       *time.Time `json:"finish,omitempty"`
	ShowStart    time.Time  `json:"showStart"`
	ShowEnd      time.Time  `json:"showEnd"`
	Players      int        `json:"players"`
	Position     *int       `json:"position,omitempty"`
	Score        int        `json:"score"`
	Qualified    bool       `json:"qualified"`
	Tier         int        `json:"tier"`
	Kudos        int        `json:"kudos"`
	Crown        bool       `json:"crown"`
	Playing      bool       `json:"playing"`
	InParty      bool       `json:"inParty"`
	GameDuration int        `json:"gameDuration"`
}

// Clone returns a copy of r that shares no memory with it.
func (r *RoundInfo) Clone() RoundInfo {
	c := *r
	if r.Finish != nil {
		finish := *r.Finish
		c.Finish = &finish
	}
	if r.Position != nil {
		position := *r.Position
		c.Position = &position
	}
	return c
}

// closeEnd sets End unless it was already set. End never moves once set.
func (r *RoundInfo) closeEnd(date time.Time) {
	if r.End.IsZero() {
		r.End = date
	}
}

// cloneRounds copies a round list for publishing outside the parser.
func cloneRounds(rounds []*RoundInfo) []RoundInfo {
	out := make([]RoundInfo, len(rounds))
	for i, r := range rounds {
		out[i] = r.Clone()
	}
	return out
}

// stripEventOnly removes the "_event_only" suffix and anything after it.
func stripEventOnly(name string) string {
	if i := strings.Index(strings.ToLower(name), eventOnlySuffix); i > 0 {
		return name[:i]
	}
	return name
}
