// Package models defines the rows stored for completed shows.
package models

import "time"

// Show is one completed show, from matchmaking to its episode summary.
type Show struct {
	ID           string    `json:"id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	RoundsPlayed int       `json:"rounds_played"`
	Crown        bool      `json:"crown"`
	Kudos        int       `json:"kudos"`
	InParty      bool      `json:"in_party"`
	CreatedAt    time.Time `json:"created_at"`
}

// Round is one round of a stored show.
type Round struct {
	ID           int        `json:"id"`
	ShowID       string     `json:"show_id"`
	RoundNumber  int        `json:"round_number"`
	Name         string     `json:"name"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	FinishTime   *time.Time `json:"finish_time,omitempty"`
	Players      int        `json:"players"`
	Position     *int       `json:"position,omitempty"`
	Score        int        `json:"score"`
	Qualified    bool       `json:"qualified"`
	Tier         int        `json:"tier"`
	Kudos        int        `json:"kudos"`
	Crown        bool       `json:"crown"`
	GameDuration int        `json:"game_duration"` // Seconds
}

// Totals summarizes every stored show.
type Totals struct {
	Shows  int `json:"shows"`
	Rounds int `json:"rounds"`
	Crowns int `json:"crowns"`
	Kudos  int `json:"kudos"`
}
