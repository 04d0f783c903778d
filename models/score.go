package models

import (
	"encoding/json"
	"time"
)

// Score holds at most one row per (user, tournament). TournamentID is nil for
// global leaderboard entries. A resubmission overwrites the row: last write wins,
// there is no score history and no keep-highest policy.
type Score struct {
	ID           int             `json:"id"`
	UserID       int             `json:"user_id"`
	TournamentID *int            `json:"tournament_id,omitempty"`
	Score        int64           `json:"score"`
	GameData     json.RawMessage `json:"game_data,omitempty"`
	SubmittedAt  time.Time       `json:"submitted_at"`
}

// LeaderboardEntry is a score joined with its owner's username, as rendered on
// global and tournament leaderboards.
type LeaderboardEntry struct {
	UserID      int       `json:"user_id"`
	Username    string    `json:"username"`
	Score       int64     `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
}
