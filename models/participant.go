package models

import "time"

type Participant struct {
	ID              int       `json:"id"`
	TournamentID    int       `json:"tournament_id"`
	UserID          int       `json:"user_id"`
	PaymentVerified bool      `json:"payment_verified"`
	JoinedAt        time.Time `json:"joined_at"`
}
