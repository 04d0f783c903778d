package models

import "time"

type User struct {
	ID                  int       `json:"id"`
	Username            string    `json:"username"`
	Email               string    `json:"email"`
	PasswordHash        string    `json:"-"`
	USDTWallet          string    `json:"usdt_wallet"`
	IsAdmin             bool      `json:"is_admin"`
	CurrentTournamentID *int      `json:"current_tournament_id,omitempty"`
	AvatarKey           *string   `json:"-"`
	AvatarURL           *string   `json:"avatar_url,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}
