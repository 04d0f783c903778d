package services

import "github.com/dufire/tournament-backend/models"

// Broadcaster fans out change notifications to connected realtime viewers.
// Delivery is best-effort: implementations must never block the caller, and a
// failed delivery never affects the write that triggered it.
type Broadcaster interface {
	BroadcastScoreUpdate(tournamentID *int, userID int, username string, score int64)
	BroadcastTournamentUpdate(tournament *models.Tournament)
}
