package models

import "time"

// TournamentStatus mirrors the tournament_status ENUM in the database.
type TournamentStatus string

const (
	StatusUpcoming TournamentStatus = "upcoming"
	StatusActive   TournamentStatus = "active"
	StatusFinished TournamentStatus = "finished"
)

func (s TournamentStatus) IsValid() bool {
	switch s {
	case StatusUpcoming, StatusActive, StatusFinished:
		return true
	}
	return false
}

// Tournament carries the accumulated prize pool as a running total. The pool is
// only ever mutated additively, together with a PoolLedgerEntry in the same
// transaction, so the ledger is the audit trail for the counter.
type Tournament struct {
	ID           int              `json:"id"`
	Name         string           `json:"name"`
	Description  *string          `json:"description,omitempty"`
	EntryFee     float64          `json:"entry_fee"`
	PrizePool    float64          `json:"prize_pool"`
	StartDate    time.Time        `json:"start_date"`
	EndDate      time.Time        `json:"end_date"`
	MaxUsers     *int             `json:"max_users,omitempty"`
	Status       TournamentStatus `json:"status"`
	PayoutWallet string           `json:"payout_wallet"`
	BannerKey    *string          `json:"-"`
	BannerURL    *string          `json:"banner_url,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}
