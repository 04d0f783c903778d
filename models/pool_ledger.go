package models

import "time"

// PoolLedgerKind tags a prize-pool delta.
type PoolLedgerKind string

const (
	PoolLedgerIncrement  PoolLedgerKind = "increment"
	PoolLedgerCorrection PoolLedgerKind = "correction"
)

// PoolLedgerEntry is an append-only record of a prize-pool change. The pool
// counter on the tournament is never edited in place: increments come from
// verified payments, historical fixes come as compensating correction entries,
// so the counter stays recomputable from the ledger.
type PoolLedgerEntry struct {
	ID           int            `json:"id"`
	TournamentID int            `json:"tournament_id"`
	PaymentID    *int           `json:"payment_id,omitempty"`
	Delta        float64        `json:"delta"`
	Kind         PoolLedgerKind `json:"kind"`
	Note         *string        `json:"note,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
