package models

import "time"

// PaymentStatus mirrors the payment_status ENUM in the database.
// A payment is terminal once verified or rejected; rows are never deleted.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentVerified, PaymentRejected:
		return true
	}
	return false
}

// Payment records a claimed entry-fee transfer. TxHash is an unverified claim:
// verification is a manual admin decision, not a ledger lookup.
type Payment struct {
	ID           int           `json:"id"`
	UserID       int           `json:"user_id"`
	TournamentID int           `json:"tournament_id"`
	Amount       float64       `json:"amount"`
	USDTWallet   string        `json:"usdt_wallet"`
	TxHash       string        `json:"tx_hash"`
	Status       PaymentStatus `json:"status"`
	VerifiedBy   *int          `json:"verified_by,omitempty"`
	VerifiedAt   *time.Time    `json:"verified_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}
