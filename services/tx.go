package services

import (
	"context"
	"database/sql"

	"github.com/dufire/tournament-backend/repositories"
)

// Tx is the slice of *sql.Tx the services need: repository calls plus the
// commit/rollback pair.
type Tx interface {
	repositories.SQLExecutor
	Commit() error
	Rollback() error
}

// TxBeginner abstracts transaction creation so the transactional service
// paths can run against in-memory repositories in tests.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error)
}

type sqlTxBeginner struct {
	db *sql.DB
}

// NewTxBeginner adapts a *sql.DB to the TxBeginner interface.
func NewTxBeginner(db *sql.DB) TxBeginner {
	return sqlTxBeginner{db: db}
}

func (b sqlTxBeginner) BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	return b.db.BeginTx(ctx, opts)
}
