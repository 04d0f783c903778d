package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dufire/tournament-backend/models"
)

type PoolLedgerRepository interface {
	// Append records a pool delta. Ledger rows are insert-only; nothing updates
	// or deletes them outside of tournament teardown.
	Append(ctx context.Context, exec SQLExecutor, entry *models.PoolLedgerEntry) error
	ListByTournament(ctx context.Context, tournamentID int) ([]models.PoolLedgerEntry, error)
	// SumByTournament recomputes the pool from the ledger, for reconciliation
	// against the running counter on the tournament row.
	SumByTournament(ctx context.Context, tournamentID int) (float64, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresPoolLedgerRepository struct {
	db *sql.DB
}

func NewPostgresPoolLedgerRepository(db *sql.DB) PoolLedgerRepository {
	return &postgresPoolLedgerRepository{db: db}
}

func (r *postgresPoolLedgerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPoolLedgerRepository) Append(ctx context.Context, exec SQLExecutor, e *models.PoolLedgerEntry) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO pool_ledger (tournament_id, payment_id, delta, kind, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		e.TournamentID, e.PaymentID, e.Delta, e.Kind, e.Note,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append pool ledger entry for tournament %d: %w", e.TournamentID, err)
	}
	return nil
}

func (r *postgresPoolLedgerRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.PoolLedgerEntry, error) {
	query := `
		SELECT id, tournament_id, payment_id, delta, kind, note, created_at
		FROM pool_ledger
		WHERE tournament_id = $1
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.PoolLedgerEntry, 0)
	for rows.Next() {
		var e models.PoolLedgerEntry
		if scanErr := rows.Scan(&e.ID, &e.TournamentID, &e.PaymentID, &e.Delta, &e.Kind, &e.Note, &e.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *postgresPoolLedgerRepository) SumByTournament(ctx context.Context, tournamentID int) (float64, error) {
	query := `SELECT COALESCE(SUM(delta), 0) FROM pool_ledger WHERE tournament_id = $1`

	var sum float64
	if err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

func (r *postgresPoolLedgerRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM pool_ledger WHERE tournament_id = $1`, tournamentID)
	return err
}
