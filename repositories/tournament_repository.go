package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dufire/tournament-backend/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name conflict")
)

type ListTournamentsFilter struct {
	Status *models.TournamentStatus
	Limit  int
	Offset int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	// GetByIDForUpdate locks the tournament row for the duration of the
	// transaction, serializing concurrent distributions and pool updates.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	IncrementPrizePool(ctx context.Context, exec SQLExecutor, id int, delta float64) error
	UpdateBannerKey(ctx context.Context, tournamentID int, bannerKey *string) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `id, name, description, entry_fee, prize_pool, start_date, end_date, max_users, status, payout_wallet, banner_key, created_at`

func scanTournament(row interface{ Scan(...interface{}) error }, t *models.Tournament) error {
	return row.Scan(
		&t.ID, &t.Name, &t.Description, &t.EntryFee, &t.PrizePool,
		&t.StartDate, &t.EndDate, &t.MaxUsers, &t.Status, &t.PayoutWallet,
		&t.BannerKey, &t.CreatedAt,
	)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, description, entry_fee, start_date, end_date, max_users, status, payout_wallet)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, prize_pool, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Name, t.Description, t.EntryFee, t.StartDate, t.EndDate, t.MaxUsers, t.Status, t.PayoutWallet,
	).Scan(&t.ID, &t.PrizePool, &t.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	err := scanTournament(r.db.QueryRowContext(ctx, query, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1 FOR UPDATE`

	t := &models.Tournament{}
	err := scanTournament(executor.QueryRowContext(ctx, query, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY start_date DESC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// IncrementPrizePool applies a delta to the running pool total. The pool is
// additive only; the accompanying pool_ledger row is written by the caller in
// the same transaction.
func (r *postgresTournamentRepository) IncrementPrizePool(ctx context.Context, exec SQLExecutor, id int, delta float64) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET prize_pool = prize_pool + $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("failed to increment prize pool for tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateBannerKey(ctx context.Context, tournamentID int, bannerKey *string) error {
	query := `UPDATE tournaments SET banner_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, bannerKey, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to update tournament banner key: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM tournaments WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23505" && pqErr.Constraint == "tournaments_name_key" {
			return ErrTournamentNameConflict
		}
	}
	return err
}
