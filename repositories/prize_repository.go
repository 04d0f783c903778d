package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dufire/tournament-backend/models"
	"github.com/lib/pq"
)

var ErrPrizeRankConflict = errors.New("prize already exists for this rank")

type PrizeRepository interface {
	Create(ctx context.Context, exec SQLExecutor, prize *models.Prize) error
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Prize, error)
	SeedSplits(ctx context.Context, tournamentID int, splits []models.PrizeSplit) error
	ListSplits(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.PrizeSplit, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresPrizeRepository struct {
	db *sql.DB
}

func NewPostgresPrizeRepository(db *sql.DB) PrizeRepository {
	return &postgresPrizeRepository{db: db}
}

func (r *postgresPrizeRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPrizeRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Prize) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO prizes (tournament_id, user_id, rank_position, percentage, amount, paid)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		p.TournamentID, p.UserID, p.RankPosition, p.Percentage, p.Amount, p.Paid,
	).Scan(&p.ID, &p.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" && pqErr.Constraint == "prizes_tournament_id_rank_position_key" {
				return ErrPrizeRankConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresPrizeRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Prize, error) {
	query := `
		SELECT id, tournament_id, user_id, rank_position, percentage, amount, paid, created_at
		FROM prizes
		WHERE tournament_id = $1
		ORDER BY rank_position`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prizes := make([]models.Prize, 0)
	for rows.Next() {
		var p models.Prize
		if scanErr := rows.Scan(&p.ID, &p.TournamentID, &p.UserID, &p.RankPosition, &p.Percentage, &p.Amount, &p.Paid, &p.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		prizes = append(prizes, p)
	}
	return prizes, rows.Err()
}

func (r *postgresPrizeRepository) SeedSplits(ctx context.Context, tournamentID int, splits []models.PrizeSplit) error {
	query := `INSERT INTO prize_splits (tournament_id, rank_position, percentage) VALUES ($1, $2, $3)`
	for _, split := range splits {
		if _, err := r.db.ExecContext(ctx, query, tournamentID, split.RankPosition, split.Percentage); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresPrizeRepository) ListSplits(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.PrizeSplit, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT tournament_id, rank_position, percentage
		FROM prize_splits
		WHERE tournament_id = $1
		ORDER BY rank_position`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	splits := make([]models.PrizeSplit, 0)
	for rows.Next() {
		var s models.PrizeSplit
		if scanErr := rows.Scan(&s.TournamentID, &s.RankPosition, &s.Percentage); scanErr != nil {
			return nil, scanErr
		}
		splits = append(splits, s)
	}
	return splits, rows.Err()
}

func (r *postgresPrizeRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM prizes WHERE tournament_id = $1`, tournamentID); err != nil {
		return err
	}
	_, err := executor.ExecContext(ctx, `DELETE FROM prize_splits WHERE tournament_id = $1`, tournamentID)
	return err
}
