package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dufire/tournament-backend/models"
)

var ErrScoreNotFound = errors.New("score not found")

type ScoreRepository interface {
	// Upsert writes the score for (user, tournament), overwriting any existing
	// row for that pair. The conflict target is the declared composite key
	// (user_id, COALESCE(tournament_id, 0)); merge behavior is replace, not
	// accumulate. A nil tournamentID targets the global leaderboard.
	Upsert(ctx context.Context, score *models.Score) error
	// TopByTournament returns up to limit leaderboard entries ordered by score
	// descending; equal scores rank the earlier submission first.
	TopByTournament(ctx context.Context, exec SQLExecutor, tournamentID *int, limit int) ([]models.LeaderboardEntry, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresScoreRepository struct {
	db *sql.DB
}

func NewPostgresScoreRepository(db *sql.DB) ScoreRepository {
	return &postgresScoreRepository{db: db}
}

func (r *postgresScoreRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresScoreRepository) Upsert(ctx context.Context, s *models.Score) error {
	query := `
		INSERT INTO scores (user_id, tournament_id, score, game_data, submitted_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id, COALESCE(tournament_id, 0))
		DO UPDATE SET score = EXCLUDED.score, game_data = EXCLUDED.game_data, submitted_at = EXCLUDED.submitted_at
		RETURNING id, submitted_at`

	var gameData interface{}
	if len(s.GameData) > 0 {
		gameData = []byte(s.GameData)
	}

	err := r.db.QueryRowContext(ctx, query, s.UserID, s.TournamentID, s.Score, gameData).
		Scan(&s.ID, &s.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert score for user %d: %w", s.UserID, err)
	}
	return nil
}

func (r *postgresScoreRepository) TopByTournament(ctx context.Context, exec SQLExecutor, tournamentID *int, limit int) ([]models.LeaderboardEntry, error) {
	executor := r.getExecutor(exec)

	var (
		query string
		args  []interface{}
	)
	if tournamentID == nil {
		query = `
			SELECT s.user_id, u.username, s.score, s.submitted_at
			FROM scores s
			JOIN users u ON u.id = s.user_id
			WHERE s.tournament_id IS NULL
			ORDER BY s.score DESC, s.submitted_at ASC
			LIMIT $1`
		args = []interface{}{limit}
	} else {
		query = `
			SELECT s.user_id, u.username, s.score, s.submitted_at
			FROM scores s
			JOIN users u ON u.id = s.user_id
			WHERE s.tournament_id = $1
			ORDER BY s.score DESC, s.submitted_at ASC
			LIMIT $2`
		args = []interface{}{*tournamentID, limit}
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0)
	for rows.Next() {
		var e models.LeaderboardEntry
		if scanErr := rows.Scan(&e.UserID, &e.Username, &e.Score, &e.SubmittedAt); scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *postgresScoreRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM scores WHERE tournament_id = $1`, tournamentID)
	return err
}
