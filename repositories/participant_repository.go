package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dufire/tournament-backend/models"
)

var ErrParticipantNotFound = errors.New("participant not found")

type ParticipantRepository interface {
	// UpsertVerified creates the (tournament, user) participant row with
	// payment_verified = true, or flips the flag on the existing row. Approving
	// the same payment twice therefore cannot create a second participant.
	UpsertVerified(ctx context.Context, exec SQLExecutor, tournamentID, userID int) (*models.Participant, error)
	GetByTournamentAndUser(ctx context.Context, tournamentID, userID int) (*models.Participant, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Participant, error)
	CountVerified(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) UpsertVerified(ctx context.Context, exec SQLExecutor, tournamentID, userID int) (*models.Participant, error) {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_participants (tournament_id, user_id, payment_verified)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (tournament_id, user_id)
		DO UPDATE SET payment_verified = TRUE
		RETURNING id, tournament_id, user_id, payment_verified, joined_at`

	p := &models.Participant{}
	err := executor.QueryRowContext(ctx, query, tournamentID, userID).Scan(
		&p.ID, &p.TournamentID, &p.UserID, &p.PaymentVerified, &p.JoinedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresParticipantRepository) GetByTournamentAndUser(ctx context.Context, tournamentID, userID int) (*models.Participant, error) {
	query := `
		SELECT id, tournament_id, user_id, payment_verified, joined_at
		FROM tournament_participants
		WHERE tournament_id = $1 AND user_id = $2`

	p := &models.Participant{}
	err := r.db.QueryRowContext(ctx, query, tournamentID, userID).Scan(
		&p.ID, &p.TournamentID, &p.UserID, &p.PaymentVerified, &p.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Participant, error) {
	query := `
		SELECT id, tournament_id, user_id, payment_verified, joined_at
		FROM tournament_participants
		WHERE tournament_id = $1
		ORDER BY joined_at`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if scanErr := rows.Scan(&p.ID, &p.TournamentID, &p.UserID, &p.PaymentVerified, &p.JoinedAt); scanErr != nil {
			return nil, scanErr
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *postgresParticipantRepository) CountVerified(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	query := `SELECT COUNT(*) FROM tournament_participants WHERE tournament_id = $1 AND payment_verified`

	var count int
	if err := executor.QueryRowContext(ctx, query, tournamentID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresParticipantRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM tournament_participants WHERE tournament_id = $1`, tournamentID)
	return err
}
