package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dufire/tournament-backend/models"
	"github.com/lib/pq"
)

var (
	ErrPaymentNotFound          = errors.New("payment not found")
	ErrPaymentInvalidUser       = errors.New("payment references unknown user")
	ErrPaymentInvalidTournament = errors.New("payment references unknown tournament")
)

type ListPaymentsFilter struct {
	Status       *models.PaymentStatus
	TournamentID *int
	UserID       *int
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id int) (*models.Payment, error)
	List(ctx context.Context, filter ListPaymentsFilter) ([]models.Payment, error)
	// MarkTerminal transitions a pending payment to verified or rejected.
	// The WHERE status = 'pending' guard makes the transition exactly-once:
	// zero affected rows means the payment was already terminal (or absent).
	MarkTerminal(ctx context.Context, exec SQLExecutor, id int, status models.PaymentStatus, verifierID int, verifiedAt time.Time) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresPaymentRepository struct {
	db *sql.DB
}

func NewPostgresPaymentRepository(db *sql.DB) PaymentRepository {
	return &postgresPaymentRepository{db: db}
}

func (r *postgresPaymentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const paymentColumns = `id, user_id, tournament_id, amount, usdt_wallet, tx_hash, status, verified_by, verified_at, created_at`

func scanPayment(row interface{ Scan(...interface{}) error }, p *models.Payment) error {
	return row.Scan(
		&p.ID, &p.UserID, &p.TournamentID, &p.Amount, &p.USDTWallet,
		&p.TxHash, &p.Status, &p.VerifiedBy, &p.VerifiedAt, &p.CreatedAt,
	)
}

func (r *postgresPaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments (user_id, tournament_id, amount, usdt_wallet, tx_hash, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		p.UserID, p.TournamentID, p.Amount, p.USDTWallet, p.TxHash, p.Status,
	).Scan(&p.ID, &p.CreatedAt)

	return r.handlePaymentError(err)
}

func (r *postgresPaymentRepository) GetByID(ctx context.Context, id int) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	p := &models.Payment{}
	err := scanPayment(r.db.QueryRowContext(ctx, query, id), p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresPaymentRepository) List(ctx context.Context, filter ListPaymentsFilter) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.TournamentID != nil {
		query += fmt.Sprintf(" AND tournament_id = $%d", argID)
		args = append(args, *filter.TournamentID)
		argID++
	}
	if filter.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argID)
		args = append(args, *filter.UserID)
	}

	query += " ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		var p models.Payment
		if scanErr := scanPayment(rows, &p); scanErr != nil {
			return nil, scanErr
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *postgresPaymentRepository) MarkTerminal(ctx context.Context, exec SQLExecutor, id int, status models.PaymentStatus, verifierID int, verifiedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE payments
		SET status = $1, verified_by = $2, verified_at = $3
		WHERE id = $4 AND status = 'pending'`

	result, err := executor.ExecContext(ctx, query, status, verifierID, verifiedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update payment %d status: %w", id, err)
	}
	return checkAffectedRows(result, ErrPaymentNotFound)
}

func (r *postgresPaymentRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM payments WHERE tournament_id = $1`, tournamentID)
	return err
}

func (r *postgresPaymentRepository) handlePaymentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23503" { // foreign_key_violation
			switch pqErr.Constraint {
			case "payments_user_id_fkey":
				return ErrPaymentInvalidUser
			case "payments_tournament_id_fkey":
				return ErrPaymentInvalidTournament
			}
		}
	}
	return err
}
