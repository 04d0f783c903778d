package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dufire/tournament-backend/models"
	"github.com/dufire/tournament-backend/repositories"
)

type SubmitPaymentInput struct {
	TxHash     string `json:"tx_hash"`
	USDTWallet string `json:"usdt_wallet"`
}

type VerifyPaymentInput struct {
	Decision string `json:"decision"` // "approve" or "reject"
}

type PaymentService interface {
	// Submit records a claimed entry-fee transfer as pending. The transaction
	// hash is not checked against any chain; verification is a manual admin
	// step. Duplicate pending submissions for the same tournament are allowed.
	Submit(ctx context.Context, userID, tournamentID int, input SubmitPaymentInput) (*models.Payment, error)
	List(ctx context.Context, adminID int, filter repositories.ListPaymentsFilter) ([]models.Payment, error)
	// Verify settles a pending payment. Approval applies four effects in one
	// transaction: payment verified, participant marked paid, prize pool
	// incremented (with ledger entry), payer's current tournament set.
	Verify(ctx context.Context, adminID, paymentID int, input VerifyPaymentInput) (*models.Payment, error)
}

type paymentService struct {
	db              TxBeginner
	paymentRepo     repositories.PaymentRepository
	participantRepo repositories.ParticipantRepository
	tournamentRepo  repositories.TournamentRepository
	ledgerRepo      repositories.PoolLedgerRepository
	userRepo        repositories.UserRepository
	logger          *slog.Logger
}

func NewPaymentService(
	db TxBeginner,
	paymentRepo repositories.PaymentRepository,
	participantRepo repositories.ParticipantRepository,
	tournamentRepo repositories.TournamentRepository,
	ledgerRepo repositories.PoolLedgerRepository,
	userRepo repositories.UserRepository,
	logger *slog.Logger,
) PaymentService {
	return &paymentService{
		db:              db,
		paymentRepo:     paymentRepo,
		participantRepo: participantRepo,
		tournamentRepo:  tournamentRepo,
		ledgerRepo:      ledgerRepo,
		userRepo:        userRepo,
		logger:          logger,
	}
}

func (s *paymentService) requireAdmin(ctx context.Context, adminID int) (*models.User, error) {
	admin, err := s.userRepo.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrAuthenticationRequired
		}
		return nil, fmt.Errorf("failed to load admin user %d: %w", adminID, err)
	}
	if !admin.IsAdmin {
		return nil, ErrAdminRequired
	}
	return admin, nil
}

func (s *paymentService) Submit(ctx context.Context, userID, tournamentID int, input SubmitPaymentInput) (*models.Payment, error) {
	if input.TxHash == "" {
		return nil, ErrTxHashRequired
	}
	if input.USDTWallet == "" {
		return nil, ErrWalletRequired
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if tournament.Status == models.StatusFinished {
		return nil, ErrTournamentFinished
	}

	payment := &models.Payment{
		UserID:       userID,
		TournamentID: tournamentID,
		Amount:       tournament.EntryFee,
		USDTWallet:   input.USDTWallet,
		TxHash:       input.TxHash,
		Status:       models.PaymentPending,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	return payment, nil
}

func (s *paymentService) List(ctx context.Context, adminID int, filter repositories.ListPaymentsFilter) ([]models.Payment, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (s *paymentService) Verify(ctx context.Context, adminID, paymentID int, input VerifyPaymentInput) (*models.Payment, error) {
	admin, err := s.requireAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	var status models.PaymentStatus
	switch input.Decision {
	case "approve":
		status = models.PaymentVerified
	case "reject":
		status = models.PaymentRejected
	default:
		return nil, ErrInvalidVerifyDecision
	}

	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if payment.Status != models.PaymentPending {
		return nil, ErrPaymentAlreadyProcessed
	}

	if status == models.PaymentRejected {
		return s.reject(ctx, payment, admin.ID)
	}
	return s.approve(ctx, payment, admin.ID)
}

func (s *paymentService) reject(ctx context.Context, payment *models.Payment, verifierID int) (*models.Payment, error) {
	now := time.Now()
	err := s.paymentRepo.MarkTerminal(ctx, nil, payment.ID, models.PaymentRejected, verifierID, now)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			// The pending guard did not match: a concurrent verification won.
			return nil, ErrPaymentAlreadyProcessed
		}
		return nil, err
	}
	payment.Status = models.PaymentRejected
	payment.VerifiedBy = &verifierID
	payment.VerifiedAt = &now
	return payment, nil
}

// approve applies the four approval effects atomically. The pending-only
// update on the payment row is the idempotency gate: a concurrent or repeated
// approval sees zero affected rows and the whole transaction rolls back, so
// the prize pool can never absorb the same payment twice.
func (s *paymentService) approve(ctx context.Context, payment *models.Payment, verifierID int) (result *models.Payment, err error) {
	tx, txErr := s.db.BeginTx(ctx, nil)
	if txErr != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", txErr)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			result = nil
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed after payment approval error",
					slog.Int("payment_id", payment.ID), slog.Any("error", rbErr))
				err = fmt.Errorf("payment approval failed: %w (rollback also failed: %v)", err, rbErr)
			}
		} else {
			if cErr := tx.Commit(); cErr != nil {
				result = nil
				err = fmt.Errorf("failed to commit payment approval: %w", cErr)
			}
		}
	}()

	// Lock the tournament row first so two concurrent approvals for the same
	// tournament serialize their pool increments.
	if _, err = s.tournamentRepo.GetByIDForUpdate(ctx, tx, payment.TournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	now := time.Now()
	if err = s.paymentRepo.MarkTerminal(ctx, tx, payment.ID, models.PaymentVerified, verifierID, now); err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			return nil, ErrPaymentAlreadyProcessed
		}
		return nil, err
	}

	if _, err = s.participantRepo.UpsertVerified(ctx, tx, payment.TournamentID, payment.UserID); err != nil {
		return nil, fmt.Errorf("failed to mark participant as paid: %w", err)
	}

	if err = s.tournamentRepo.IncrementPrizePool(ctx, tx, payment.TournamentID, payment.Amount); err != nil {
		return nil, err
	}
	ledgerEntry := &models.PoolLedgerEntry{
		TournamentID: payment.TournamentID,
		PaymentID:    &payment.ID,
		Delta:        payment.Amount,
		Kind:         models.PoolLedgerIncrement,
	}
	if err = s.ledgerRepo.Append(ctx, tx, ledgerEntry); err != nil {
		return nil, err
	}

	tournamentID := payment.TournamentID
	if err = s.userRepo.SetCurrentTournament(ctx, tx, payment.UserID, &tournamentID); err != nil {
		return nil, fmt.Errorf("failed to set current tournament for payer: %w", err)
	}

	payment.Status = models.PaymentVerified
	payment.VerifiedBy = &verifierID
	payment.VerifiedAt = &now
	return payment, nil
}
