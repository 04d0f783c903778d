package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dufire/tournament-backend/models"
	"github.com/dufire/tournament-backend/repositories"
	"github.com/dufire/tournament-backend/storage"
)

type CreateTournamentInput struct {
	Name         string    `json:"name"`
	Description  *string   `json:"description"`
	EntryFee     float64   `json:"entry_fee"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	MaxUsers     *int      `json:"max_users"`
	PayoutWallet string    `json:"payout_wallet"`
}

type PoolCorrectionInput struct {
	Delta float64 `json:"delta"`
	Note  string  `json:"note"`
}

type TournamentService interface {
	Create(ctx context.Context, adminID int, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	// UpdateStatus performs the manual upcoming -> active transition. The
	// transition to finished belongs to prize distribution alone.
	UpdateStatus(ctx context.Context, adminID, tournamentID int, status models.TournamentStatus) (*models.Tournament, error)
	UploadBanner(ctx context.Context, adminID, tournamentID int, contentType string, file io.Reader) (*models.Tournament, error)
	Delete(ctx context.Context, adminID, tournamentID int) error
	// ApplyPoolCorrection appends a correction ledger entry and adjusts the
	// pool counter in one transaction.
	ApplyPoolCorrection(ctx context.Context, adminID, tournamentID int, input PoolCorrectionInput) (*models.PoolLedgerEntry, error)
	PoolLedger(ctx context.Context, adminID, tournamentID int) ([]models.PoolLedgerEntry, error)
	ListPrizes(ctx context.Context, tournamentID int) ([]models.Prize, error)
}

type tournamentService struct {
	db              TxBeginner
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	paymentRepo     repositories.PaymentRepository
	scoreRepo       repositories.ScoreRepository
	prizeRepo       repositories.PrizeRepository
	ledgerRepo      repositories.PoolLedgerRepository
	userRepo        repositories.UserRepository
	uploader        storage.FileUploader
	broadcaster     Broadcaster
	logger          *slog.Logger
}

func NewTournamentService(
	db TxBeginner,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	paymentRepo repositories.PaymentRepository,
	scoreRepo repositories.ScoreRepository,
	prizeRepo repositories.PrizeRepository,
	ledgerRepo repositories.PoolLedgerRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	broadcaster Broadcaster,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		paymentRepo:     paymentRepo,
		scoreRepo:       scoreRepo,
		prizeRepo:       prizeRepo,
		ledgerRepo:      ledgerRepo,
		userRepo:        userRepo,
		uploader:        uploader,
		broadcaster:     broadcaster,
		logger:          logger,
	}
}

func (s *tournamentService) requireAdmin(ctx context.Context, adminID int) (*models.User, error) {
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

func (s *tournamentService) Create(ctx context.Context, adminID int, input CreateTournamentInput) (*models.Tournament, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, ErrTournamentNameRequired
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() || !input.StartDate.Before(input.EndDate) {
		return nil, ErrTournamentInvalidDateRange
	}
	if input.EntryFee < 0 {
		return nil, ErrTournamentInvalidEntryFee
	}
	if input.MaxUsers != nil && *input.MaxUsers <= 0 {
		return nil, ErrTournamentInvalidCapacity
	}

	tournament := &models.Tournament{
		Name:         input.Name,
		Description:  input.Description,
		EntryFee:     input.EntryFee,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		MaxUsers:     input.MaxUsers,
		Status:       models.StatusUpcoming,
		PayoutWallet: input.PayoutWallet,
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	if err := s.prizeRepo.SeedSplits(ctx, tournament.ID, models.DefaultPrizeSplits()); err != nil {
		return nil, fmt.Errorf("failed to seed prize splits for tournament %d: %w", tournament.ID, err)
	}

	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	populateTournamentBannerURL(tournament, s.uploader)
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	for i := range tournaments {
		populateTournamentBannerURL(&tournaments[i], s.uploader)
	}
	return tournaments, nil
}

func (s *tournamentService) UpdateStatus(ctx context.Context, adminID, tournamentID int, status models.TournamentStatus) (*models.Tournament, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	switch status {
	case models.StatusUpcoming, models.StatusActive, models.StatusFinished:
	default:
		return nil, ErrTournamentInvalidStatus
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	if !isValidStatusTransition(tournament.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrTournamentInvalidStatus, tournament.Status, status)
	}

	if tournament.Status != status {
		if err := s.tournamentRepo.UpdateStatus(ctx, nil, tournamentID, status); err != nil {
			return nil, fmt.Errorf("failed to update tournament %d status: %w", tournamentID, err)
		}
		tournament.Status = status
		if s.broadcaster != nil {
			s.broadcaster.BroadcastTournamentUpdate(tournament)
		}
	}

	populateTournamentBannerURL(tournament, s.uploader)
	return tournament, nil
}

func (s *tournamentService) UploadBanner(ctx context.Context, adminID, tournamentID int, contentType string, file io.Reader) (*models.Tournament, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, ErrStorageNotConfigured
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	ext, err := getExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	key := fmt.Sprintf("banners/%d%s", tournamentID, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload banner: %w", err)
	}

	if err := s.tournamentRepo.UpdateBannerKey(ctx, tournamentID, &key); err != nil {
		return nil, fmt.Errorf("failed to store banner key: %w", err)
	}

	tournament.BannerKey = &key
	populateTournamentBannerURL(tournament, s.uploader)
	return tournament, nil
}

// Delete removes the tournament and all dependent rows. Dependents go first so
// foreign keys hold at every point inside the transaction.
func (s *tournamentService) Delete(ctx context.Context, adminID, tournamentID int) (err error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}

	tx, txErr := s.db.BeginTx(ctx, nil)
	if txErr != nil {
		return fmt.Errorf("failed to begin transaction: %w", txErr)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed after tournament delete error",
					slog.Int("tournament_id", tournamentID), slog.Any("error", rbErr))
			}
		} else {
			if cErr := tx.Commit(); cErr != nil {
				err = fmt.Errorf("failed to commit tournament delete: %w", cErr)
			}
		}
	}()

	if _, err = s.tournamentRepo.GetByIDForUpdate(ctx, tx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}

	if err = s.prizeRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
		return fmt.Errorf("failed to delete prizes: %w", err)
	}
	if err = s.ledgerRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
		return fmt.Errorf("failed to delete pool ledger: %w", err)
	}
	if err = s.paymentRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
		return fmt.Errorf("failed to delete payments: %w", err)
	}
	if err = s.scoreRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
		return fmt.Errorf("failed to delete scores: %w", err)
	}
	if err = s.participantRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
		return fmt.Errorf("failed to delete participants: %w", err)
	}
	if err = s.tournamentRepo.Delete(ctx, tx, tournamentID); err != nil {
		return fmt.Errorf("failed to delete tournament: %w", err)
	}

	return nil
}

func (s *tournamentService) ApplyPoolCorrection(ctx context.Context, adminID, tournamentID int, input PoolCorrectionInput) (entry *models.PoolLedgerEntry, err error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if input.Delta == 0 {
		return nil, ErrCorrectionZeroDelta
	}

	tx, txErr := s.db.BeginTx(ctx, nil)
	if txErr != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", txErr)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			entry = nil
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed after pool correction error",
					slog.Int("tournament_id", tournamentID), slog.Any("error", rbErr))
			}
		} else {
			if cErr := tx.Commit(); cErr != nil {
				entry = nil
				err = fmt.Errorf("failed to commit pool correction: %w", cErr)
			}
		}
	}()

	if _, err = s.tournamentRepo.GetByIDForUpdate(ctx, tx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	if err = s.tournamentRepo.IncrementPrizePool(ctx, tx, tournamentID, input.Delta); err != nil {
		return nil, err
	}

	var note *string
	if input.Note != "" {
		note = &input.Note
	}
	entry = &models.PoolLedgerEntry{
		TournamentID: tournamentID,
		Delta:        input.Delta,
		Kind:         models.PoolLedgerCorrection,
		Note:         note,
	}
	if err = s.ledgerRepo.Append(ctx, tx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *tournamentService) PoolLedger(ctx context.Context, adminID, tournamentID int) ([]models.PoolLedgerEntry, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	entries, err := s.ledgerRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pool ledger for tournament %d: %w", tournamentID, err)
	}
	return entries, nil
}

func (s *tournamentService) ListPrizes(ctx context.Context, tournamentID int) ([]models.Prize, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	prizes, err := s.prizeRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prizes for tournament %d: %w", tournamentID, err)
	}
	return prizes, nil
}
