package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dufire/tournament-backend/models"
	"github.com/dufire/tournament-backend/repositories"
)

// DistributionResult reports what one prize distribution produced.
type DistributionResult struct {
	TournamentID int                 `json:"tournament_id"`
	PrizePool    float64             `json:"prize_pool"`
	Prizes       []models.Prize      `json:"prizes"`
	Winners      []DistributedWinner `json:"winners"`
}

type DistributedWinner struct {
	RankPosition int     `json:"rank_position"`
	Username     string  `json:"username"`
	Score        int64   `json:"score"`
	Percentage   float64 `json:"percentage"`
	Amount       float64 `json:"amount"`
}

type PrizeService interface {
	// Distribute ranks the tournament's top scores, pairs them with the
	// percentage split table, writes one prize row per paired rank and closes
	// the tournament. The whole operation is a single transaction and refuses
	// to run twice for the same tournament.
	Distribute(ctx context.Context, adminID, tournamentID int) (*DistributionResult, error)
}

type prizeService struct {
	db             TxBeginner
	tournamentRepo repositories.TournamentRepository
	scoreRepo      repositories.ScoreRepository
	prizeRepo      repositories.PrizeRepository
	userRepo       repositories.UserRepository
	broadcaster    Broadcaster
	logger         *slog.Logger
}

func NewPrizeService(
	db TxBeginner,
	tournamentRepo repositories.TournamentRepository,
	scoreRepo repositories.ScoreRepository,
	prizeRepo repositories.PrizeRepository,
	userRepo repositories.UserRepository,
	broadcaster Broadcaster,
	logger *slog.Logger,
) PrizeService {
	return &prizeService{
		db:             db,
		tournamentRepo: tournamentRepo,
		scoreRepo:      scoreRepo,
		prizeRepo:      prizeRepo,
		userRepo:       userRepo,
		broadcaster:    broadcaster,
		logger:         logger,
	}
}

func (s *prizeService) requireAdmin(ctx context.Context, adminID int) error {
	admin, err := s.userRepo.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrAuthenticationRequired
		}
		return fmt.Errorf("failed to load admin user %d: %w", adminID, err)
	}
	if !admin.IsAdmin {
		return ErrAdminRequired
	}
	return nil
}

// pairWinners pairs rank i of the leaderboard with split i of the percentage
// table. When fewer scores than splits exist, the tail percentages go
// unclaimed; they are not redistributed.
func pairWinners(tournamentID int, prizePool float64, topScores []models.LeaderboardEntry, splits []models.PrizeSplit) ([]models.Prize, []DistributedWinner) {
	count := len(topScores)
	if len(splits) < count {
		count = len(splits)
	}

	prizes := make([]models.Prize, 0, count)
	winners := make([]DistributedWinner, 0, count)
	for i := 0; i < count; i++ {
		entry := topScores[i]
		split := splits[i]
		amount := prizePool * split.Percentage / 100

		prizes = append(prizes, models.Prize{
			TournamentID: tournamentID,
			UserID:       entry.UserID,
			RankPosition: split.RankPosition,
			Percentage:   split.Percentage,
			Amount:       amount,
		})
		winners = append(winners, DistributedWinner{
			RankPosition: split.RankPosition,
			Username:     entry.Username,
			Score:        entry.Score,
			Percentage:   split.Percentage,
			Amount:       amount,
		})
	}
	return prizes, winners
}

func (s *prizeService) Distribute(ctx context.Context, adminID, tournamentID int) (result *DistributionResult, err error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	tx, txErr := s.db.BeginTx(ctx, nil)
	if txErr != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", txErr)
	}
	var finished *models.Tournament
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			result = nil
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed after distribution error",
					slog.Int("tournament_id", tournamentID), slog.Any("error", rbErr))
			}
		} else {
			if cErr := tx.Commit(); cErr != nil {
				result = nil
				err = fmt.Errorf("failed to commit prize distribution: %w", cErr)
			} else if finished != nil && s.broadcaster != nil {
				// Notify only once the transaction is durable.
				s.broadcaster.BroadcastTournamentUpdate(finished)
			}
		}
	}()

	// Row lock serializes concurrent distribution attempts: the second one
	// blocks here and then fails the status precondition.
	tournament, lockErr := s.tournamentRepo.GetByIDForUpdate(ctx, tx, tournamentID)
	if lockErr != nil {
		if errors.Is(lockErr, repositories.ErrTournamentNotFound) {
			err = ErrTournamentNotFound
		} else {
			err = lockErr
		}
		return nil, err
	}
	if tournament.Status == models.StatusFinished {
		err = ErrPrizesAlreadyDistributed
		return nil, err
	}
	if tournament.Status != models.StatusActive {
		err = ErrTournamentNotActive
		return nil, err
	}

	topScores, scoresErr := s.scoreRepo.TopByTournament(ctx, tx, &tournamentID, LeaderboardSize)
	if scoresErr != nil {
		err = fmt.Errorf("failed to load top scores for tournament %d: %w", tournamentID, scoresErr)
		return nil, err
	}
	if len(topScores) == 0 {
		// Fail before any write: the tournament stays active, no prize rows.
		err = ErrNoScores
		return nil, err
	}

	splits, splitsErr := s.prizeRepo.ListSplits(ctx, tx, tournamentID)
	if splitsErr != nil {
		err = fmt.Errorf("failed to load prize splits for tournament %d: %w", tournamentID, splitsErr)
		return nil, err
	}

	prizes, winners := pairWinners(tournamentID, tournament.PrizePool, topScores, splits)

	result = &DistributionResult{
		TournamentID: tournamentID,
		PrizePool:    tournament.PrizePool,
		Prizes:       make([]models.Prize, 0, len(prizes)),
		Winners:      winners,
	}
	for i := range prizes {
		if createErr := s.prizeRepo.Create(ctx, tx, &prizes[i]); createErr != nil {
			if errors.Is(createErr, repositories.ErrPrizeRankConflict) {
				err = ErrPrizesAlreadyDistributed
			} else {
				err = fmt.Errorf("failed to create prize for rank %d: %w", prizes[i].RankPosition, createErr)
			}
			return nil, err
		}
		result.Prizes = append(result.Prizes, prizes[i])
	}

	if statusErr := s.tournamentRepo.UpdateStatus(ctx, tx, tournamentID, models.StatusFinished); statusErr != nil {
		err = fmt.Errorf("failed to finish tournament %d: %w", tournamentID, statusErr)
		return nil, err
	}
	tournament.Status = models.StatusFinished
	finished = tournament

	s.logger.Info("prizes distributed",
		slog.Int("tournament_id", tournamentID),
		slog.Int("winners", len(winners)),
		slog.Float64("prize_pool", tournament.PrizePool))

	return result, nil
}
