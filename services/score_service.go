package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dufire/tournament-backend/models"
	"github.com/dufire/tournament-backend/repositories"
)

// LeaderboardSize caps every leaderboard read and bounds prize distribution.
const LeaderboardSize = 10

type SubmitScoreInput struct {
	Score    int64           `json:"score"`
	GameData json.RawMessage `json:"game_data"`
}

type ScoreService interface {
	// Submit upserts the caller's score. The target board is resolved from the
	// caller's current tournament; if that tournament is gone or no longer
	// active the score lands on the global board instead of a stale one.
	Submit(ctx context.Context, userID int, input SubmitScoreInput) (*models.Score, error)
	GlobalTop(ctx context.Context) ([]models.LeaderboardEntry, error)
	TournamentTop(ctx context.Context, tournamentID int) ([]models.LeaderboardEntry, error)
}

type scoreService struct {
	userRepo       repositories.UserRepository
	tournamentRepo repositories.TournamentRepository
	scoreRepo      repositories.ScoreRepository
	broadcaster    Broadcaster
	logger         *slog.Logger
}

func NewScoreService(
	userRepo repositories.UserRepository,
	tournamentRepo repositories.TournamentRepository,
	scoreRepo repositories.ScoreRepository,
	broadcaster Broadcaster,
	logger *slog.Logger,
) ScoreService {
	return &scoreService{
		userRepo:       userRepo,
		tournamentRepo: tournamentRepo,
		scoreRepo:      scoreRepo,
		broadcaster:    broadcaster,
		logger:         logger,
	}
}

func (s *scoreService) Submit(ctx context.Context, userID int, input SubmitScoreInput) (*models.Score, error) {
	if input.Score <= 0 {
		return nil, ErrScoreInvalid
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrAuthenticationRequired
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	var tournamentID *int
	if user.CurrentTournamentID != nil {
		tournament, tErr := s.tournamentRepo.GetByID(ctx, *user.CurrentTournamentID)
		switch {
		case tErr == nil && tournament.Status == models.StatusActive:
			tournamentID = user.CurrentTournamentID
		case tErr != nil && !errors.Is(tErr, repositories.ErrTournamentNotFound):
			return nil, fmt.Errorf("failed to check tournament %d: %w", *user.CurrentTournamentID, tErr)
		default:
			// Stale assignment: the tournament finished or vanished since the
			// payment was approved. The score still counts, globally.
			s.logger.Info("current tournament not active, submitting as global score",
				slog.Int("user_id", userID), slog.Int("tournament_id", *user.CurrentTournamentID))
		}
	}

	score := &models.Score{
		UserID:       userID,
		TournamentID: tournamentID,
		Score:        input.Score,
		GameData:     input.GameData,
	}
	if err := s.scoreRepo.Upsert(ctx, score); err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastScoreUpdate(tournamentID, userID, user.Username, input.Score)
	}

	return score, nil
}

func (s *scoreService) GlobalTop(ctx context.Context) ([]models.LeaderboardEntry, error) {
	entries, err := s.scoreRepo.TopByTournament(ctx, nil, nil, LeaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load global leaderboard: %w", err)
	}
	return entries, nil
}

func (s *scoreService) TournamentTop(ctx context.Context, tournamentID int) ([]models.LeaderboardEntry, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	entries, err := s.scoreRepo.TopByTournament(ctx, nil, &tournamentID, LeaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard for tournament %d: %w", tournamentID, err)
	}
	return entries, nil
}
