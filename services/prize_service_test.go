package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dufire/tournament-backend/models"
)

func TestPairWinnersSplitsPool(t *testing.T) {
	scores := []models.LeaderboardEntry{
		{UserID: 1, Username: "first", Score: 100},
		{UserID: 2, Username: "second", Score: 90},
		{UserID: 3, Username: "third", Score: 80},
	}
	splits := []models.PrizeSplit{
		{RankPosition: 1, Percentage: 50},
		{RankPosition: 2, Percentage: 30},
		{RankPosition: 3, Percentage: 20},
	}

	prizes, winners := pairWinners(9, 1000, scores, splits)
	if len(prizes) != 3 || len(winners) != 3 {
		t.Fatalf("expected 3 prizes and winners, got %d/%d", len(prizes), len(winners))
	}

	wantAmounts := []float64{500, 300, 200}
	for i, want := range wantAmounts {
		if prizes[i].Amount != want {
			t.Errorf("rank %d: expected amount %.2f, got %.2f", i+1, want, prizes[i].Amount)
		}
		if prizes[i].TournamentID != 9 {
			t.Errorf("rank %d: expected tournament 9, got %d", i+1, prizes[i].TournamentID)
		}
		if winners[i].Amount != want {
			t.Errorf("rank %d: winner amount mismatch: %.2f", i+1, winners[i].Amount)
		}
	}
	if prizes[0].UserID != 1 || prizes[1].UserID != 2 || prizes[2].UserID != 3 {
		t.Error("prizes must pair rank order with leaderboard order")
	}
}

func TestPairWinnersFewerScoresThanSplits(t *testing.T) {
	scores := []models.LeaderboardEntry{
		{UserID: 1, Username: "only", Score: 42},
	}

	prizes, _ := pairWinners(1, 200, scores, models.DefaultPrizeSplits())
	if len(prizes) != 1 {
		t.Fatalf("expected 1 prize, got %d", len(prizes))
	}
	// Rank 1 takes 35%; the unclaimed tail is not redistributed.
	if prizes[0].Amount != 70 {
		t.Errorf("expected 70, got %.2f", prizes[0].Amount)
	}
}

func TestPairWinnersCapsAtSplitTable(t *testing.T) {
	scores := make([]models.LeaderboardEntry, 12)
	for i := range scores {
		scores[i] = models.LeaderboardEntry{UserID: i + 1, Score: int64(1000 - i)}
	}

	prizes, _ := pairWinners(1, 100, scores, models.DefaultPrizeSplits())
	if len(prizes) != 10 {
		t.Fatalf("expected 10 prizes, got %d", len(prizes))
	}
}

func TestDefaultPrizeSplits(t *testing.T) {
	splits := models.DefaultPrizeSplits()
	if len(splits) != 10 {
		t.Fatalf("expected 10 splits, got %d", len(splits))
	}

	wantTop := []float64{35, 20, 15, 10, 7}
	for i, want := range wantTop {
		if splits[i].Percentage != want {
			t.Errorf("rank %d: expected %.0f%%, got %.2f%%", i+1, want, splits[i].Percentage)
		}
	}
	for i := 5; i < 10; i++ {
		if splits[i].Percentage != 2 {
			t.Errorf("rank %d: expected 2%%, got %.2f%%", i+1, splits[i].Percentage)
		}
	}
}

func TestDistributeRequiresAdmin(t *testing.T) {
	userRepo := newFakeUserRepo(&models.User{ID: 1, Username: "player1", IsAdmin: false})
	svc := NewPrizeService(nil, newFakeTournamentRepo(), &fakeScoreRepo{}, nil, userRepo, nil, discardLogger())

	if _, err := svc.Distribute(context.Background(), 1, 3); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired, got %v", err)
	}
}

func TestDistributeUnknownAdmin(t *testing.T) {
	svc := NewPrizeService(nil, newFakeTournamentRepo(), &fakeScoreRepo{}, nil, newFakeUserRepo(), nil, discardLogger())

	if _, err := svc.Distribute(context.Background(), 99, 3); !errors.Is(err, ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
	}
}

type distributeFixture struct {
	svc            PrizeService
	txb            *fakeTxBeginner
	tournamentRepo *fakeTournamentRepo
	scoreRepo      *fakeScoreRepo
	prizeRepo      *fakePrizeRepo
	broadcaster    *fakeBroadcaster
}

// newDistributeFixture wires an admin, an active tournament with a 1000 USDT
// pool and the default split table, and three submitted scores.
func newDistributeFixture() *distributeFixture {
	f := &distributeFixture{
		txb: newFakeTxBeginner(),
		tournamentRepo: newFakeTournamentRepo(
			&models.Tournament{ID: 3, Name: "Spring Cup", Status: models.StatusActive, PrizePool: 1000},
		),
		scoreRepo: &fakeScoreRepo{top: []models.LeaderboardEntry{
			{UserID: 2, Username: "alice", Score: 100},
			{UserID: 3, Username: "bob", Score: 90},
			{UserID: 4, Username: "carol", Score: 80},
		}},
		prizeRepo:   newFakePrizeRepo(),
		broadcaster: &fakeBroadcaster{},
	}
	f.prizeRepo.seeded[3] = models.DefaultPrizeSplits()
	userRepo := newFakeUserRepo(&models.User{ID: 1, Username: "admin", IsAdmin: true})
	f.svc = NewPrizeService(f.txb, f.tournamentRepo, f.scoreRepo, f.prizeRepo, userRepo, f.broadcaster, discardLogger())
	return f
}

func TestDistribute(t *testing.T) {
	f := newDistributeFixture()

	result, err := f.svc.Distribute(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}
	if len(result.Prizes) != 3 {
		t.Fatalf("expected 3 prize rows, got %d", len(result.Prizes))
	}
	wantAmounts := []float64{350, 200, 150}
	for i, want := range wantAmounts {
		if result.Prizes[i].Amount != want {
			t.Errorf("rank %d: expected %.2f, got %.2f", i+1, want, result.Prizes[i].Amount)
		}
		if result.Prizes[i].Paid {
			t.Errorf("rank %d: prize must start unpaid", i+1)
		}
	}
	if len(f.prizeRepo.created) != 3 {
		t.Errorf("expected 3 persisted prizes, got %d", len(f.prizeRepo.created))
	}

	tournament := f.tournamentRepo.tournaments[3]
	if tournament.Status != models.StatusFinished {
		t.Errorf("expected tournament finished, got %s", tournament.Status)
	}
	if f.txb.tx.commits != 1 || f.txb.tx.rollbacks != 0 {
		t.Errorf("expected 1 commit and 0 rollbacks, got %d/%d", f.txb.tx.commits, f.txb.tx.rollbacks)
	}
	if len(f.broadcaster.tournamentEvents) != 1 {
		t.Fatalf("expected 1 tournament event, got %d", len(f.broadcaster.tournamentEvents))
	}
	if f.broadcaster.tournamentEvents[0].Status != models.StatusFinished {
		t.Errorf("broadcast tournament must be finished, got %s", f.broadcaster.tournamentEvents[0].Status)
	}
}

func TestDistributeNoScores(t *testing.T) {
	f := newDistributeFixture()
	f.scoreRepo.top = nil

	if _, err := f.svc.Distribute(context.Background(), 1, 3); !errors.Is(err, ErrNoScores) {
		t.Fatalf("expected ErrNoScores, got %v", err)
	}
	if status := f.tournamentRepo.tournaments[3].Status; status != models.StatusActive {
		t.Errorf("tournament must stay active, got %s", status)
	}
	if len(f.prizeRepo.created) != 0 {
		t.Errorf("expected no prize rows, got %d", len(f.prizeRepo.created))
	}
	if f.txb.tx.commits != 0 || f.txb.tx.rollbacks != 1 {
		t.Errorf("expected 0 commits and 1 rollback, got %d/%d", f.txb.tx.commits, f.txb.tx.rollbacks)
	}
	if len(f.broadcaster.tournamentEvents) != 0 {
		t.Errorf("no event may fire on a failed distribution")
	}
}

func TestDistributeFinishedTournament(t *testing.T) {
	f := newDistributeFixture()
	f.tournamentRepo.tournaments[3].Status = models.StatusFinished

	if _, err := f.svc.Distribute(context.Background(), 1, 3); !errors.Is(err, ErrPrizesAlreadyDistributed) {
		t.Fatalf("expected ErrPrizesAlreadyDistributed, got %v", err)
	}
	if len(f.prizeRepo.created) != 0 {
		t.Errorf("expected no prize rows, got %d", len(f.prizeRepo.created))
	}
	if f.txb.tx.rollbacks != 1 {
		t.Errorf("expected 1 rollback, got %d", f.txb.tx.rollbacks)
	}
}

func TestDistributeSecondCallRejected(t *testing.T) {
	f := newDistributeFixture()

	if _, err := f.svc.Distribute(context.Background(), 1, 3); err != nil {
		t.Fatalf("first Distribute: %v", err)
	}
	if _, err := f.svc.Distribute(context.Background(), 1, 3); !errors.Is(err, ErrPrizesAlreadyDistributed) {
		t.Fatalf("second Distribute: expected ErrPrizesAlreadyDistributed, got %v", err)
	}
	if len(f.prizeRepo.created) != 3 {
		t.Errorf("prize rows must not grow on retry, got %d", len(f.prizeRepo.created))
	}
}

func TestDistributeCommitFailure(t *testing.T) {
	f := newDistributeFixture()
	f.txb.tx.commitErr = errors.New("connection reset")

	result, err := f.svc.Distribute(context.Background(), 1, 3)
	if err == nil {
		t.Fatal("expected commit error to surface")
	}
	if result != nil {
		t.Errorf("result must be nil on commit failure, got %+v", result)
	}
	if len(f.broadcaster.tournamentEvents) != 0 {
		t.Errorf("no event may fire when the transaction did not commit")
	}
}
