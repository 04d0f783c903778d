package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dufire/tournament-backend/models"
	"github.com/dufire/tournament-backend/repositories"
)

type fakePrizeRepo struct {
	seeded  map[int][]models.PrizeSplit
	created []models.Prize
}

func newFakePrizeRepo() *fakePrizeRepo {
	return &fakePrizeRepo{seeded: make(map[int][]models.PrizeSplit)}
}

func (r *fakePrizeRepo) Create(ctx context.Context, exec repositories.SQLExecutor, prize *models.Prize) error {
	for _, p := range r.created {
		if p.TournamentID == prize.TournamentID && p.RankPosition == prize.RankPosition {
			return repositories.ErrPrizeRankConflict
		}
	}
	prize.ID = len(r.created) + 1
	r.created = append(r.created, *prize)
	return nil
}

func (r *fakePrizeRepo) ListByTournament(ctx context.Context, tournamentID int) ([]models.Prize, error) {
	out := make([]models.Prize, 0)
	for _, p := range r.created {
		if p.TournamentID == tournamentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePrizeRepo) SeedSplits(ctx context.Context, tournamentID int, splits []models.PrizeSplit) error {
	r.seeded[tournamentID] = splits
	return nil
}

func (r *fakePrizeRepo) ListSplits(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]models.PrizeSplit, error) {
	return r.seeded[tournamentID], nil
}

func (r *fakePrizeRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	return nil
}

func newTournamentServiceForTest(
	tournamentRepo *fakeTournamentRepo,
	prizeRepo *fakePrizeRepo,
	userRepo *fakeUserRepo,
	broadcaster *fakeBroadcaster,
) TournamentService {
	var b Broadcaster
	if broadcaster != nil {
		b = broadcaster
	}
	return NewTournamentService(nil, tournamentRepo, nil, nil, nil, prizeRepo, nil, userRepo, &fakeUploader{}, b, discardLogger())
}

func adminUser() *models.User {
	return &models.User{ID: 1, Username: "admin", IsAdmin: true}
}

func validCreateInput() CreateTournamentInput {
	now := time.Now()
	return CreateTournamentInput{
		Name:         "Spring Cup",
		EntryFee:     10,
		StartDate:    now.Add(24 * time.Hour),
		EndDate:      now.Add(48 * time.Hour),
		PayoutWallet: "TXcentral",
	}
}

func TestCreateTournamentSeedsSplits(t *testing.T) {
	tournamentRepo := newFakeTournamentRepo()
	prizeRepo := newFakePrizeRepo()
	svc := newTournamentServiceForTest(tournamentRepo, prizeRepo, newFakeUserRepo(adminUser()), nil)

	tournament, err := svc.Create(context.Background(), 1, validCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tournament.Status != models.StatusUpcoming {
		t.Errorf("expected upcoming, got %s", tournament.Status)
	}
	if len(prizeRepo.seeded[tournament.ID]) != 10 {
		t.Errorf("expected 10 seeded splits, got %d", len(prizeRepo.seeded[tournament.ID]))
	}
}

func TestCreateTournamentValidation(t *testing.T) {
	svc := newTournamentServiceForTest(newFakeTournamentRepo(), newFakePrizeRepo(), newFakeUserRepo(adminUser()), nil)

	tests := []struct {
		name   string
		mutate func(*CreateTournamentInput)
		want   error
	}{
		{"empty name", func(in *CreateTournamentInput) { in.Name = "" }, ErrTournamentNameRequired},
		{"end before start", func(in *CreateTournamentInput) { in.EndDate = in.StartDate.Add(-time.Hour) }, ErrTournamentInvalidDateRange},
		{"negative fee", func(in *CreateTournamentInput) { in.EntryFee = -1 }, ErrTournamentInvalidEntryFee},
		{"zero capacity", func(in *CreateTournamentInput) { in.MaxUsers = intPtr(0) }, ErrTournamentInvalidCapacity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validCreateInput()
			tt.mutate(&input)
			if _, err := svc.Create(context.Background(), 1, input); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateTournamentRequiresAdmin(t *testing.T) {
	userRepo := newFakeUserRepo(&models.User{ID: 1, Username: "player"})
	svc := newTournamentServiceForTest(newFakeTournamentRepo(), newFakePrizeRepo(), userRepo, nil)

	if _, err := svc.Create(context.Background(), 1, validCreateInput()); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired, got %v", err)
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		current models.TournamentStatus
		next    models.TournamentStatus
		wantErr bool
	}{
		{"activate upcoming", models.StatusUpcoming, models.StatusActive, false},
		{"finish directly", models.StatusActive, models.StatusFinished, true},
		{"reopen active", models.StatusActive, models.StatusUpcoming, true},
		{"reopen finished", models.StatusFinished, models.StatusActive, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tournamentRepo := newFakeTournamentRepo(&models.Tournament{ID: 3, Status: tt.current})
			broadcaster := &fakeBroadcaster{}
			svc := newTournamentServiceForTest(tournamentRepo, newFakePrizeRepo(), newFakeUserRepo(adminUser()), broadcaster)

			tournament, err := svc.UpdateStatus(context.Background(), 1, 3, tt.next)
			if tt.wantErr {
				if !errors.Is(err, ErrTournamentInvalidStatus) {
					t.Fatalf("expected ErrTournamentInvalidStatus, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateStatus: %v", err)
			}
			if tournament.Status != tt.next {
				t.Errorf("expected %s, got %s", tt.next, tournament.Status)
			}
			if len(broadcaster.tournamentEvents) != 1 {
				t.Errorf("expected 1 tournament broadcast, got %d", len(broadcaster.tournamentEvents))
			}
		})
	}
}

func TestApplyPoolCorrection(t *testing.T) {
	txb := newFakeTxBeginner()
	tournamentRepo := newFakeTournamentRepo(&models.Tournament{ID: 3, Status: models.StatusActive, PrizePool: 100})
	ledgerRepo := &fakeLedgerRepo{}
	svc := NewTournamentService(txb, tournamentRepo, nil, nil, nil, newFakePrizeRepo(), ledgerRepo, newFakeUserRepo(adminUser()), &fakeUploader{}, nil, discardLogger())

	entry, err := svc.ApplyPoolCorrection(context.Background(), 1, 3, PoolCorrectionInput{Delta: -25, Note: "chargeback"})
	if err != nil {
		t.Fatalf("ApplyPoolCorrection: %v", err)
	}
	if entry.Kind != models.PoolLedgerCorrection || entry.Delta != -25 {
		t.Errorf("expected correction of -25, got %s %.2f", entry.Kind, entry.Delta)
	}
	if entry.Note == nil || *entry.Note != "chargeback" {
		t.Errorf("expected note to be recorded, got %v", entry.Note)
	}
	if pool := tournamentRepo.tournaments[3].PrizePool; pool != 75 {
		t.Errorf("expected pool 75 after correction, got %.2f", pool)
	}
	if len(ledgerRepo.entries) != 1 {
		t.Errorf("expected 1 ledger row, got %d", len(ledgerRepo.entries))
	}
	if txb.tx.commits != 1 || txb.tx.rollbacks != 0 {
		t.Errorf("expected 1 commit and 0 rollbacks, got %d/%d", txb.tx.commits, txb.tx.rollbacks)
	}
}

func TestApplyPoolCorrectionZeroDelta(t *testing.T) {
	svc := newTournamentServiceForTest(newFakeTournamentRepo(), newFakePrizeRepo(), newFakeUserRepo(adminUser()), nil)

	if _, err := svc.ApplyPoolCorrection(context.Background(), 1, 3, PoolCorrectionInput{Delta: 0}); !errors.Is(err, ErrCorrectionZeroDelta) {
		t.Fatalf("expected ErrCorrectionZeroDelta, got %v", err)
	}
}
