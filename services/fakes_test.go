package services

import (
	"context"
	"database/sql"
	"io"
	"strings"

	"github.com/dufire/tournament-backend/models"
	"github.com/dufire/tournament-backend/repositories"
	"github.com/dufire/tournament-backend/storage"
)

// fakeTx satisfies the Tx interface without a database. The executor methods
// are never reached because the fake repositories ignore their exec argument.
type fakeTx struct {
	commits   int
	rollbacks int
	commitErr error
}

func (t *fakeTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (t *fakeTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (t *fakeTx) Commit() error {
	t.commits++
	return t.commitErr
}

func (t *fakeTx) Rollback() error {
	t.rollbacks++
	return nil
}

type fakeTxBeginner struct {
	tx *fakeTx
}

func newFakeTxBeginner() *fakeTxBeginner {
	return &fakeTxBeginner{tx: &fakeTx{}}
}

func (b *fakeTxBeginner) BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	return b.tx, nil
}

type fakeUserRepo struct {
	users     map[int]*models.User
	createErr error
	created   []*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[int]*models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	user.ID = len(r.users) + 1
	copied := *user
	r.users[user.ID] = &copied
	r.created = append(r.created, &copied)
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) List(ctx context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, *user)
	}
	return out, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) UpdateAvatarKey(ctx context.Context, userID int, avatarKey *string) error {
	user, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.AvatarKey = avatarKey
	return nil
}

func (r *fakeUserRepo) SetCurrentTournament(ctx context.Context, exec repositories.SQLExecutor, userID int, tournamentID *int) error {
	user, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.CurrentTournamentID = tournamentID
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo(tournaments ...*models.Tournament) *fakeTournamentRepo {
	repo := &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament)}
	for _, t := range tournaments {
		repo.tournaments[t.ID] = t
	}
	return repo
}

func (r *fakeTournamentRepo) Create(ctx context.Context, tournament *models.Tournament) error {
	tournament.ID = len(r.tournaments) + 1
	copied := *tournament
	r.tournaments[tournament.ID] = &copied
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *tournament
	return &copied, nil
}

func (r *fakeTournamentRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	out := make([]models.Tournament, 0, len(r.tournaments))
	for _, t := range r.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	tournament, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	tournament.Status = status
	return nil
}

func (r *fakeTournamentRepo) IncrementPrizePool(ctx context.Context, exec repositories.SQLExecutor, id int, delta float64) error {
	tournament, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	tournament.PrizePool += delta
	return nil
}

func (r *fakeTournamentRepo) UpdateBannerKey(ctx context.Context, tournamentID int, bannerKey *string) error {
	tournament, ok := r.tournaments[tournamentID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	tournament.BannerKey = bannerKey
	return nil
}

func (r *fakeTournamentRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

type fakeScoreRepo struct {
	upserted []*models.Score
	top      []models.LeaderboardEntry
}

func (r *fakeScoreRepo) Upsert(ctx context.Context, score *models.Score) error {
	copied := *score
	r.upserted = append(r.upserted, &copied)
	return nil
}

func (r *fakeScoreRepo) TopByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID *int, limit int) ([]models.LeaderboardEntry, error) {
	if limit < len(r.top) {
		return r.top[:limit], nil
	}
	return r.top, nil
}

func (r *fakeScoreRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	return nil
}

type participantKey struct {
	tournamentID int
	userID       int
}

type fakeParticipantRepo struct {
	participants map[participantKey]*models.Participant
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{participants: make(map[participantKey]*models.Participant)}
}

func (r *fakeParticipantRepo) UpsertVerified(ctx context.Context, exec repositories.SQLExecutor, tournamentID, userID int) (*models.Participant, error) {
	key := participantKey{tournamentID: tournamentID, userID: userID}
	participant, ok := r.participants[key]
	if !ok {
		participant = &models.Participant{
			ID:           len(r.participants) + 1,
			TournamentID: tournamentID,
			UserID:       userID,
		}
		r.participants[key] = participant
	}
	participant.PaymentVerified = true
	copied := *participant
	return &copied, nil
}

func (r *fakeParticipantRepo) GetByTournamentAndUser(ctx context.Context, tournamentID, userID int) (*models.Participant, error) {
	participant, ok := r.participants[participantKey{tournamentID: tournamentID, userID: userID}]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	copied := *participant
	return &copied, nil
}

func (r *fakeParticipantRepo) ListByTournament(ctx context.Context, tournamentID int) ([]models.Participant, error) {
	out := make([]models.Participant, 0)
	for key, p := range r.participants {
		if key.tournamentID == tournamentID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeParticipantRepo) CountVerified(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int, error) {
	count := 0
	for key, p := range r.participants {
		if key.tournamentID == tournamentID && p.PaymentVerified {
			count++
		}
	}
	return count, nil
}

func (r *fakeParticipantRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	for key := range r.participants {
		if key.tournamentID == tournamentID {
			delete(r.participants, key)
		}
	}
	return nil
}

type fakeLedgerRepo struct {
	entries []models.PoolLedgerEntry
}

func (r *fakeLedgerRepo) Append(ctx context.Context, exec repositories.SQLExecutor, entry *models.PoolLedgerEntry) error {
	entry.ID = len(r.entries) + 1
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeLedgerRepo) ListByTournament(ctx context.Context, tournamentID int) ([]models.PoolLedgerEntry, error) {
	out := make([]models.PoolLedgerEntry, 0)
	for _, e := range r.entries {
		if e.TournamentID == tournamentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) SumByTournament(ctx context.Context, tournamentID int) (float64, error) {
	var sum float64
	for _, e := range r.entries {
		if e.TournamentID == tournamentID {
			sum += e.Delta
		}
	}
	return sum, nil
}

func (r *fakeLedgerRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.TournamentID != tournamentID {
			kept = append(kept, e)
		}
	}
	r.entries = kept
	return nil
}

type scoreEvent struct {
	tournamentID *int
	userID       int
	username     string
	score        int64
}

type fakeBroadcaster struct {
	scoreEvents      []scoreEvent
	tournamentEvents []*models.Tournament
}

func (b *fakeBroadcaster) BroadcastScoreUpdate(tournamentID *int, userID int, username string, score int64) {
	b.scoreEvents = append(b.scoreEvents, scoreEvent{
		tournamentID: tournamentID,
		userID:       userID,
		username:     username,
		score:        score,
	})
}

func (b *fakeBroadcaster) BroadcastTournamentUpdate(tournament *models.Tournament) {
	b.tournamentEvents = append(b.tournamentEvents, tournament)
}

type fakeUploader struct {
	uploads []string
	deletes []string
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	u.uploads = append(u.uploads, key)
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.deletes = append(u.deletes, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	if key == "" {
		return ""
	}
	return "https://cdn.test/" + strings.TrimPrefix(key, "/")
}
