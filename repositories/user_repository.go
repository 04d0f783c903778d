package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dufire/tournament-backend/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserUsernameConflict = errors.New("username is already in use")
	ErrUserEmailConflict    = errors.New("email is already in use")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateAvatarKey(ctx context.Context, userID int, avatarKey *string) error
	SetCurrentTournament(ctx context.Context, exec SQLExecutor, userID int, tournamentID *int) error
	Delete(ctx context.Context, id int) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const userColumns = `id, username, email, password_hash, usdt_wallet, is_admin, current_tournament_id, avatar_key, created_at`

func scanUser(row interface{ Scan(...interface{}) error }, u *models.User) error {
	return row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.USDTWallet,
		&u.IsAdmin, &u.CurrentTournamentID, &u.AvatarKey, &u.CreatedAt,
	)
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, usdt_wallet, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.USDTWallet, user.IsAdmin,
	).Scan(&user.ID, &user.CreatedAt)

	return r.handleUserError(err)
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u := &models.User{}
	err := scanUser(r.db.QueryRowContext(ctx, query, id), u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *postgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	u := &models.User{}
	err := scanUser(r.db.QueryRowContext(ctx, query, username), u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *postgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if scanErr := scanUser(rows, &u); scanErr != nil {
			return nil, scanErr
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *postgresUserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			username = $1,
			email = $2,
			password_hash = $3,
			usdt_wallet = $4,
			is_admin = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.USDTWallet, user.IsAdmin, user.ID,
	)
	if err != nil {
		return r.handleUserError(err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateAvatarKey(ctx context.Context, userID int, avatarKey *string) error {
	query := `UPDATE users SET avatar_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, avatarKey, userID)
	if err != nil {
		return fmt.Errorf("failed to update user avatar key: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

// SetCurrentTournament overwrites the user's active tournament unconditionally.
// A user competes in at most one tournament at a time; a newly verified payment
// replaces any prior assignment.
func (r *postgresUserRepository) SetCurrentTournament(ctx context.Context, exec SQLExecutor, userID int, tournamentID *int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE users SET current_tournament_id = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, tournamentID, userID)
	if err != nil {
		return fmt.Errorf("failed to set current tournament for user %d: %w", userID, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) handleUserError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23505" { // unique_violation
			switch pqErr.Constraint {
			case "users_username_key":
				return ErrUserUsernameConflict
			case "users_email_key":
				return ErrUserEmailConflict
			}
		}
	}
	return err
}
