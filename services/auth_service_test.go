package services

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/dufire/tournament-backend/models"
	"github.com/dufire/tournament-backend/repositories"
)

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hash)
}

func TestRegisterHashesPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)

	user, err := svc.Register(context.Background(), RegisterInput{
		Username:   "player1",
		Email:      "player1@example.com",
		Password:   "supersecret",
		USDTWallet: "TXYZabc",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.PasswordHash != "" {
		t.Error("returned user must not expose the password hash")
	}

	stored := repo.created[0]
	if stored.PasswordHash == "supersecret" || stored.PasswordHash == "" {
		t.Error("stored password must be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("supersecret")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestRegisterShortPassword(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "player1",
		Email:    "player1@example.com",
		Password: "short",
	})
	if !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestRegisterConflicts(t *testing.T) {
	tests := []struct {
		name    string
		repoErr error
		want    error
	}{
		{"username taken", repositories.ErrUserUsernameConflict, ErrUsernameConflict},
		{"email taken", repositories.ErrUserEmailConflict, ErrEmailConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUserRepo()
			repo.createErr = tt.repoErr
			svc := NewAuthService(repo)

			_, err := svc.Register(context.Background(), RegisterInput{
				Username: "player1",
				Email:    "player1@example.com",
				Password: "supersecret",
			})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo(&models.User{
		ID:           7,
		Username:     "player1",
		PasswordHash: hashPassword(t, "supersecret"),
	})
	svc := NewAuthService(repo)

	user, err := svc.Login(context.Background(), LoginInput{Username: "player1", Password: "supersecret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != 7 {
		t.Errorf("expected user 7, got %d", user.ID)
	}
	if user.PasswordHash != "" {
		t.Error("returned user must not expose the password hash")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := newFakeUserRepo(&models.User{
		ID:           7,
		Username:     "player1",
		PasswordHash: hashPassword(t, "supersecret"),
	})
	svc := NewAuthService(repo)

	if _, err := svc.Login(context.Background(), LoginInput{Username: "player1", Password: "wrong"}); !errors.Is(err, ErrAuthInvalidCredentials) {
		t.Errorf("wrong password: expected ErrAuthInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), LoginInput{Username: "ghost", Password: "supersecret"}); !errors.Is(err, ErrAuthInvalidCredentials) {
		t.Errorf("unknown user: expected ErrAuthInvalidCredentials, got %v", err)
	}
}
