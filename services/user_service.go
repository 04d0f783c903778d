package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dufire/tournament-backend/models"
	"github.com/dufire/tournament-backend/repositories"
	"github.com/dufire/tournament-backend/storage"
	"golang.org/x/crypto/bcrypt"
)

type UpdateUserInput struct {
	Username   *string `json:"username"`
	Email      *string `json:"email"`
	USDTWallet *string `json:"usdt_wallet"`
	Password   *string `json:"password"`
	IsAdmin    *bool   `json:"is_admin"`
}

type UserService interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	// UpdateProfile applies self-service changes; IsAdmin is ignored here and
	// only honored through UpdateByAdmin.
	UpdateProfile(ctx context.Context, userID int, input UpdateUserInput) (*models.User, error)
	UploadAvatar(ctx context.Context, userID int, contentType string, file io.Reader) (*models.User, error)
	// CurrentTournament returns the user's active tournament, or nil when the
	// user is not competing or the referenced tournament is no longer active.
	CurrentTournament(ctx context.Context, userID int) (*models.Tournament, error)

	ListAll(ctx context.Context, adminID int) ([]models.User, error)
	UpdateByAdmin(ctx context.Context, adminID, userID int, input UpdateUserInput) (*models.User, error)
	DeleteByAdmin(ctx context.Context, adminID, userID int) error
}

type userService struct {
	userRepo       repositories.UserRepository
	tournamentRepo repositories.TournamentRepository
	uploader       storage.FileUploader
}

func NewUserService(
	userRepo repositories.UserRepository,
	tournamentRepo repositories.TournamentRepository,
	uploader storage.FileUploader,
) UserService {
	return &userService{
		userRepo:       userRepo,
		tournamentRepo: tournamentRepo,
		uploader:       uploader,
	}
}

// requireAdmin loads the caller and rejects non-admins before any state change.
func (s *userService) requireAdmin(ctx context.Context, adminID int) (*models.User, error) {
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

func (s *userService) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	populateUserDetails(user, s.uploader)
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int, input UpdateUserInput) (*models.User, error) {
	input.IsAdmin = nil
	return s.applyUpdate(ctx, userID, input)
}

func (s *userService) applyUpdate(ctx context.Context, userID int, input UpdateUserInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if input.Username != nil {
		if *input.Username == "" {
			return nil, fmt.Errorf("%w: username must not be empty", ErrValidationFailed)
		}
		user.Username = *input.Username
	}
	if input.Email != nil {
		if *input.Email == "" {
			return nil, fmt.Errorf("%w: email must not be empty", ErrValidationFailed)
		}
		user.Email = *input.Email
	}
	if input.USDTWallet != nil {
		user.USDTWallet = *input.USDTWallet
	}
	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hashed, hashErr := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if hashErr != nil {
			return nil, fmt.Errorf("failed to hash password: %w", hashErr)
		}
		user.PasswordHash = string(hashed)
	}
	if input.IsAdmin != nil {
		user.IsAdmin = *input.IsAdmin
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserUsernameConflict):
			return nil, ErrUsernameConflict
		case errors.Is(err, repositories.ErrUserEmailConflict):
			return nil, ErrEmailConflict
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user %d: %w", userID, err)
	}

	populateUserDetails(user, s.uploader)
	return user, nil
}

func (s *userService) UploadAvatar(ctx context.Context, userID int, contentType string, file io.Reader) (*models.User, error) {
	if s.uploader == nil {
		return nil, ErrStorageNotConfigured
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	ext, err := getExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	key := fmt.Sprintf("avatars/%d%s", userID, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	if err := s.userRepo.UpdateAvatarKey(ctx, userID, &key); err != nil {
		return nil, fmt.Errorf("failed to store avatar key: %w", err)
	}

	user.AvatarKey = &key
	populateUserDetails(user, s.uploader)
	return user, nil
}

func (s *userService) CurrentTournament(ctx context.Context, userID int) (*models.Tournament, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.CurrentTournamentID == nil {
		return nil, nil
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, *user.CurrentTournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if tournament.Status != models.StatusActive {
		return nil, nil
	}
	populateTournamentBannerURL(tournament, s.uploader)
	return tournament, nil
}

func (s *userService) ListAll(ctx context.Context, adminID int) ([]models.User, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for i := range users {
		populateUserDetails(&users[i], s.uploader)
	}
	return users, nil
}

func (s *userService) UpdateByAdmin(ctx context.Context, adminID, userID int, input UpdateUserInput) (*models.User, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.applyUpdate(ctx, userID, input)
}

func (s *userService) DeleteByAdmin(ctx context.Context, adminID, userID int) error {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user %d: %w", userID, err)
	}
	return nil
}
