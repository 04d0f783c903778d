package services

import (
	"fmt"
	"strings"

	"github.com/dufire/tournament-backend/models"
	"github.com/dufire/tournament-backend/storage"
)

func isValidStatusTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return true
	}
	allowedTransitions := map[models.TournamentStatus][]models.TournamentStatus{
		models.StatusUpcoming: {models.StatusActive},
		// finished is reachable only through prize distribution, never via a
		// direct status update.
		models.StatusActive:   {},
		models.StatusFinished: {},
	}
	for _, allowed := range allowedTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

func populateTournamentBannerURL(t *models.Tournament, uploader storage.FileUploader) {
	if t != nil && t.BannerKey != nil && *t.BannerKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*t.BannerKey)
		if url != "" {
			t.BannerURL = &url
		}
	}
}

func populateUserDetails(u *models.User, uploader storage.FileUploader) {
	if u == nil {
		return
	}
	u.PasswordHash = ""
	if u.AvatarKey != nil && *u.AvatarKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*u.AvatarKey)
		if url != "" {
			u.AvatarURL = &url
		}
	}
}

func getExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && strings.HasPrefix(parts[0], "image") && parts[1] != "" {
			return "." + strings.Split(parts[1], "+")[0], nil
		}
		return "", fmt.Errorf("could not determine file extension from content type: %q", contentType)
	}
}
