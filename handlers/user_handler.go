package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dufire/tournament-backend/middleware"
	"github.com/dufire/tournament-backend/services"
)

const maxAvatarSize = 5 << 20 // 5MB

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.UpdateUserInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		badRequestResponse(w, r, fmt.Errorf("could not parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		badRequestResponse(w, r, errors.New("avatar file is required"))
		return
	}
	defer file.Close()

	user, err := h.userService.UploadAvatar(r.Context(), userID, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UserHandler) CurrentTournament(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	tournament, err := h.userService.CurrentTournament(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LegacyCurrentTournament answers the game client's poll with plain text
// "tournament_id:<id>", where 0 means no active tournament.
func (h *UserHandler) LegacyCurrentTournament(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		legacyErrorResponse(w, "authentication required")
		return
	}

	tournament, err := h.userService.CurrentTournament(r.Context(), userID)
	if err != nil {
		legacyErrorResponse(w, "could not resolve current tournament")
		return
	}

	id := 0
	if tournament != nil {
		id = tournament.ID
	}
	writePlainText(w, fmt.Sprintf("tournament_id:%d", id))
}

func (h *UserHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	users, err := h.userService.ListAll(r.Context(), adminID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"users": users}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UserHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	userID, err := idParam(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateUserInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.UpdateByAdmin(r.Context(), adminID, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UserHandler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	userID, err := idParam(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.userService.DeleteByAdmin(r.Context(), adminID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
