package handlers

import (
	"net/http"

	"github.com/dufire/tournament-backend/middleware"
	"github.com/dufire/tournament-backend/services"
)

type PrizeHandler struct {
	prizeService services.PrizeService
}

func NewPrizeHandler(prizeService services.PrizeService) *PrizeHandler {
	return &PrizeHandler{prizeService: prizeService}
}

// Distribute pays out the tournament's prize pool to its top scorers and
// closes the tournament.
func (h *PrizeHandler) Distribute(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.prizeService.Distribute(r.Context(), adminID, tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"distribution": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
