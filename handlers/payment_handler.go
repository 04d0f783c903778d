package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dufire/tournament-backend/middleware"
	"github.com/dufire/tournament-backend/models"
	"github.com/dufire/tournament-backend/repositories"
	"github.com/dufire/tournament-backend/services"
)

type PaymentHandler struct {
	paymentService services.PaymentService
	centralWallet  string
}

func NewPaymentHandler(paymentService services.PaymentService, centralWallet string) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		centralWallet:  centralWallet,
	}
}

// Join records a claimed entry-fee transfer for the tournament as a pending
// payment awaiting admin review.
func (h *PaymentHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SubmitPaymentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	payment, err := h.paymentService.Submit(r.Context(), userID, tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"payment":        payment,
		"wallet_central": h.centralWallet,
		"next_steps":     fmt.Sprintf("Send %.2f USDT (TRC20) to the central wallet and wait for admin verification", payment.Amount),
	}

	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PaymentHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var filter repositories.ListPaymentsFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.PaymentStatus(raw)
		if !status.IsValid() {
			badRequestResponse(w, r, fmt.Errorf("invalid status filter: %s", raw))
			return
		}
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("tournament_id"); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil && id > 0 {
			filter.TournamentID = &id
		}
	}
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil && id > 0 {
			filter.UserID = &id
		}
	}

	payments, err := h.paymentService.List(r.Context(), adminID, filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"payments": payments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	paymentID, err := idParam(r, "paymentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.VerifyPaymentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	payment, err := h.paymentService.Verify(r.Context(), adminID, paymentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"payment": payment}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
