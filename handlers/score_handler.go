package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/dufire/tournament-backend/models"
	"github.com/dufire/tournament-backend/services"
)

type ScoreHandler struct {
	scoreService services.ScoreService
	jwtSecret    []byte
}

func NewScoreHandler(scoreService services.ScoreService, jwtSecret string) *ScoreHandler {
	return &ScoreHandler{
		scoreService: scoreService,
		jwtSecret:    []byte(jwtSecret),
	}
}

// userIDFromLegacyRequest resolves the caller from a form-encoded request.
// The game client sends the JWT as a "token" form field; an Authorization
// header is honored as well.
func (h *ScoreHandler) userIDFromLegacyRequest(r *http.Request) (int, error) {
	tokenString := r.PostFormValue("token")
	if tokenString == "" {
		header := r.Header.Get("Authorization")
		tokenString = strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			tokenString = ""
		}
	}
	if tokenString == "" {
		return 0, errors.New("token is required")
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok || userIDFloat <= 0 {
		return 0, errors.New("invalid token")
	}
	return int(userIDFloat), nil
}

// LegacySubmit accepts the game client's form-encoded score post. The score
// field is "puntos" in the original client protocol, with "score" accepted as
// an alias. Responds with plain "success" or "error:<message>".
func (h *ScoreHandler) LegacySubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		legacyErrorResponse(w, "invalid form data")
		return
	}

	userID, err := h.userIDFromLegacyRequest(r)
	if err != nil {
		legacyErrorResponse(w, err.Error())
		return
	}

	raw := r.PostFormValue("puntos")
	if raw == "" {
		raw = r.PostFormValue("score")
	}
	score, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || score <= 0 {
		legacyErrorResponse(w, "missing name or invalid score")
		return
	}

	if _, err := h.scoreService.Submit(r.Context(), userID, services.SubmitScoreInput{Score: score}); err != nil {
		legacyErrorResponse(w, err.Error())
		return
	}

	writePlainText(w, "success")
}

// formatLegacyLeaderboard renders entries in the pipe/semicolon wire format
// the game client parses: "username|score;username|score;".
func formatLegacyLeaderboard(entries []models.LeaderboardEntry) string {
	var b strings.Builder
	for _, entry := range entries {
		b.WriteString(entry.Username)
		b.WriteByte('|')
		b.WriteString(strconv.FormatInt(entry.Score, 10))
		b.WriteByte(';')
	}
	return b.String()
}

func (h *ScoreHandler) LegacyGlobalLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.scoreService.GlobalTop(r.Context())
	if err != nil {
		legacyErrorResponse(w, "could not load leaderboard")
		return
	}
	writePlainText(w, formatLegacyLeaderboard(entries))
}

func (h *ScoreHandler) LegacyTournamentLeaderboard(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		legacyErrorResponse(w, "invalid tournament id")
		return
	}

	entries, err := h.scoreService.TournamentTop(r.Context(), tournamentID)
	if err != nil {
		if errors.Is(err, services.ErrTournamentNotFound) {
			legacyErrorResponse(w, "tournament not found")
			return
		}
		legacyErrorResponse(w, "could not load leaderboard")
		return
	}
	writePlainText(w, formatLegacyLeaderboard(entries))
}

func (h *ScoreHandler) GlobalLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.scoreService.GlobalTop(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
