package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/dufire/tournament-backend/models"
	"github.com/dufire/tournament-backend/services"
)

type AuthHandler struct {
	authService services.AuthService
	jwtSecret   []byte
}

func NewAuthHandler(authService services.AuthService, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtSecret:   []byte(jwtSecret),
	}
}

func (h *AuthHandler) signToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"is_admin": user.IsAdmin,
		"name":     user.Username,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Register godoc
// @Summary Register a new player
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput

	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.Username == "" || input.Email == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("username, email, and password are required"))
		return
	}

	user, err := h.authService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	tokenString, err := h.signToken(user)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"user":  user,
		"token": tokenString,
	}

	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Login godoc
// @Summary Log in and receive a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput

	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.Username == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("username and password are required"))
		return
	}

	user, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	tokenString, err := h.signToken(user)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"user":  user,
		"token": tokenString,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LegacyLogin serves the form-encoded login the game client speaks. The
// response body is plain text: "user_id:<id>|name:<username>|token:<jwt>" on
// success, "error:<message>" otherwise.
func (h *AuthHandler) LegacyLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		legacyErrorResponse(w, "invalid form data")
		return
	}

	username := r.PostFormValue("name")
	if username == "" {
		username = r.PostFormValue("username")
	}
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		legacyErrorResponse(w, "username and password are required")
		return
	}

	user, err := h.authService.Login(r.Context(), services.LoginInput{
		Username: username,
		Password: password,
	})
	if err != nil {
		if errors.Is(err, services.ErrAuthInvalidCredentials) {
			legacyErrorResponse(w, "invalid username or password")
			return
		}
		legacyErrorResponse(w, "login failed")
		return
	}

	tokenString, err := h.signToken(user)
	if err != nil {
		legacyErrorResponse(w, "login failed")
		return
	}

	writePlainText(w, fmt.Sprintf("user_id:%d|name:%s|token:%s", user.ID, user.Username, tokenString))
}
