package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v4"

	"github.com/dufire/tournament-backend/models"
	"github.com/dufire/tournament-backend/services"
)

type fakeAuthService struct {
	user     *models.User
	loginErr error
}

func (s *fakeAuthService) Register(ctx context.Context, input services.RegisterInput) (*models.User, error) {
	return s.user, nil
}

func (s *fakeAuthService) Login(ctx context.Context, input services.LoginInput) (*models.User, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return s.user, nil
}

func TestLegacyLogin(t *testing.T) {
	svc := &fakeAuthService{user: &models.User{ID: 7, Username: "player1"}}
	handler := NewAuthHandler(svc, testSecret)

	form := url.Values{}
	form.Set("name", "player1")
	form.Set("password", "supersecret")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.LegacyLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	prefix := "user_id:7|name:player1|token:"
	if !strings.HasPrefix(string(body), prefix) {
		t.Fatalf("expected prefix %q, got %q", prefix, body)
	}

	tokenString := strings.TrimPrefix(string(body), prefix)
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("embedded token must be a valid JWT: %v", err)
	}
	if id, ok := claims["user_id"].(float64); !ok || int(id) != 7 {
		t.Errorf("expected user_id claim 7, got %v", claims["user_id"])
	}
}

func TestLegacyLoginAcceptsUsernameField(t *testing.T) {
	svc := &fakeAuthService{user: &models.User{ID: 7, Username: "player1"}}
	handler := NewAuthHandler(svc, testSecret)

	form := url.Values{}
	form.Set("username", "player1")
	form.Set("password", "supersecret")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.LegacyLogin(rec, req)

	body, _ := io.ReadAll(rec.Body)
	if !strings.HasPrefix(string(body), "user_id:7|") {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestLegacyLoginBadCredentials(t *testing.T) {
	svc := &fakeAuthService{loginErr: services.ErrAuthInvalidCredentials}
	handler := NewAuthHandler(svc, testSecret)

	form := url.Values{}
	form.Set("name", "player1")
	form.Set("password", "wrong")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.LegacyLogin(rec, req)

	body, _ := io.ReadAll(rec.Body)
	if string(body) != "error:invalid username or password" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestLoginJSON(t *testing.T) {
	svc := &fakeAuthService{user: &models.User{ID: 7, Username: "player1"}}
	handler := NewAuthHandler(svc, testSecret)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"player1","password":"supersecret"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"token"`) {
		t.Error("response must contain a token")
	}
}

func TestLoginRejectsUnknownFields(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthService{user: &models.User{ID: 7}}, testSecret)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"p","password":"x","extra":true}`))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unknown key") {
		t.Errorf("expected unknown key error, got %s", rec.Body.String())
	}
}
