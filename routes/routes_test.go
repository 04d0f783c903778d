package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "github.com/dufire/tournament-backend/docs"
)

func TestSwaggerSpecServed(t *testing.T) {
	router := InitRoutes(Handlers{}, "test-secret")

	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for the swagger spec, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Tournament Backend API") {
		t.Error("expected the rendered spec to carry the API title")
	}
}
