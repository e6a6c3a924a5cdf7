package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	httpx "github.com/Pseudo-CS/bitespeed-assign/internal/http"
	httpH "github.com/Pseudo-CS/bitespeed-assign/internal/http/handlers"
	"github.com/Pseudo-CS/bitespeed-assign/internal/platform/logger"
)

func TestNewServerServesRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}

	s := httpx.NewServer(httpx.RouterConfig{
		Log:           log,
		HealthHandler: httpH.NewHealthHandler(),
	})
	if s.Engine == nil {
		t.Fatal("server must carry a configured engine")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Fatalf("expected body %q, got %q", "ok", w.Body.String())
	}
}
