package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	handler "ragbot/handler/http"
	"ragbot/src/core/system"
)

func newHealthRouter(t *testing.T, sysService *system.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h, err := handler.NewHandler(&fakeRunner{}, &fakeExchanges{}, nil, nil, nil, "documents", sysService)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	router := gin.New()
	h.RegisterRoutes(router)
	return router
}

func getHealth(router *gin.Engine) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCheckHealthHealthy(t *testing.T) {
	sysService := system.NewService()
	sysService.Register("postgres", func(ctx context.Context) error { return nil })
	router := newHealthRouter(t, sysService)

	w := getHealth(router)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var status system.HealthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if status.Status != "healthy" {
		t.Errorf("status = %q, want %q", status.Status, "healthy")
	}
	if got := status.Components["postgres"]; got != system.StatusUp {
		t.Errorf("postgres = %q, want %q", got, system.StatusUp)
	}
}

func TestCheckHealthUnhealthy(t *testing.T) {
	sysService := system.NewService()
	sysService.Register("postgres", func(ctx context.Context) error { return nil })
	sysService.Register("weaviate", func(ctx context.Context) error { return errors.New("connection refused") })
	router := newHealthRouter(t, sysService)

	w := getHealth(router)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	var status system.HealthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if status.Status != "unhealthy" {
		t.Errorf("status = %q, want %q", status.Status, "unhealthy")
	}
	if got := status.Components["weaviate"]; got != system.StatusDown {
		t.Errorf("weaviate = %q, want %q", got, system.StatusDown)
	}
}
