package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/workman/internal/middleware"
)

// mockHealthChecker はHealthCheckerのモック実装。
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) Ping() error { return m.err }

func newTestRouter(checker HealthChecker) http.Handler {
	return NewRouter(&RouterDeps{
		Logger:            slog.New(slog.DiscardHandler),
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig()),
		HealthChecker:     checker,
		WorkloadService:   &mockWorkloadService{},
		AvailabilitySvc:   &mockAvailabilityService{},
	})
}

func TestRouter_Health_OK(t *testing.T) {
	router := newTestRouter(&mockHealthChecker{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestRouter_Health_DatabaseDown(t *testing.T) {
	router := newTestRouter(&mockHealthChecker{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

// APIルートがルーティングされていることを確認する
func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(&mockHealthChecker{})

	paths := []string{
		"/api/reports?company=1",
		"/api/reports/03-2024?company=1",
		"/api/periods",
		"/api/availability?company=1&start=2024-03-11&end=2024-03-15",
		"/api/employees/1/days?start=2024-03-11&end=2024-03-15",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "192.0.2.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code == http.StatusNotFound || w.Code == http.StatusMethodNotAllowed {
			t.Errorf("GET %s: status = %d, route not registered", path, w.Code)
		}
	}
}

// CORSヘッダーが全ルートに付与される
func TestRouter_CORSHeaders(t *testing.T) {
	router := newTestRouter(&mockHealthChecker{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want http://localhost:3000", got)
	}
}
