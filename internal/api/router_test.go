package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/guttosm/monthlypulse/internal/domain/dto"
	"github.com/guttosm/monthlypulse/internal/domain/models"
)

func TestNewRouter_WiringAndMiddlewares(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &mockMonthlyService{rows: []models.MonthlyStatRow{{Period: "2024 Jan", Min: 1, Max: 3, Mean: 2, Ticker: "AAPL"}}}
	reg := prometheus.NewRegistry()
	r := NewRouter(NewHandler(svc), RouterOptions{Registry: reg})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/monthly?ticker=AAPL", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
	var out dto.MonthlyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if out.Ticker != "AAPL" || len(out.Rows) != 1 {
		t.Fatalf("unexpected body: %+v", out)
	}

	// /metrics exposes the request counted above
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `monthlypulse_http_requests_total{method="GET",route="/api/v1/monthly",status="200"} 1`) {
		t.Fatalf("metrics body missing request counter:\n%s", w.Body.String())
	}
}

func TestNewRouter_NoRegistryNoMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(NewHandler(&mockMonthlyService{}), RouterOptions{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without registry, got %d", w.Code)
	}
}

func TestNewRouter_RateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(NewHandler(&mockMonthlyService{tickers: []string{"AAPL"}}), RouterOptions{RateLimitPerMinute: 1})

	codes := make([]int, 2)
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tickers", nil))
		codes[i] = w.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
}
