//go:build integration
// +build integration

package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/guttosm/monthlypulse/config"
	"github.com/guttosm/monthlypulse/internal/app"
	"github.com/guttosm/monthlypulse/internal/domain/dto"
)

// TestAPI_E2E_LivePipeline downloads a few constituents from the public sources,
// persists the monthly table and serves it through the router.
func TestAPI_E2E_LivePipeline(t *testing.T) {
	config.LoadConfig()
	cfg := config.AppConfig
	cfg.Pipeline.MaxTickers = 3
	cfg.Pipeline.ChunkSize = 2
	cfg.Pipeline.OutputPath = filepath.Join(t.TempDir(), "combined.csv")
	cfg.Metrics.TextfilePath = ""

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	path, err := app.RunPipeline(ctx, cfg, app.UniverseIndex)
	if err != nil {
		t.Fatalf("run pipeline: %v", err)
	}

	old := config.AppConfig
	t.Cleanup(func() { config.AppConfig = old })
	config.AppConfig = cfg
	config.AppConfig.Pipeline.OutputPath = path

	router, cleanup, err := app.InitializeApp()
	if err != nil {
		t.Fatalf("init app: %v", err)
	}
	defer cleanup()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tickers", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("tickers: unexpected status %d body=%s", w.Code, w.Body.String())
	}
	var tickers dto.TickersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &tickers); err != nil {
		t.Fatalf("json: %v", err)
	}
	if tickers.Count == 0 {
		t.Fatalf("expected at least one ticker with 2024 data")
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/monthly?ticker="+tickers.Tickers[0], nil))
	if w.Code != http.StatusOK {
		t.Fatalf("monthly: unexpected status %d body=%s", w.Code, w.Body.String())
	}
	var body dto.MonthlyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Rows) != 12 {
		t.Fatalf("expected 12 monthly rows for 2024, got %d", len(body.Rows))
	}
	for _, r := range body.Rows {
		if r.Min > r.Mean || r.Mean > r.Max {
			t.Fatalf("ordering violated: %+v", r)
		}
	}
}
