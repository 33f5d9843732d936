package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/guttosm/monthlypulse/config"
	"github.com/guttosm/monthlypulse/internal/domain/models"
	"github.com/guttosm/monthlypulse/internal/service"
	"github.com/guttosm/monthlypulse/internal/storage"
)

func withAppConfig(t *testing.T, cfg config.Config) {
	t.Helper()
	old := config.AppConfig
	config.AppConfig = cfg
	t.Cleanup(func() { config.AppConfig = old })
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestInitializeApp_NoArtifactYet(t *testing.T) {
	cfg := testConfig(t, "")
	withAppConfig(t, cfg)

	router, cleanup, err := InitializeApp()
	if err != nil || router == nil || cleanup == nil {
		t.Fatalf("InitializeApp failed: %v", err)
	}
	defer cleanup()

	if w := get(t, router, "/healthz"); w.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", w.Code)
	}
	if w := get(t, router, "/readyz"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d, want 503 without artifact", w.Code)
	}
	if w := get(t, router, "/api/v1/tickers"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("tickers status=%d, want 503 without artifact", w.Code)
	}
}

func TestInitializeApp_ServesArtifact(t *testing.T) {
	cfg := testConfig(t, "")
	withAppConfig(t, cfg)

	rows := []models.MonthlyStatRow{
		{Period: "2024 Jan", Min: 10, Max: 20, Mean: 15, Ticker: "XYZ"},
		{Period: "2024 Feb", Min: 30, Max: 30, Mean: 30, Ticker: "XYZ"},
	}
	if _, err := storage.NewCSVStore().Write(cfg.Pipeline.OutputPath, rows); err != nil {
		t.Fatalf("seed artifact: %v", err)
	}

	router, cleanup, err := InitializeApp()
	if err != nil {
		t.Fatalf("InitializeApp: %v", err)
	}
	defer cleanup()

	if w := get(t, router, "/readyz"); w.Code != http.StatusOK {
		t.Fatalf("readyz status=%d", w.Code)
	}

	w := get(t, router, "/api/v1/monthly?ticker=xyz&period=2024+Feb")
	if w.Code != http.StatusOK {
		t.Fatalf("monthly status=%d body=%s", w.Code, w.Body.String())
	}
	var body struct {
		Ticker string                  `json:"ticker"`
		Rows   []models.MonthlyStatRow `json:"rows"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(body.Rows) != 1 || body.Rows[0].Mean != 30 {
		t.Fatalf("unexpected rows %+v", body.Rows)
	}

	if w := get(t, router, "/metrics"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Fatalf("metrics endpoint not wired: %d", w.Code)
	}
}

func TestInitializeApp_ReaderOverride(t *testing.T) {
	cfg := testConfig(t, "")
	withAppConfig(t, cfg)

	old := artifactReader
	t.Cleanup(func() { artifactReader = old })
	artifactReader = func() service.ArtifactReader {
		return stubArtifact{rows: []models.MonthlyStatRow{{Period: "2024 Mar", Ticker: "AAA"}}}
	}

	router, _, err := InitializeApp()
	if err != nil {
		t.Fatalf("InitializeApp: %v", err)
	}
	if w := get(t, router, "/api/v1/tickers"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "AAA") {
		t.Fatalf("tickers status=%d body=%s", w.Code, w.Body.String())
	}
}

type stubArtifact struct {
	rows []models.MonthlyStatRow
}

func (s stubArtifact) Read(string) ([]models.MonthlyStatRow, error) { return s.rows, nil }
