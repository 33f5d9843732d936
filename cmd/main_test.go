package main

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/guttosm/monthlypulse/config"
	"github.com/guttosm/monthlypulse/internal/app"
)

type dummyHandler struct{}

func (d dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func TestStartServerAndShutdown(t *testing.T) {
	srv := startServer(dummyHandler{}, "0") // random port
	if srv == nil {
		t.Fatalf("expected server")
	}

	// Give server a moment to start
	time.Sleep(50 * time.Millisecond)

	shutdownCtx, c := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer c()
	if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
		t.Fatalf("shutdown err: %v", err)
	}
}

func TestGracefulShutdown_ContextPath(t *testing.T) {
	srv := startServer(dummyHandler{}, "0")

	ctx, cancel := context.WithCancel(context.Background())
	cleaned := make(chan struct{})
	go gracefulShutdown(ctx, srv, func() { close(cleaned) })

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-cleaned:
	case <-time.After(2 * time.Second):
		t.Fatalf("cleanup not called after cancellation")
	}
}

func TestSelectUniverse(t *testing.T) {
	cases := []struct {
		name  string
		sp500 bool
		file  string
		want  app.Universe
	}{
		{name: "nothing", want: app.UniverseNone},
		{name: "sp500", sp500: true, want: app.UniverseIndex},
		{name: "file", file: "tickers.txt", want: app.UniverseFile},
		{name: "file wins", sp500: true, file: "tickers.txt", want: app.UniverseFile},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := selectUniverse(tc.sp500, tc.file); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestOverridesApply(t *testing.T) {
	cfg := overrides{tickersFile: "t.txt", maxTickers: 5, chunkSize: 10, parallel: 2, out: "x.csv", port: "9090"}.apply(config.Config{})
	if cfg.Pipeline.TickersFile != "t.txt" || cfg.Pipeline.MaxTickers != 5 || cfg.Pipeline.ChunkSize != 10 ||
		cfg.Pipeline.Parallel != 2 || cfg.Pipeline.OutputPath != "x.csv" || cfg.Server.Port != "9090" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestRunOnce(t *testing.T) {
	old := runPipeline
	t.Cleanup(func() { runPipeline = old })

	var calls int
	boom := errors.New("boom")
	cases := []struct {
		name      string
		universe  app.Universe
		result    error
		wantCalls int
		wantErr   bool
	}{
		{name: "no universe is a no-op", universe: app.UniverseNone, wantCalls: 0},
		{name: "success", universe: app.UniverseIndex, wantCalls: 1},
		{name: "failure propagates", universe: app.UniverseFile, result: boom, wantCalls: 1, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls = 0
			runPipeline = func(context.Context, config.Config, app.Universe) (string, error) {
				calls++
				return "/tmp/combined.csv", tc.result
			}
			err := runOnce(context.Background(), config.Config{}, tc.universe)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tc.wantErr)
			}
			if calls != tc.wantCalls {
				t.Fatalf("calls=%d want %d", calls, tc.wantCalls)
			}
		})
	}
}
