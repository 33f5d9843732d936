package main

//
//  @title           monthlypulse API
//  @version         1.0
//  @description     Monthly close statistics for an equity universe, computed by the acquisition pipeline.
//  @termsOfService  https://github.com/guttosm/monthlypulse
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/monthlypulse
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        monthly
//  @tag.description Month-end min/max/mean of the daily close per ticker
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guttosm/monthlypulse/config"
	_ "github.com/guttosm/monthlypulse/docs" // swagger docs
	"github.com/guttosm/monthlypulse/internal/app"
	"github.com/guttosm/monthlypulse/internal/logger"
)

// runPipeline is an indirection so tests can stub the pipeline.
var runPipeline = app.RunPipeline

// startServer initializes and starts the HTTP server in a separate goroutine.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown blocks until ctx is cancelled (SIGINT/SIGTERM in main), then
// drains the server within 10 seconds and runs cleanup.
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	<-ctx.Done()
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Error().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// overrides carries the CLI flags that replace configuration values.
type overrides struct {
	tickersFile string
	maxTickers  int
	chunkSize   int
	parallel    int
	out         string
	port        string
}

func (o overrides) apply(cfg config.Config) config.Config {
	cfg.Pipeline.TickersFile = o.tickersFile
	cfg.Pipeline.MaxTickers = o.maxTickers
	cfg.Pipeline.ChunkSize = o.chunkSize
	cfg.Pipeline.Parallel = o.parallel
	cfg.Pipeline.OutputPath = o.out
	cfg.Server.Port = o.port
	return cfg
}

// selectUniverse maps the CLI choice to a universe; a tickers file wins over --sp500.
func selectUniverse(sp500 bool, tickersFile string) app.Universe {
	switch {
	case tickersFile != "":
		return app.UniverseFile
	case sp500:
		return app.UniverseIndex
	default:
		return app.UniverseNone
	}
}

// runOnce executes the pipeline mode. An unselected universe is not an error.
func runOnce(ctx context.Context, cfg config.Config, universe app.Universe) error {
	if universe == app.UniverseNone {
		logger.L().Info().Msg("no universe selected (use --sp500 or --tickers-file); nothing to do")
		return nil
	}

	path, err := runPipeline(ctx, cfg, universe)
	if err != nil {
		return err
	}
	fmt.Printf("processing complete. Results saved to %s\n", path)
	return nil
}

// main is the entry point of the monthlypulse application.
//
// Modes (selected via --mode flag):
//   - run: resolves the universe, downloads daily bars and writes the monthly CSV.
//   - api: serves the last written CSV over HTTP.
func main() {
	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()
	defer logger.Close()

	// Parse CLI flags (override config defaults if provided)
	pc := config.AppConfig.Pipeline
	mode := flag.String("mode", "run", "Mode: run or api")
	sp500 := flag.Bool("sp500", false, "Resolve the S&P 500 constituents from the configured sources")
	var o overrides
	flag.StringVar(&o.tickersFile, "tickers-file", pc.TickersFile, "Local file with one ticker per line")
	flag.IntVar(&o.maxTickers, "max-tickers", pc.MaxTickers, "Cap on the number of tickers (0 = all)")
	flag.IntVar(&o.chunkSize, "chunk-size", pc.ChunkSize, "Tickers per provider request batch")
	flag.IntVar(&o.parallel, "parallel", pc.Parallel, "Chunks downloaded concurrently")
	flag.StringVar(&o.out, "out", pc.OutputPath, "Output CSV path")
	flag.StringVar(&o.port, "port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	cfg := o.apply(config.AppConfig)
	if err := config.Validate(cfg); err != nil {
		logger.L().Fatal().Err(err).Msg("invalid flags")
	}
	config.AppConfig = cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "run":
		logger.L().Info().Msg("running pipeline")
		if err := runOnce(ctx, cfg, selectUniverse(*sp500, o.tickersFile)); err != nil {
			logger.L().Fatal().Err(err).Msg("pipeline failed")
		}

	case "api":
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, cfg.Server.Port)
		gracefulShutdown(ctx, server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
