package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/guttosm/monthlypulse/config"
	"github.com/guttosm/monthlypulse/internal/aggregate"
	"github.com/guttosm/monthlypulse/internal/logger"
	"github.com/guttosm/monthlypulse/internal/pipeline"
	"github.com/guttosm/monthlypulse/internal/provider"
	"github.com/guttosm/monthlypulse/internal/retrieval"
	"github.com/guttosm/monthlypulse/internal/storage"
	"github.com/guttosm/monthlypulse/internal/symbols"
	"github.com/guttosm/monthlypulse/internal/telemetry"
)

// ErrNoUniverse is returned when neither the remote index nor a tickers file was selected.
var ErrNoUniverse = errors.New("no ticker universe selected")

// Universe selects where the run's tickers come from.
type Universe int

const (
	UniverseNone Universe = iota
	UniverseIndex
	UniverseFile
)

// RunPipeline composes the pipeline from cfg and executes one run.
//
// Responsibilities:
//   - Picks the resolver: remote constituent documents or cfg.Pipeline.TickersFile.
//   - Creates the Yahoo provider, the chunked retriever and the CSV store.
//   - Reports telemetry to the log and to a Prometheus registry, exported as a
//     textfile when Metrics.TextfilePath is set (also after a failed run).
//
// Returns the absolute path of the persisted table.
func RunPipeline(ctx context.Context, cfg config.Config, universe Universe) (string, error) {
	if err := config.Validate(cfg); err != nil {
		return "", err
	}
	interval, err := provider.ParseInterval(cfg.Pipeline.Interval)
	if err != nil {
		return "", err
	}
	window, err := aggregate.NewWindow(cfg.Pipeline.WindowStart, cfg.Pipeline.WindowEnd)
	if err != nil {
		return "", err
	}

	resolver, closeResolver, err := newResolver(cfg, universe)
	if err != nil {
		return "", err
	}
	defer closeResolver()

	yahoo := provider.NewYahoo(provider.YahooOptions{
		BaseURL:   cfg.Provider.BaseURL,
		Timeout:   cfg.Provider.Timeout,
		RateLimit: cfg.Provider.RateLimit,
		UserAgent: cfg.Provider.UserAgent,
	})
	defer func() { _ = yahoo.Close() }()

	prom := telemetry.NewPrometheus()
	sink := telemetry.Multi{telemetry.NewLog(logger.Component("telemetry")), prom}
	defer exportTextfile(prom, cfg.Metrics.TextfilePath)

	p := pipeline.New(resolver, retrieval.New(yahoo, sink), storage.NewCSVStore(), sink)
	return p.Run(ctx, pipeline.Config{
		MaxTickers: cfg.Pipeline.MaxTickers,
		ChunkSize:  cfg.Pipeline.ChunkSize,
		Parallel:   cfg.Pipeline.Parallel,
		Start:      cfg.Pipeline.StartDate,
		End:        cfg.Pipeline.EndDate,
		Interval:   interval,
		Adjust:     true,
		Window:     window,
		OutputPath: cfg.Pipeline.OutputPath,
	})
}

func newResolver(cfg config.Config, universe Universe) (pipeline.SymbolSource, func(), error) {
	switch universe {
	case UniverseFile:
		if cfg.Pipeline.TickersFile == "" {
			return nil, nil, fmt.Errorf("%w: tickers file path is empty", ErrNoUniverse)
		}
		return symbols.File{Path: cfg.Pipeline.TickersFile}, func() {}, nil
	case UniverseIndex:
		fetcher := symbols.NewHTTPDocumentFetcher(cfg.Symbols.Timeout, cfg.Symbols.UserAgent)
		return symbols.NewRemote(fetcher, cfg.Symbols.URLs...), func() { _ = fetcher.Close() }, nil
	default:
		return nil, nil, ErrNoUniverse
	}
}

func exportTextfile(prom *telemetry.Prometheus, path string) {
	if path == "" {
		return
	}
	if err := prom.WriteTextfile(path); err != nil {
		logger.L().Warn().Err(err).Str("path", path).Msg("metrics textfile export failed")
		return
	}
	logger.L().Debug().Str("path", path).Msg("metrics textfile written")
}
