// Package pipeline wires universe resolution, chunked retrieval, per-ticker
// monthly aggregation and persistence into one run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guttosm/monthlypulse/internal/aggregate"
	"github.com/guttosm/monthlypulse/internal/domain/models"
	"github.com/guttosm/monthlypulse/internal/logger"
	"github.com/guttosm/monthlypulse/internal/provider"
	"github.com/guttosm/monthlypulse/internal/retrieval"
	"github.com/guttosm/monthlypulse/internal/telemetry"
)

const (
	sampleSymbols = 6
	sampleCounts  = 10
)

// SymbolSource resolves the ticker universe.
type SymbolSource interface {
	Resolve(ctx context.Context, limit int) ([]models.Ticker, error)
}

// BarRetriever downloads raw daily tables for a universe.
type BarRetriever interface {
	Retrieve(ctx context.Context, tickers []models.Ticker, opts retrieval.Options) (map[models.Ticker]models.DailyBarTable, error)
}

// ArtifactStore persists the combined table and returns where it landed.
type ArtifactStore interface {
	Write(path string, rows []models.MonthlyStatRow) (string, error)
}

// Config is one run's parameters.
type Config struct {
	MaxTickers int // 0 means no cap
	ChunkSize  int
	Parallel   int
	Start      time.Time // download range, inclusive
	End        time.Time // download range, exclusive
	Interval   provider.Interval
	Adjust     bool
	Window     aggregate.Window
	OutputPath string
}

// Pipeline runs the resolve → download → process → aggregate → persist sequence.
type Pipeline struct {
	symbols   SymbolSource
	retriever BarRetriever
	store     ArtifactStore
	sink      telemetry.Sink
}

// New creates a Pipeline. A nil sink discards telemetry.
func New(symbols SymbolSource, retriever BarRetriever, store ArtifactStore, sink telemetry.Sink) *Pipeline {
	if sink == nil {
		sink = telemetry.Nop{}
	}
	return &Pipeline{symbols: symbols, retriever: retriever, store: store, sink: sink}
}

// Run executes one pipeline pass and returns the absolute artifact path.
//
// Behavior:
//   - Resolution or chunk retrieval failure aborts the run; nothing is written.
//   - A ticker whose table cannot be aggregated is logged and skipped.
//   - A ticker with no observations in the window contributes no rows.
//   - Rows keep the resolved ticker order; an all-empty run writes a header-only table.
func (p *Pipeline) Run(ctx context.Context, cfg Config) (string, error) {
	log := logger.Component("pipeline")
	runStart := time.Now()

	// resolve
	stageStart := time.Now()
	tickers, err := p.symbols.Resolve(ctx, cfg.MaxTickers)
	if err != nil {
		log.Error().Err(err).Msg("universe resolution failed")
		return "", fmt.Errorf("resolve universe: %w", err)
	}
	p.sink.Record("resolve", "symbols", float64(len(tickers)))
	p.sink.Record("resolve", "elapsed_seconds", time.Since(stageStart).Seconds())
	log.Info().Int("symbols", len(tickers)).Strs("sample", sample(tickers, sampleSymbols)).Msg("universe resolved")

	// download
	stageStart = time.Now()
	raw, err := p.retriever.Retrieve(ctx, tickers, retrieval.Options{
		ChunkSize: cfg.ChunkSize,
		Start:     cfg.Start,
		End:       cfg.End,
		Interval:  cfg.Interval,
		Adjust:    cfg.Adjust,
		Parallel:  cfg.Parallel,
	})
	if err != nil {
		log.Error().Err(err).Msg("retrieval failed")
		return "", fmt.Errorf("retrieve bars: %w", err)
	}
	rawRows := 0
	counts := make([]string, 0, sampleCounts)
	for _, tk := range tickers {
		table, ok := raw[tk]
		if !ok {
			continue
		}
		rawRows += table.Len()
		if len(counts) < sampleCounts {
			counts = append(counts, fmt.Sprintf("%s=%d", tk, table.Len()))
		}
	}
	p.sink.Record("download", "tickers", float64(len(raw)))
	p.sink.Record("download", "raw_rows", float64(rawRows))
	p.sink.Record("download", "elapsed_seconds", time.Since(stageStart).Seconds())
	log.Info().Int("tickers", len(raw)).Int("raw_rows", rawRows).Strs("sample_counts", counts).Msg("download complete")

	// process
	stageStart = time.Now()
	var (
		results  []models.AggregationResult
		inWindow int
		skipped  int
		failed   int
		missing  int
	)
	for _, tk := range tickers {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		table, ok := raw[tk]
		if !ok {
			missing++
			continue
		}
		if table.Ticker == "" {
			table.Ticker = tk
		}
		res, err := aggregateOne(cfg.Window, table)
		if err != nil {
			failed++
			log.Warn().Str("ticker", tk.String()).Err(err).Msg("aggregation failed, skipping ticker")
			continue
		}
		if res.Empty() {
			skipped++
			log.Debug().Str("ticker", tk.String()).Msg("no observations in window")
			continue
		}
		inWindow += res.RowsUsed
		results = append(results, res)
	}
	p.sink.Record("process", "rows_in_window", float64(inWindow))
	p.sink.Record("process", "skipped_tickers", float64(skipped+missing))
	p.sink.Record("process", "failed_tickers", float64(failed))
	p.sink.Record("process", "elapsed_seconds", time.Since(stageStart).Seconds())
	log.Info().
		Int("aggregated", len(results)).
		Int("rows_in_window", inWindow).
		Int("skipped", skipped).
		Int("missing", missing).
		Int("failed", failed).
		Msg("processing complete")

	// aggregate + persist
	stageStart = time.Now()
	combined := Combine(results)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := p.store.Write(cfg.OutputPath, combined)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.OutputPath).Msg("persist failed")
		return "", fmt.Errorf("persist combined table: %w", err)
	}
	p.sink.Record("aggregate", "combined_rows", float64(len(combined)))
	p.sink.Record("aggregate", "elapsed_seconds", time.Since(stageStart).Seconds())
	p.sink.Record("total", "elapsed_seconds", time.Since(runStart).Seconds())
	log.Info().Int("rows", len(combined)).Str("path", path).Dur("elapsed", time.Since(runStart)).Msg("combined table saved")

	return path, nil
}

// Combine concatenates per-ticker rows in the given order. The result is never nil.
func Combine(results []models.AggregationResult) []models.MonthlyStatRow {
	n := 0
	for _, r := range results {
		n += len(r.Rows)
	}
	out := make([]models.MonthlyStatRow, 0, n)
	for _, r := range results {
		out = append(out, r.Rows...)
	}
	return out
}

// aggregateOne turns a panic inside the reduction into an aggregation error.
func aggregateOne(w aggregate.Window, table models.DailyBarTable) (res models.AggregationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &aggregate.Error{Ticker: table.Ticker, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	res, err = aggregateFn(w, table)
	if err != nil && !errors.Is(err, aggregate.ErrAggregation) {
		err = &aggregate.Error{Ticker: table.Ticker, Err: err}
	}
	return res, err
}

// aggregateFn is an indirection so tests can inject failing reductions.
var aggregateFn = func(w aggregate.Window, table models.DailyBarTable) (models.AggregationResult, error) {
	return w.Aggregate(table)
}

func sample(tickers []models.Ticker, n int) []string {
	if len(tickers) < n {
		n = len(tickers)
	}
	out := make([]string, n)
	for i := range out {
		out[i] = tickers[i].String()
	}
	return out
}
