// Package retrieval downloads raw daily tables for a ticker universe in bounded
// chunks and normalizes every provider answer into one per-ticker map.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/monthlypulse/internal/domain/models"
	"github.com/guttosm/monthlypulse/internal/logger"
	"github.com/guttosm/monthlypulse/internal/provider"
)

// DefaultChunkSize is used whenever a non-positive chunk size is requested.
const DefaultChunkSize = 100

// ErrChunkRetrieval marks a failed provider call for one chunk. It aborts the run.
var ErrChunkRetrieval = errors.New("chunk retrieval failed")

// ChunkError reports which chunk failed and why.
type ChunkError struct {
	Index   int
	Tickers []models.Ticker
	Err     error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("%v: chunk %d (%d tickers): %v", ErrChunkRetrieval, e.Index, len(e.Tickers), e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is/As.
func (e *ChunkError) Unwrap() []error { return []error{ErrChunkRetrieval, e.Err} }

// Options controls one retrieval.
type Options struct {
	ChunkSize int
	Start     time.Time // inclusive
	End       time.Time // exclusive
	Interval  provider.Interval
	Adjust    bool
	Parallel  int // chunks in flight; values below 1 mean sequential
}

// Recorder receives per-chunk measurements. telemetry.Sink satisfies it.
type Recorder interface {
	Record(stage, metric string, value float64)
}

// Retriever fetches chunks through a Provider.
type Retriever struct {
	provider provider.Provider
	recorder Recorder
}

// New creates a Retriever. rec may be nil.
func New(p provider.Provider, rec Recorder) *Retriever {
	return &Retriever{provider: p, recorder: rec}
}

// Partition splits tickers into consecutive chunks of at most size elements,
// preserving order. Every ticker lands in exactly one chunk.
func Partition(tickers []models.Ticker, size int) [][]models.Ticker {
	if size < 1 {
		size = DefaultChunkSize
	}
	chunks := make([][]models.Ticker, 0, (len(tickers)+size-1)/size)
	for start := 0; start < len(tickers); start += size {
		end := start + size
		if end > len(tickers) {
			end = len(tickers)
		}
		chunks = append(chunks, tickers[start:end])
	}
	return chunks
}

// Retrieve downloads every ticker and returns the merged per-ticker map.
//
// Behavior:
//   - A ticker missing from its chunk's answer is omitted with a warning.
//   - Any failed chunk call fails the whole retrieval with a *ChunkError; when
//     chunks run in parallel the first failure cancels the rest.
//   - The map's keys are always a subset of tickers.
func (r *Retriever) Retrieve(ctx context.Context, tickers []models.Ticker, opts Options) (map[models.Ticker]models.DailyBarTable, error) {
	chunks := Partition(tickers, opts.ChunkSize)
	results := make([]map[models.Ticker]models.DailyBarTable, len(chunks))

	parallel := opts.Parallel
	if parallel < 1 {
		parallel = 1
	}

	logger.L().Info().Int("tickers", len(tickers)).Int("chunks", len(chunks)).Int("parallel", parallel).Msg("retrieval start")

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, parallel)

launch:
	for i, chunk := range chunks {
		select {
		case sem <- struct{}{}:
		case <-gctx.Done():
			break launch
		}

		i, chunk := i, chunk
		g.Go(func() error {
			defer func() { <-sem }()
			tables, err := r.fetchChunk(gctx, i, len(chunks), chunk, opts)
			if err != nil {
				return err
			}
			results[i] = tables
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := make(map[models.Ticker]models.DailyBarTable, len(tickers))
	for _, tables := range results {
		for tk, table := range tables {
			merged[tk] = table
		}
	}
	return merged, nil
}

func (r *Retriever) fetchChunk(ctx context.Context, idx, total int, chunk []models.Ticker, opts Options) (map[models.Ticker]models.DailyBarTable, error) {
	start := time.Now()
	log := logger.L().With().Int("chunk", idx+1).Int("total", total).Logger()
	log.Info().Int("tickers", len(chunk)).Msg("chunk start")

	resp, err := r.provider.Fetch(ctx, provider.Request{
		Tickers:  chunk,
		Start:    opts.Start,
		End:      opts.End,
		Interval: opts.Interval,
		Adjust:   opts.Adjust,
	})
	if err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("chunk failed")
		return nil, &ChunkError{Index: idx, Tickers: chunk, Err: err}
	}

	tables, err := normalize(chunk, resp)
	if err != nil {
		log.Error().Err(err).Msg("chunk response rejected")
		return nil, &ChunkError{Index: idx, Tickers: chunk, Err: err}
	}

	for _, tk := range chunk {
		if _, ok := tables[tk]; !ok {
			log.Warn().Str("ticker", tk.String()).Msg("no data returned for ticker in this chunk")
		}
	}

	elapsed := time.Since(start)
	log.Info().Int("returned", len(tables)).Dur("elapsed", elapsed).Msg("chunk done")
	if r.recorder != nil {
		r.recorder.Record("chunk", "tickers_requested", float64(len(chunk)))
		r.recorder.Record("chunk", "tickers_returned", float64(len(tables)))
		r.recorder.Record("chunk", "elapsed_seconds", elapsed.Seconds())
	}
	return tables, nil
}

// normalize resolves the provider's response shape into a map keyed by the
// requested tickers only. Unrequested keys are dropped.
func normalize(chunk []models.Ticker, resp provider.Response) (map[models.Ticker]models.DailyBarTable, error) {
	tables := make(map[models.Ticker]models.DailyBarTable, len(chunk))

	switch resp.Kind() {
	case provider.KindSingle:
		if len(chunk) != 1 {
			return nil, fmt.Errorf("single-table response for a chunk of %d tickers", len(chunk))
		}
		table, _ := resp.Single()
		if table.Empty() {
			return tables, nil
		}
		table.Ticker = chunk[0]
		tables[chunk[0]] = table
	case provider.KindMulti:
		multi, _ := resp.Multi()
		for _, tk := range chunk {
			table, ok := multi[tk]
			if !ok || table.Empty() {
				continue
			}
			table.Ticker = tk
			tables[tk] = table
		}
	default:
		return nil, fmt.Errorf("unrecognized response kind %v", resp.Kind())
	}
	return tables, nil
}
