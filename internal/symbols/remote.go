package symbols

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/guttosm/monthlypulse/internal/domain/models"
	"github.com/guttosm/monthlypulse/internal/logger"
)

// DocumentFetcher retrieves the raw text of a remote symbol document.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, url string) (string, error)
}

// Remote resolves the universe from a prioritized list of CSV documents.
//
// Each source is tried once, in order. A failing source (transport error, bad
// status, unparsable document) is logged as a warning and the next one is tried.
type Remote struct {
	sources []string
	fetcher DocumentFetcher
}

// NewRemote builds a Remote resolver over the given sources (highest priority first).
func NewRemote(fetcher DocumentFetcher, sources ...string) *Remote {
	return &Remote{sources: append([]string(nil), sources...), fetcher: fetcher}
}

// Resolve returns the symbols of the first source that can be fetched and parsed,
// truncated to limit when limit > 0.
//
// Returns:
//   - []models.Ticker: normalized, deduplicated, in document order.
//   - error: wraps ErrSourceUnavailable (and every attempt's error) when all sources fail.
func (r *Remote) Resolve(ctx context.Context, limit int) ([]models.Ticker, error) {
	if len(r.sources) == 0 {
		return nil, fmt.Errorf("%w: no sources configured", ErrSourceUnavailable)
	}

	var errs []error
	for _, url := range r.sources {
		tickers, err := r.try(ctx, url)
		if err != nil {
			logger.L().Warn().Str("url", url).Err(err).Msg("failed to fetch symbol list")
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		logger.L().Info().Str("url", url).Int("symbols", len(tickers)).Msg("symbol list fetched")
		return truncate(tickers, limit), nil
	}

	return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, errors.Join(errs...))
}

func (r *Remote) try(ctx context.Context, url string) ([]models.Ticker, error) {
	doc, err := r.fetcher.FetchDocument(ctx, url)
	if err != nil {
		return nil, err
	}
	return ParseSymbolDocument(strings.NewReader(doc))
}

// HTTPDocumentFetcher fetches documents over HTTP with a single attempt per call.
type HTTPDocumentFetcher struct {
	client *resty.Client
}

// NewHTTPDocumentFetcher creates a fetcher with the given per-request timeout
// and User-Agent (some mirrors reject the default Go agent).
func NewHTTPDocumentFetcher(timeout time.Duration, userAgent string) *HTTPDocumentFetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "text/csv, text/plain, */*")
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	return &HTTPDocumentFetcher{client: client}
}

// FetchDocument performs a GET and returns the body of a 2xx response.
func (f *HTTPDocumentFetcher) FetchDocument(ctx context.Context, url string) (string, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("get: %w", err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode())
	}
	return string(resp.Bytes()), nil
}

// Close releases the underlying HTTP client resources.
func (f *HTTPDocumentFetcher) Close() error {
	return f.client.Close()
}
