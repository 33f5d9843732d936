package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"
	"resty.dev/v3"

	"github.com/guttosm/monthlypulse/internal/domain/models"
	"github.com/guttosm/monthlypulse/internal/logger"
)

const chartPath = "/v8/finance/chart/{symbol}"

// YahooOptions configures the Yahoo Finance chart client.
type YahooOptions struct {
	BaseURL   string        // e.g. https://query1.finance.yahoo.com
	Timeout   time.Duration // per-request timeout
	RateLimit float64       // requests per second across the whole client
	UserAgent string
}

// Yahoo implements Provider on top of the public v8 chart API.
//
// The chart endpoint serves one symbol per request, so a batch is answered with
// sequential per-symbol requests sharing one rate limiter. A single slot gates
// the HTTP call, so at most one request is in flight per client even when
// several batches are fetched concurrently.
type Yahoo struct {
	client  *resty.Client
	limiter *rate.Limiter
	slot    chan struct{}
}

// NewYahoo creates a Yahoo provider. A non-positive RateLimit disables limiting.
func NewYahoo(opts YahooOptions) *Yahoo {
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &Yahoo{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		slot:    make(chan struct{}, 1),
	}
}

// Close releases the underlying HTTP client resources.
func (y *Yahoo) Close() error {
	return y.client.Close()
}

// chartResponse is the subset of the chart API payload we consume.
// Numeric arrays hold nulls for non-trading rows, hence the pointers.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// Fetch implements Provider.
//
// Behavior:
//   - Each ticker is requested independently; a ticker the provider answers
//     "unknown"/"no data" for is left out of the response.
//   - Transport-class failures (network, timeout, 429, 5xx) are also isolated per
//     ticker, unless every ticker of the batch failed that way: then the batch fails.
//   - A one-ticker request yields SingleTicker (possibly an empty table),
//     anything else MultiTicker.
func (y *Yahoo) Fetch(ctx context.Context, req Request) (Response, error) {
	if len(req.Tickers) == 0 {
		return Response{}, fmt.Errorf("yahoo: empty ticker list")
	}
	interval := req.Interval
	if interval == "" {
		interval = Daily
	}

	tables := make(map[models.Ticker]models.DailyBarTable, len(req.Tickers))
	var transient []error

	for _, tk := range req.Tickers {
		table, err := y.fetchSymbol(ctx, tk, req, interval)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Response{}, ctxErr
			}
			var fe *FetchError
			if errors.As(err, &fe) && !fe.Transient {
				logger.L().Debug().Str("ticker", tk.String()).Err(err).Msg("yahoo: no data for symbol")
				continue
			}
			logger.L().Warn().Str("ticker", tk.String()).Err(err).Msg("yahoo: symbol request failed")
			transient = append(transient, fmt.Errorf("%s: %w", tk, err))
			continue
		}
		tables[tk] = table
	}

	if len(transient) == len(req.Tickers) {
		return Response{}, fmt.Errorf("yahoo: every request of the batch failed: %w", errors.Join(transient...))
	}

	if len(req.Tickers) == 1 {
		tk := req.Tickers[0]
		table, ok := tables[tk]
		if !ok {
			table = models.DailyBarTable{Ticker: tk}
		}
		return SingleTicker(table), nil
	}
	return MultiTicker(tables), nil
}

func (y *Yahoo) fetchSymbol(ctx context.Context, tk models.Ticker, req Request, interval Interval) (models.DailyBarTable, error) {
	select {
	case y.slot <- struct{}{}:
	case <-ctx.Done():
		return models.DailyBarTable{}, ctx.Err()
	}
	defer func() { <-y.slot }()

	if err := y.limiter.Wait(ctx); err != nil {
		return models.DailyBarTable{}, err
	}

	resp, err := y.client.R().
		SetContext(ctx).
		SetPathParam("symbol", tk.String()).
		SetQueryParams(map[string]string{
			"period1":              strconv.FormatInt(req.Start.Unix(), 10),
			"period2":              strconv.FormatInt(req.End.Unix(), 10),
			"interval":             string(interval),
			"events":               "div,splits",
			"includeAdjustedClose": "true",
		}).
		Get(chartPath)
	if err != nil {
		if isTimeout(err) {
			return models.DailyBarTable{}, NewTimeoutError(err)
		}
		return models.DailyBarTable{}, NewNetworkError(err)
	}
	if !resp.IsSuccess() {
		return models.DailyBarTable{}, ClassifyHTTPError(resp.StatusCode())
	}

	// decoded by hand: the endpoint does not always label its payload as JSON
	var chart chartResponse
	if err := json.Unmarshal(resp.Bytes(), &chart); err != nil {
		return models.DailyBarTable{}, NewDecodeError(err)
	}

	if chart.Chart.Error != nil {
		return models.DailyBarTable{}, NewNoDataError(chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return models.DailyBarTable{}, NewNoDataError("no chart result")
	}

	bars := toBars(chart.Chart.Result[0], req.Adjust)
	if len(bars) == 0 {
		return models.DailyBarTable{}, NewNoDataError("no bars in range")
	}
	return models.DailyBarTable{Ticker: tk, Bars: bars}, nil
}

// toBars converts the columnar chart payload into date-keyed bars.
//
// Rows with a null close (holidays, halted sessions) are skipped. Timestamps are
// shifted by the exchange gmtoffset so each bar lands on its local trading date.
// When adjust is set, OHLC are scaled by adjclose/close. A repeated date keeps the
// later row.
func toBars(res chartResult, adjust bool) []models.DailyBar {
	if len(res.Indicators.Quote) == 0 {
		return nil
	}
	q := res.Indicators.Quote[0]
	var adj []*float64
	if len(res.Indicators.AdjClose) > 0 {
		adj = res.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]models.DailyBar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		c, ok := at(q.Close, i)
		if !ok {
			continue
		}
		o, _ := at(q.Open, i)
		h, _ := at(q.High, i)
		l, _ := at(q.Low, i)
		v, _ := at(q.Volume, i)

		if adjust {
			if a, ok := at(adj, i); ok && c != 0 {
				ratio := a / c
				o, h, l, c = o*ratio, h*ratio, l*ratio, a
			}
		}

		local := time.Unix(ts+res.Meta.GMTOffset, 0).UTC()
		bars = append(bars, models.DailyBar{
			Date:   time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		})
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func at(xs []*float64, i int) (float64, bool) {
	if i >= len(xs) || xs[i] == nil || math.IsNaN(*xs[i]) {
		return 0, false
	}
	return *xs[i], true
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
