// Package provider is the boundary to the external market-data service.
//
// The service answers one batched query: daily bars for a list of tickers over a
// date range. Its answer comes in two shapes (one flat table for a single-ticker
// request, or one table per ticker) which Response models as a tagged variant so
// that callers resolve the shape exactly once.
package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/guttosm/monthlypulse/internal/domain/models"
)

// Interval is the bar size requested from the provider.
type Interval string

const (
	Daily   Interval = "1d"
	Weekly  Interval = "1wk"
	Monthly Interval = "1mo"
)

// ParseInterval validates s against the supported intervals.
func ParseInterval(s string) (Interval, error) {
	switch iv := Interval(strings.ToLower(strings.TrimSpace(s))); iv {
	case Daily, Weekly, Monthly:
		return iv, nil
	default:
		return "", fmt.Errorf("unsupported interval %q (want 1d, 1wk or 1mo)", s)
	}
}

// Request is one batched query.
//
// Fields:
//   - Tickers: symbols of one chunk, in chunk order.
//   - Start / End: download range; End is exclusive.
//   - Interval: bar size.
//   - Adjust: when true, prices are adjusted for splits and dividends.
type Request struct {
	Tickers  []models.Ticker
	Start    time.Time
	End      time.Time
	Interval Interval
	Adjust   bool
}

// Provider fetches daily bars for a batch of tickers.
//
// A returned error means the whole batch failed. Tickers the provider has no data
// for are simply absent from a MultiTicker response.
type Provider interface {
	Fetch(ctx context.Context, req Request) (Response, error)
}

// ResponseKind tags the shape of a Response.
type ResponseKind int

const (
	KindInvalid ResponseKind = iota
	KindSingle
	KindMulti
)

func (k ResponseKind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindMulti:
		return "multi"
	default:
		return "invalid"
	}
}

// Response is either a single flat table (only for one-ticker requests) or a
// mapping from ticker to table. The zero value is KindInvalid.
type Response struct {
	kind   ResponseKind
	single models.DailyBarTable
	multi  map[models.Ticker]models.DailyBarTable
}

// SingleTicker wraps the flat table returned for a one-ticker request.
func SingleTicker(table models.DailyBarTable) Response {
	return Response{kind: KindSingle, single: table}
}

// MultiTicker wraps the per-ticker tables of a batched request.
func MultiTicker(tables map[models.Ticker]models.DailyBarTable) Response {
	if tables == nil {
		tables = map[models.Ticker]models.DailyBarTable{}
	}
	return Response{kind: KindMulti, multi: tables}
}

// Kind reports the shape of r.
func (r Response) Kind() ResponseKind { return r.kind }

// Single returns the flat table when r is KindSingle.
func (r Response) Single() (models.DailyBarTable, bool) {
	return r.single, r.kind == KindSingle
}

// Multi returns the per-ticker tables when r is KindMulti.
func (r Response) Multi() (map[models.Ticker]models.DailyBarTable, bool) {
	return r.multi, r.kind == KindMulti
}
