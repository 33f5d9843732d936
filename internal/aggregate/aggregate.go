// Package aggregate reduces one ticker's raw daily table to month-end
// min/max/mean rows over an inclusive date window.
package aggregate

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/guttosm/monthlypulse/internal/domain/models"
)

// PeriodLayout formats a month-end label, e.g. "2024 Jan".
const PeriodLayout = "2006 Jan"

// ErrAggregation marks a per-ticker reduction failure. The pipeline skips the
// ticker and keeps going.
var ErrAggregation = errors.New("aggregation failed")

// Error carries the ticker whose table could not be reduced.
type Error struct {
	Ticker models.Ticker
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v for %s: %v", ErrAggregation, e.Ticker, e.Err)
}

func (e *Error) Unwrap() []error { return []error{ErrAggregation, e.Err} }

// Window is an inclusive calendar-date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds a window from two dates; both are truncated to the day.
func NewWindow(start, end time.Time) (Window, error) {
	w := Window{Start: day(start), End: day(end)}
	if w.Start.IsZero() || w.End.IsZero() {
		return Window{}, fmt.Errorf("window bounds must be set")
	}
	if w.End.Before(w.Start) {
		return Window{}, fmt.Errorf("window end %s is before start %s", w.End.Format(time.DateOnly), w.Start.Format(time.DateOnly))
	}
	return w, nil
}

// Contains reports whether d falls inside the window, bounds included.
func (w Window) Contains(d time.Time) bool {
	d = day(d)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Aggregate slices table to the window and bins its closes by calendar month.
//
// Behavior:
//   - Dates are coerced to calendar days; a zero date, a non-ascending or
//     repeated date, or a non-finite Close is an *Error.
//   - An empty slice is not an error: the result has no rows and RowsUsed == 0.
//   - NaN closes are skipped and not counted in RowsUsed.
//   - Rows are chronological, labeled by the month-end date (PeriodLayout), and
//     each carries table.Ticker.
func (w Window) Aggregate(table models.DailyBarTable) (models.AggregationResult, error) {
	fail := func(err error) (models.AggregationResult, error) {
		return models.AggregationResult{}, &Error{Ticker: table.Ticker, Err: err}
	}

	var (
		rows    []models.MonthlyStatRow
		bucket  stats.Float64Data
		current time.Time // first day of the open bucket's month
		used    int
		prev    time.Time
	)

	flush := func() error {
		if len(bucket) == 0 {
			return nil
		}
		row, err := reduce(bucket, current, table.Ticker)
		if err != nil {
			return err
		}
		rows = append(rows, row)
		bucket = bucket[:0]
		return nil
	}

	for i, bar := range table.Bars {
		if bar.Date.IsZero() {
			return fail(fmt.Errorf("row %d has no date", i))
		}
		d := day(bar.Date)
		if i > 0 && !d.After(prev) {
			return fail(fmt.Errorf("row %d date %s is not after %s", i, d.Format(time.DateOnly), prev.Format(time.DateOnly)))
		}
		prev = d
		if !w.Contains(d) {
			continue
		}
		if math.IsNaN(bar.Close) {
			continue
		}
		if math.IsInf(bar.Close, 0) {
			return fail(fmt.Errorf("row %d close is not finite", i))
		}

		month := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		if !month.Equal(current) {
			if err := flush(); err != nil {
				return fail(err)
			}
			current = month
		}
		bucket = append(bucket, bar.Close)
		used++
	}
	if err := flush(); err != nil {
		return fail(err)
	}

	return models.AggregationResult{Rows: rows, RowsUsed: used}, nil
}

func reduce(closes stats.Float64Data, month time.Time, ticker models.Ticker) (models.MonthlyStatRow, error) {
	lo, err := closes.Min()
	if err != nil {
		return models.MonthlyStatRow{}, fmt.Errorf("min: %w", err)
	}
	hi, err := closes.Max()
	if err != nil {
		return models.MonthlyStatRow{}, fmt.Errorf("max: %w", err)
	}
	mean, err := closes.Mean()
	if err != nil {
		return models.MonthlyStatRow{}, fmt.Errorf("mean: %w", err)
	}
	// Summation rounding can push the mean just outside [lo, hi].
	mean = math.Min(math.Max(mean, lo), hi)
	return models.MonthlyStatRow{
		Period: MonthEnd(month).Format(PeriodLayout),
		Min:    lo,
		Max:    hi,
		Mean:   mean,
		Ticker: ticker,
	}, nil
}

// MonthEnd returns the last calendar day of t's month.
func MonthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

func day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
