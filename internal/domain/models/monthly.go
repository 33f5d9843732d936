package models

// MonthlyStatRow is one (ticker, month) summary of closing prices.
//
// Fields:
//   - Period: "<year> <month abbreviation>" of the month-end bucket (e.g., "2024 Jan").
//   - Min / Max / Mean: statistics over the month's Close values inside the window.
//   - Ticker: provenance of the row after the per-ticker results are merged.
//
// The csv tags define the artifact header: Period,min,max,mean,Ticker.
//
// swagger:model MonthlyStatRow
type MonthlyStatRow struct {
	Period string  `csv:"Period" json:"period" example:"2024 Jan"`
	Min    float64 `csv:"min" json:"min" example:"181.91"`
	Max    float64 `csv:"max" json:"max" example:"195.18"`
	Mean   float64 `csv:"mean" json:"mean" example:"187.55"`
	Ticker Ticker  `csv:"Ticker" json:"ticker" example:"AAPL"`
}

// AggregationResult is the outcome of reducing one ticker's raw table over a window.
//
// A ticker with no observations in the window has no Rows and RowsUsed == 0.
type AggregationResult struct {
	Rows     []MonthlyStatRow
	RowsUsed int
}

// Empty reports whether the result contributes nothing to the combined table.
func (r AggregationResult) Empty() bool { return len(r.Rows) == 0 }
