package models

import "time"

// DailyBar is one OHLCV observation for a calendar date.
//
// Date carries only the calendar day (midnight UTC); the time-of-day part is meaningless.
type DailyBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// DailyBarTable is the raw daily time series of one ticker as returned by the provider.
//
// Bars are expected to be ordered by Date ascending with unique dates; consumers
// validate that before relying on it.
type DailyBarTable struct {
	Ticker Ticker
	Bars   []DailyBar
}

// Len returns the number of raw observations.
func (t DailyBarTable) Len() int { return len(t.Bars) }

// Empty reports whether the table has no observations.
func (t DailyBarTable) Empty() bool { return len(t.Bars) == 0 }
