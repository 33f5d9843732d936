package models

import "strings"

// Ticker is an upper-case instrument symbol in the market-data provider's syntax
// (e.g., "AAPL", "BRK-B").
type Ticker string

// String returns the raw symbol.
func (t Ticker) String() string { return string(t) }

// Tickers converts a list of raw symbols to Tickers without normalization.
func Tickers(symbols ...string) []Ticker {
	out := make([]Ticker, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, Ticker(s))
	}
	return out
}

// Dedupe removes empty and repeated tickers, keeping the first occurrence.
func Dedupe(in []Ticker) []Ticker {
	seen := make(map[Ticker]struct{}, len(in))
	out := make([]Ticker, 0, len(in))
	for _, t := range in {
		if strings.TrimSpace(string(t)) == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
