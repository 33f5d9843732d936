package models

import (
	"reflect"
	"testing"
)

func TestDedupe(t *testing.T) {
	cases := []struct {
		name string
		in   []Ticker
		want []Ticker
	}{
		{name: "nil", in: nil, want: []Ticker{}},
		{name: "keeps first", in: Tickers("AAPL", "MSFT", "AAPL"), want: Tickers("AAPL", "MSFT")},
		{name: "drops blanks", in: Tickers("", " ", "GOOG"), want: Tickers("GOOG")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Dedupe(tc.in); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Dedupe(%v)=%v, want %v", tc.in, got, tc.want)
			}
		})
	}
}
