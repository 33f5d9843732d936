// Package telemetry provides the sinks the pipeline reports stage measurements to.
//
// Measurements are observational: no sink can fail a run or alter its output.
package telemetry

import (
	"sync"

	"github.com/rs/zerolog"
)

// Sink receives one named measurement for a pipeline stage.
type Sink interface {
	Record(stage, metric string, value float64)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) Record(string, string, float64) {}

// Log writes each measurement as a structured log line.
type Log struct {
	Logger zerolog.Logger
}

// NewLog returns a sink logging at info level through l.
func NewLog(l zerolog.Logger) *Log {
	return &Log{Logger: l}
}

func (s *Log) Record(stage, metric string, value float64) {
	s.Logger.Info().Str("stage", stage).Str("metric", metric).Float64("value", value).Msg("telemetry")
}

// Multi fans every measurement out to each sink in order.
type Multi []Sink

func (m Multi) Record(stage, metric string, value float64) {
	for _, s := range m {
		if s != nil {
			s.Record(stage, metric, value)
		}
	}
}

// Recorder keeps every measurement in memory; handy for assertions.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Entry is one recorded measurement.
type Entry struct {
	Stage  string
	Metric string
	Value  float64
}

func (r *Recorder) Record(stage, metric string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Stage: stage, Metric: metric, Value: value})
}

// Entries returns a copy of what has been recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Value returns the last value recorded for stage/metric.
func (r *Recorder) Value(stage, metric string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		if e := r.entries[i]; e.Stage == stage && e.Metric == metric {
			return e.Value, true
		}
	}
	return 0, false
}
