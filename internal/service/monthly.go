package service

import (
	"context"
	"errors"
	"strings"

	"github.com/guttosm/monthlypulse/internal/domain/models"
)

// ErrNoRows is returned when the artifact holds nothing for the requested ticker/period.
var ErrNoRows = errors.New("no rows for ticker")

// ArtifactReader loads the persisted combined table.
type ArtifactReader interface {
	Read(path string) ([]models.MonthlyStatRow, error)
}

// MonthlyService defines read access to the last persisted monthly table.
type MonthlyService interface {
	GetMonthly(ctx context.Context, ticker, period string) ([]models.MonthlyStatRow, error)
	ListTickers(ctx context.Context) ([]string, error)
	Ready(ctx context.Context) error
}

type monthlyService struct {
	reader ArtifactReader
	path   string
}

// NewMonthlyService serves the artifact at path. It is re-read on every call so a
// new pipeline run is picked up without restarting the server.
func NewMonthlyService(reader ArtifactReader, path string) MonthlyService {
	return &monthlyService{reader: reader, path: path}
}

// GetMonthly returns the ticker's rows in artifact order, optionally narrowed to
// one period label ("2024 Jan"). Matching is case-insensitive on both.
func (s *monthlyService) GetMonthly(ctx context.Context, ticker, period string) ([]models.MonthlyStatRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.reader.Read(s.path)
	if err != nil {
		return nil, err
	}

	var out []models.MonthlyStatRow
	for _, r := range rows {
		if !strings.EqualFold(r.Ticker.String(), ticker) {
			continue
		}
		if period != "" && !strings.EqualFold(r.Period, period) {
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, ErrNoRows
	}
	return out, nil
}

// ListTickers returns the distinct tickers of the artifact in first-seen order.
func (s *monthlyService) ListTickers(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.reader.Read(s.path)
	if err != nil {
		return nil, err
	}
	tickers := make([]models.Ticker, 0, len(rows))
	for _, r := range rows {
		tickers = append(tickers, r.Ticker)
	}
	distinct := models.Dedupe(tickers)
	out := make([]string, len(distinct))
	for i, tk := range distinct {
		out[i] = tk.String()
	}
	return out, nil
}

// Ready reports whether the artifact can currently be read.
func (s *monthlyService) Ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.reader.Read(s.path)
	return err
}
