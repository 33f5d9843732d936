package dto

import "github.com/guttosm/monthlypulse/internal/domain/models"

// MonthlyResponse represents the JSON structure returned by GET /api/v1/monthly.
type MonthlyResponse struct {
	Ticker string                  `json:"ticker" example:"AAPL"`
	Rows   []models.MonthlyStatRow `json:"rows"`
}

// TickersResponse represents the JSON structure returned by GET /api/v1/tickers.
type TickersResponse struct {
	Count   int      `json:"count" example:"503"`
	Tickers []string `json:"tickers"`
}
