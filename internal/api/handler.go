package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/monthlypulse/internal/domain/dto"
	"github.com/guttosm/monthlypulse/internal/service"
	"github.com/guttosm/monthlypulse/internal/storage"
)

// Handler serves the monthly statistics of the last persisted pipeline run.
//
// Responsibilities:
//   - Validate incoming HTTP query parameters
//   - Delegate lookups to the service layer
//   - Map service errors to HTTP status codes with dto.ErrorResponse bodies
type Handler struct {
	svc service.MonthlyService
}

// NewHandler constructs a Handler backed by svc.
func NewHandler(svc service.MonthlyService) *Handler {
	return &Handler{svc: svc}
}

// GetMonthly handles GET /api/v1/monthly requests.
//
// Query Parameters:
//   - ticker (string, required): e.g. "AAPL" (case-insensitive).
//   - period (string, optional): one month label, e.g. "2024 Jan".
//
// Responses:
//   - 200 OK: MonthlyResponse with the rows in artifact order.
//   - 400 Bad Request: ticker missing.
//   - 404 Not Found: no rows for ticker/period.
//   - 503 Service Unavailable: no artifact has been produced yet.
//   - 500 Internal Server Error: the artifact could not be read.
//
// GetMonthly godoc
// @Summary      Get monthly close statistics by ticker
// @Description  Returns month-end min/max/mean of the daily close for the given ticker
// @Tags         monthly
// @Produce      json
// @Param        ticker  query     string  true   "Ticker symbol" example(AAPL)
// @Param        period  query     string  false  "Month label" example(2024 Jan)
// @Success      200     {object}  dto.MonthlyResponse  "Success"
// @Failure      400     {object}  dto.ErrorResponse    "Bad Request"
// @Failure      404     {object}  dto.ErrorResponse    "Not Found"
// @Failure      500     {object}  dto.ErrorResponse    "Internal Error"
// @Failure      503     {object}  dto.ErrorResponse    "No artifact yet"
// @Router       /api/v1/monthly [get]
func (h *Handler) GetMonthly(c *gin.Context) {
	// ─── Validate "ticker" param ──────────────────────────────
	ticker := strings.ToUpper(strings.TrimSpace(c.Query("ticker")))
	if ticker == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("ticker is required", nil))
		return
	}
	period := strings.Join(strings.Fields(c.Query("period")), " ")

	// ─── Query service (with request context) ─────────────────
	rows, err := h.svc.GetMonthly(c.Request.Context(), ticker, period)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MonthlyResponse{Ticker: ticker, Rows: rows})
}

// ListTickers handles GET /api/v1/tickers requests.
//
// ListTickers godoc
// @Summary      List tickers
// @Description  Returns the distinct tickers present in the last persisted table, in table order
// @Tags         monthly
// @Produce      json
// @Success      200  {object}  dto.TickersResponse  "Success"
// @Failure      500  {object}  dto.ErrorResponse    "Internal Error"
// @Failure      503  {object}  dto.ErrorResponse    "No artifact yet"
// @Router       /api/v1/tickers [get]
func (h *Handler) ListTickers(c *gin.Context) {
	tickers, err := h.svc.ListTickers(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TickersResponse{Count: len(tickers), Tickers: tickers})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoRows):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse("no data found", nil))
	case errors.Is(err, storage.ErrArtifactNotFound):
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse("no pipeline output available yet", err))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to read monthly statistics", err))
	}
}
