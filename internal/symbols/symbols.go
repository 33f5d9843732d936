// Package symbols resolves the ticker universe the pipeline works on.
//
// Two sources exist: a prioritized list of remote CSV documents (Remote) and a
// local one-symbol-per-line file (File). Both return an ordered, deduplicated
// list of tickers, optionally capped.
package symbols

import (
	"context"
	"errors"
	"strings"

	"github.com/guttosm/monthlypulse/internal/domain/models"
)

// ErrSourceUnavailable is returned when no symbol source could be reached or parsed.
// Without a universe there is nothing to process, so callers treat it as fatal.
var ErrSourceUnavailable = errors.New("symbol source unavailable")

// Resolver produces the ordered ticker universe.
// limit <= 0 means no cap.
type Resolver interface {
	Resolve(ctx context.Context, limit int) ([]models.Ticker, error)
}

// Normalize rewrites a raw symbol into the provider's syntax:
// surrounding whitespace removed, upper-cased, class-share "." separator replaced by "-"
// (e.g., "brk.b" → "BRK-B").
func Normalize(raw string) models.Ticker {
	s := strings.ToUpper(strings.TrimSpace(raw))
	return models.Ticker(strings.ReplaceAll(s, ".", "-"))
}

func truncate(in []models.Ticker, limit int) []models.Ticker {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}
