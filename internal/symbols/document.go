package symbols

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/guttosm/monthlypulse/internal/domain/models"
)

// symbolColumn is the header of the column holding ticker strings.
const symbolColumn = "Symbol"

// ParseSymbolDocument extracts the Symbol column of a CSV document.
//
// It fails on:
//   - an unreadable header or a header without the Symbol column
//   - malformed CSV rows or rows shorter than the Symbol column
//   - a document with no symbols at all
//
// It tolerates:
//   - extra columns in any order
//   - blank Symbol cells (skipped)
//   - a UTF-8 byte order mark before the header
//
// Symbols are normalized with Normalize and deduplicated (first occurrence wins).
func ParseSymbolDocument(r io.Reader) ([]models.Ticker, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1 // mirrors publish different column sets

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty document")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := -1
	for i, h := range header {
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == symbolColumn {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("missing %q column in header %v", symbolColumn, header)
	}

	var out []models.Ticker
	line := 1
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read line after %d: %w", line, err)
		}
		line++

		if len(rec) <= idx {
			return nil, fmt.Errorf("line %d: expected at least %d columns, got %d", line, idx+1, len(rec))
		}
		if s := strings.TrimSpace(rec[idx]); s != "" {
			out = append(out, Normalize(s))
		}
	}

	out = models.Dedupe(out)
	if len(out) == 0 {
		return nil, fmt.Errorf("no symbols in document")
	}
	return out, nil
}
