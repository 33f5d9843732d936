package symbols

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/guttosm/monthlypulse/internal/domain/models"
)

// File resolves the universe from a local UTF-8 text file, one symbol per line.
type File struct {
	Path string
}

// Resolve implements Resolver by reading f.Path with LoadFile.
func (f File) Resolve(_ context.Context, limit int) ([]models.Ticker, error) {
	return LoadFile(f.Path, limit)
}

// LoadFile reads tickers from path. See ReadTickers for the line format.
// An unreadable file wraps ErrSourceUnavailable.
func LoadFile(path string, limit int) ([]models.Ticker, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrSourceUnavailable, path, err)
	}
	defer func() { _ = fh.Close() }()

	tickers, err := ReadTickers(fh, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrSourceUnavailable, path, err)
	}
	return tickers, nil
}

// ReadTickers parses one ticker per line.
//
// Behavior:
//   - "#" starts a comment running to the end of the line.
//   - Surrounding whitespace is stripped; blank lines are skipped.
//   - Tokens are upper-cased; repeated tokens keep their first position.
//   - With limit > 0, reading stops once limit distinct tickers were accepted.
func ReadTickers(r io.Reader, limit int) ([]models.Ticker, error) {
	var out []models.Ticker
	seen := make(map[models.Ticker]struct{})

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line, _, _ := strings.Cut(sc.Text(), "#")
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		t := models.Ticker(strings.ToUpper(s))
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
