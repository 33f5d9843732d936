package symbols

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/guttosm/monthlypulse/internal/domain/models"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return p
}

func TestReadTickers_TableDriven(t *testing.T) {
	cases := []struct {
		name  string
		lines []string
		limit int
		want  []models.Ticker
	}{
		{
			name:  "case-folded comment-stripped deduplicated",
			lines: []string{"AAPL", "aapl", "# comment", "", "MSFT # note"},
			want:  models.Tickers("AAPL", "MSFT"),
		},
		{
			name:  "limit stops early",
			lines: []string{"a", "b", "c", "d"},
			limit: 2,
			want:  models.Tickers("A", "B"),
		},
		{
			name:  "limit counts distinct tickers",
			lines: []string{"a", "A", "a", "b", "c"},
			limit: 2,
			want:  models.Tickers("A", "B"),
		},
		{
			name:  "whitespace and tabs",
			lines: []string{"  goog\t", "\t# only comment", "   "},
			want:  models.Tickers("GOOG"),
		},
		{
			name:  "class shares kept as written",
			lines: []string{"brk-b"},
			want:  models.Tickers("BRK-B"),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ReadTickers(strings.NewReader(strings.Join(tc.lines, "\n")), tc.limit)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "tickers.txt", "AAPL\naapl\n# comment\n\nMSFT # note\n")

	got, err := File{Path: path}.Resolve(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !reflect.DeepEqual(got, models.Tickers("AAPL", "MSFT")) {
		t.Fatalf("got %v", got)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.txt"), 0)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}
