// Package storage persists the combined monthly table as a CSV artifact.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/guttosm/monthlypulse/internal/domain/models"
)

// ErrArtifactNotFound is returned by Read when no artifact has been written yet.
var ErrArtifactNotFound = errors.New("artifact not found")

// CSVStore writes and reads the combined table with header Period,min,max,mean,Ticker.
type CSVStore struct{}

// NewCSVStore creates a CSVStore.
func NewCSVStore() *CSVStore { return &CSVStore{} }

// Write replaces the artifact at path with rows and returns its absolute path.
//
// The table is written to a temporary sibling and renamed into place, so readers
// never observe a half-written file and a failed write leaves the previous
// artifact untouched. A nil or empty rows slice produces a header-only file.
func (s *CSVStore) Write(path string, rows []models.MonthlyStatRow) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(abs)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }() // no-op after a successful rename

	if rows == nil {
		rows = []models.MonthlyStatRow{}
	}
	if err := gocsv.Marshal(&rows, tmp); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("encode csv: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), abs); err != nil {
		return "", fmt.Errorf("rename into place: %w", err)
	}
	return abs, nil
}

// Read loads every row of the artifact at path, in file order.
func (s *CSVStore) Read(path string) ([]models.MonthlyStatRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows := []models.MonthlyStatRow{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return rows, nil
}
