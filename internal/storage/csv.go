package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/bradykim7/bookscraper/internal/models"
	"go.uber.org/zap"
)

// WriteCSV writes the result as CSV. The header is the first record's field
// names in order; null fields are written as empty strings. An empty result
// writes nothing, since there is no record to take the header from.
func WriteCSV(w io.Writer, result models.CrawlResult) error {
	header := result.Keys()
	if header == nil {
		return nil
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(header))
	for i, record := range result.Records {
		for _, key := range record.Keys() {
			if !slices.Contains(header, key) {
				return fmt.Errorf("record %d: field %q is not in header %v", i, key, header)
			}
		}
		for j, key := range header {
			value, _ := record.Lookup(key)
			row[j] = value
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// CSVStore writes each saved run to a CSV file, replacing its contents.
type CSVStore struct {
	path string
	log  *zap.Logger
}

// NewCSVStore creates a store writing to path.
func NewCSVStore(path string, log *zap.Logger) *CSVStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &CSVStore{path: path, log: log.Named("csv-store")}
}

// SaveRun writes the run's records to the CSV file.
func (s *CSVStore) SaveRun(_ context.Context, run *models.CrawlRun) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}

	if err := WriteCSV(f, run.Result); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", s.path, err)
	}

	s.log.Info("Wrote CSV", zap.String("path", s.path), zap.Int("records", run.Result.Len()))
	return nil
}

// Close is a no-op; the file is closed after every SaveRun.
func (s *CSVStore) Close(context.Context) error {
	return nil
}
