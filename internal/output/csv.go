// internal/output/csv.go
package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/socialpulse/viralpipe/internal/utils"
	"github.com/socialpulse/viralpipe/pkg/types"
)

// CSVSink writes the record set as CSV with a canonical-schema header row.
type CSVSink struct {
	file string
}

// NewCSVSink creates a CSV file sink.
func NewCSVSink(file string) (*CSVSink, error) {
	if file == "" {
		return nil, fmt.Errorf("csv sink requires a file path")
	}
	return &CSVSink{file: file}, nil
}

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) Write(_ context.Context, records []types.Record) error {
	if err := os.MkdirAll(filepath.Dir(s.file), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(s.file)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", s.file, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	cols := columns()
	if err := w.Write(cols); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(cols))
	for _, rec := range records {
		for i, col := range cols {
			row[i] = utils.FormatValue(convertValue(rec[col]))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
