// internal/output/excel.go
package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/socialpulse/viralpipe/internal/utils"
	"github.com/socialpulse/viralpipe/pkg/types"
)

// ExcelSink writes the record set as an xlsx workbook with one sheet.
type ExcelSink struct {
	file  string
	sheet string
}

// NewExcelSink creates an xlsx file sink.
func NewExcelSink(file, sheet string) (*ExcelSink, error) {
	if file == "" {
		return nil, fmt.Errorf("excel sink requires a file path")
	}
	if sheet == "" {
		sheet = "records"
	}
	return &ExcelSink{file: file, sheet: sheet}, nil
}

func (s *ExcelSink) Name() string { return "excel" }

func (s *ExcelSink) Write(_ context.Context, records []types.Record) error {
	if err := os.MkdirAll(filepath.Dir(s.file), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	book := excelize.NewFile()
	defer book.Close()

	index, err := book.NewSheet(s.sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", s.sheet, err)
	}
	book.SetActiveSheet(index)
	book.DeleteSheet("Sheet1")

	cols := columns()
	header := make([]interface{}, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	if err := book.SetSheetRow(s.sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, rec := range records {
		row := make([]interface{}, len(cols))
		for j, col := range cols {
			switch v := convertValue(rec[col]).(type) {
			case nil:
				row[j] = ""
			case string, bool, int, int64, float64:
				row[j] = v
			default:
				row[j] = utils.FormatValue(v)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := book.SetSheetRow(s.sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := book.SaveAs(s.file); err != nil {
		return fmt.Errorf("failed to save %s: %w", s.file, err)
	}
	return nil
}
