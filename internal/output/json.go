// internal/output/json.go
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/socialpulse/viralpipe/pkg/types"
)

// JSONSink writes the record set as an indented JSON array.
type JSONSink struct {
	file string
}

// NewJSONSink creates a JSON file sink.
func NewJSONSink(file string) (*JSONSink, error) {
	if file == "" {
		return nil, fmt.Errorf("json sink requires a file path")
	}
	return &JSONSink{file: file}, nil
}

func (s *JSONSink) Name() string { return "json" }

func (s *JSONSink) Write(_ context.Context, records []types.Record) error {
	if err := os.MkdirAll(filepath.Dir(s.file), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(s.file)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", s.file, err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return f.Sync()
}
