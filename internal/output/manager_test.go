// internal/output/manager_test.go
package output

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/socialpulse/viralpipe/internal/config"
)

func TestNewManagerBuildsFileSinks(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(context.Background(), []config.OutputConfig{
		{Format: "json", File: filepath.Join(dir, "out.json")},
		{Format: "csv", File: filepath.Join(dir, "out.csv")},
		{Format: "excel", File: filepath.Join(dir, "out.xlsx")},
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer m.Close()

	sinks := m.Sinks()
	if len(sinks) != 3 {
		t.Fatalf("sinks = %d, want 3", len(sinks))
	}
	names := map[string]bool{}
	for _, s := range sinks {
		names[s.Name()] = true
	}
	for _, want := range []string{"json", "csv", "excel"} {
		if !names[want] {
			t.Errorf("missing sink %s", want)
		}
	}
}

func TestNewManagerUnsupportedFormat(t *testing.T) {
	_, err := NewManager(context.Background(), []config.OutputConfig{
		{Format: "parquet", File: "out.parquet"},
	})
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewManagerNoOutputs(t *testing.T) {
	if _, err := NewManager(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty output list")
	}
}

func TestAssetStoreForRequiresS3Output(t *testing.T) {
	store, err := AssetStoreFor(context.Background(), []config.OutputConfig{
		{Format: "json", File: "out.json"},
	})
	if err == nil {
		t.Fatal("expected error when no s3 output is configured")
	}
	if store != nil {
		t.Error("store must be nil on error")
	}
}
