// internal/output/manager.go
package output

import (
	"context"
	"fmt"
	"io"

	"github.com/socialpulse/viralpipe/internal/config"
	"github.com/socialpulse/viralpipe/internal/pipeline"
)

// Manager builds and owns the configured sinks for one run.
type Manager struct {
	sinks   []pipeline.Sink
	closers []io.Closer
}

// NewManager constructs every configured sink. Constructing eagerly means a
// bad DSN fails the run up front instead of after scraping.
func NewManager(ctx context.Context, cfgs []config.OutputConfig) (*Manager, error) {
	m := &Manager{}

	for i, cfg := range cfgs {
		sink, err := m.buildSink(ctx, cfg)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("output %d (%s): %w", i, cfg.Format, err)
		}
		m.sinks = append(m.sinks, sink)
		if closer, ok := sink.(io.Closer); ok {
			m.closers = append(m.closers, closer)
		}
	}

	if len(m.sinks) == 0 {
		return nil, fmt.Errorf("no output sinks configured")
	}
	return m, nil
}

func (m *Manager) buildSink(ctx context.Context, cfg config.OutputConfig) (pipeline.Sink, error) {
	switch cfg.Format {
	case "json":
		return NewJSONSink(cfg.File)
	case "csv":
		return NewCSVSink(cfg.File)
	case "excel":
		return NewExcelSink(cfg.File, cfg.SheetName)
	case "sqlite":
		return NewSQLiteSink(cfg.File, cfg.Table)
	case "postgresql":
		return NewPostgresSink(cfg.DSN, cfg.Table)
	case "mysql":
		return NewMySQLSink(cfg.DSN, cfg.Table)
	case "mongodb":
		return NewMongoSink(cfg.DSN, cfg.Database, cfg.Collection)
	case "s3":
		return NewS3Sink(ctx, cfg.Bucket, cfg.Prefix, cfg.Region, cfg.Endpoint)
	default:
		return nil, fmt.Errorf("unsupported output format %q", cfg.Format)
	}
}

// Sinks returns the constructed sinks in configuration order.
func (m *Manager) Sinks() []pipeline.Sink {
	return m.sinks
}

// Close releases every sink holding a connection.
func (m *Manager) Close() error {
	var firstErr error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.closers = nil
	return firstErr
}

// AssetStoreFor builds the asset store from the first s3 output config.
// Asset uploads cannot run without one, so a missing s3 output is an error
// rather than a nil store.
func AssetStoreFor(ctx context.Context, cfgs []config.OutputConfig) (*AssetStore, error) {
	for _, cfg := range cfgs {
		if cfg.Format == "s3" {
			return NewAssetStore(ctx, cfg.Bucket, cfg.Prefix, cfg.Region, cfg.Endpoint)
		}
	}
	return nil, fmt.Errorf("asset uploads require an s3 output, none configured")
}
