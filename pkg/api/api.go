// pkg/api/api.go

// Package api is the embedding surface for running viralpipe from other Go
// programs: load a configuration, run the pipeline, get the summary.
package api

import (
	"context"

	"github.com/socialpulse/viralpipe/internal/analyzer"
	"github.com/socialpulse/viralpipe/internal/config"
	"github.com/socialpulse/viralpipe/internal/output"
	"github.com/socialpulse/viralpipe/internal/pipeline"
	"github.com/socialpulse/viralpipe/internal/resolver"
	"github.com/socialpulse/viralpipe/internal/scraper"
	"github.com/socialpulse/viralpipe/pkg/types"
)

// Re-exported configuration types for embedders.
type (
	PipelineConfig = config.PipelineConfig
	ScrapingConfig = config.ScrapingConfig
	OutputConfig   = config.OutputConfig
	RunSummary     = types.RunSummary
)

// LoadConfig loads and validates a pipeline configuration file.
func LoadConfig(file string) (*PipelineConfig, error) {
	return config.LoadFromFile(file)
}

// Client runs pipelines for one configuration.
type Client struct {
	cfg *PipelineConfig
}

// NewClient builds a client from a validated configuration.
func NewClient(cfg *PipelineConfig) *Client {
	return &Client{cfg: cfg}
}

// Run executes one full pipeline run and returns its summary.
func (c *Client) Run(ctx context.Context) (*RunSummary, error) {
	manager, err := output.NewManager(ctx, c.cfg.Outputs)
	if err != nil {
		return nil, err
	}
	defer manager.Close()

	opts := []pipeline.Option{}
	if c.cfg.Stages.Resolve {
		opts = append(opts, pipeline.WithResolver(resolver.New(c.cfg.Resolver)))
	}
	if c.cfg.Stages.Analyze {
		a, err := analyzer.New(ctx, c.cfg.Analyzer)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithAnalyzer(a))
	}
	if c.cfg.Stages.UploadAssets {
		store, err := output.AssetStoreFor(ctx, c.cfg.Outputs)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithAssetStore(store))
	}

	p, err := pipeline.New(c.cfg, scraper.New(c.cfg.Scraper), manager.Sinks(), opts...)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx)
}
