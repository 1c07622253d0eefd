// internal/analyzer/analyzer.go

// Package analyzer produces AI content analyses for resolved video assets:
// a structured scene breakdown first, then a virality explanation grounded in
// the record's performance metrics.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/socialpulse/viralpipe/internal/config"
	"github.com/socialpulse/viralpipe/internal/utils"
	"github.com/socialpulse/viralpipe/pkg/types"
)

// Analyzer runs the two-step video analysis against a generative model.
type Analyzer struct {
	cfg    config.AnalyzerConfig
	client contentClient
	logger utils.Logger
}

// New creates an analyzer backed by the Gemini API.
func New(ctx context.Context, cfg config.AnalyzerConfig) (*Analyzer, error) {
	client, err := newGeminiClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		cfg:    cfg,
		client: client,
		logger: utils.NewComponentLogger("analyzer"),
	}, nil
}

// Analyze uploads the asset, waits for the service to finish processing it,
// generates the scene breakdown, then generates the virality analysis with
// the breakdown and the record's metrics as context. The uploaded file is
// deleted afterwards; assets never outlive the run on the vendor side.
func (a *Analyzer) Analyze(ctx context.Context, asset *types.VideoAsset, rec types.Record) (*types.AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	file, err := a.client.Upload(ctx, asset.Data, asset.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload video for post %s: %w", asset.PostID, err)
	}
	defer func() {
		if delErr := a.client.DeleteFile(context.WithoutCancel(ctx), file.Name); delErr != nil {
			a.logger.Debugf("failed to delete uploaded file %s: %v", file.Name, delErr)
		}
	}()

	file, err = a.waitActive(ctx, file)
	if err != nil {
		return nil, err
	}

	breakdown, err := a.client.Generate(ctx, a.cfg.Model, file, breakdownPrompt)
	if err != nil {
		return nil, fmt.Errorf("breakdown generation failed for post %s: %w", asset.PostID, err)
	}

	virality, err := a.client.Generate(ctx, a.cfg.Model, nil, viralityPrompt(rec, breakdown))
	if err != nil {
		return nil, fmt.Errorf("virality generation failed for post %s: %w", asset.PostID, err)
	}

	return &types.AnalysisResult{
		PostID:      asset.PostID,
		Model:       a.cfg.Model,
		Breakdown:   breakdown,
		Virality:    virality,
		GeneratedAt: time.Now(),
	}, nil
}

// waitActive polls the uploaded file until the service reports it processed.
func (a *Analyzer) waitActive(ctx context.Context, file *fileRef) (*fileRef, error) {
	for !file.Active {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for file %s to process: %w", file.Name, ctx.Err())
		case <-time.After(a.cfg.PollInterval):
		}

		var err error
		file, err = a.client.GetFile(ctx, file.Name)
		if err != nil {
			return nil, err
		}
	}
	return file, nil
}
