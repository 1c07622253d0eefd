// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/socialpulse/viralpipe/internal/config"
	"github.com/socialpulse/viralpipe/internal/errors"
	"github.com/socialpulse/viralpipe/internal/utils"
	"github.com/socialpulse/viralpipe/pkg/types"
)

// ScrapeResult is one scraping config's worth of raw records together with
// the dataset identifier they came from.
type ScrapeResult struct {
	DatasetID string
	Records   []types.RawRecord
}

// Scraper runs one vendor scraping config to completion and returns its
// result dataset.
type Scraper interface {
	Run(ctx context.Context, sc config.ScrapingConfig) (*ScrapeResult, error)
}

// Resolver obtains the video asset for a single record.
type Resolver interface {
	Resolve(ctx context.Context, rec types.Record) (*types.VideoAsset, error)
}

// Analyzer produces an AI content analysis for a resolved video asset.
type Analyzer interface {
	Analyze(ctx context.Context, asset *types.VideoAsset, rec types.Record) (*types.AnalysisResult, error)
}

// AssetStore persists a video asset to object storage and returns its key.
type AssetStore interface {
	Store(ctx context.Context, asset *types.VideoAsset) (string, error)
}

// Sink writes the final record set to one destination.
type Sink interface {
	Name() string
	Write(ctx context.Context, records []types.Record) error
}

// Observer receives stage-level measurements. The monitoring package provides
// a Prometheus-backed implementation; NoopObserver is used when monitoring is
// disabled.
type Observer interface {
	ObserveStageDuration(stage types.Stage, d time.Duration)
	ObserveRecords(stage types.Stage, n int)
	ObserveFailure(stage types.Stage)
	ObserveResolution(method string)
	ObserveSinkWrite(sink string, n int)
}

// NoopObserver discards all measurements.
type NoopObserver struct{}

func (NoopObserver) ObserveStageDuration(types.Stage, time.Duration) {}
func (NoopObserver) ObserveRecords(types.Stage, int)                 {}
func (NoopObserver) ObserveFailure(types.Stage)                      {}
func (NoopObserver) ObserveResolution(string)                        {}
func (NoopObserver) ObserveSinkWrite(string, int)                    {}

// item carries one record through the run together with the scraping config
// context it came from.
type item struct {
	rec         types.Record
	contentType types.ContentType
	asset       *types.VideoAsset
}

// Pipeline orchestrates one run: scrape, normalize, classify, resolve,
// analyze, write. Stages run as strict batch barriers; a stage starts only
// after the previous stage has finished for every record. Within the resolve
// and analyze stages records are processed concurrently under a bounded
// worker pool, and any per-record failure is recorded against the stage
// rather than aborting the run.
type Pipeline struct {
	cfg        *config.PipelineConfig
	scraper    Scraper
	resolver   Resolver
	analyzer   Analyzer
	store      AssetStore
	sinks      []Sink
	coercions  CoercionList
	classifier *Classifier
	retrier    *errors.Service
	observer   Observer
	logger     utils.Logger
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithResolver sets the video resolver. Required when the resolve stage is
// enabled.
func WithResolver(r Resolver) Option { return func(p *Pipeline) { p.resolver = r } }

// WithAnalyzer sets the content analyzer. Required when the analyze stage is
// enabled.
func WithAnalyzer(a Analyzer) Option { return func(p *Pipeline) { p.analyzer = a } }

// WithAssetStore sets the object storage uploader for resolved assets.
func WithAssetStore(s AssetStore) Option { return func(p *Pipeline) { p.store = s } }

// WithObserver sets the stage metrics observer.
func WithObserver(o Observer) Option { return func(p *Pipeline) { p.observer = o } }

// WithLogger sets the pipeline logger.
func WithLogger(l utils.Logger) Option { return func(p *Pipeline) { p.logger = l } }

// New builds a pipeline from a validated configuration, a scraper and the
// sinks. Collaborators for optional stages are supplied as options; New fails
// when an enabled stage has no collaborator to run it.
func New(cfg *config.PipelineConfig, scraper Scraper, sinks []Sink, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pipeline config cannot be nil")
	}
	if scraper == nil {
		return nil, fmt.Errorf("scraper cannot be nil")
	}
	if len(sinks) == 0 {
		return nil, fmt.Errorf("at least one sink is required")
	}

	p := &Pipeline{
		cfg:        cfg,
		scraper:    scraper,
		sinks:      sinks,
		coercions:  DefaultCoercions(),
		classifier: NewClassifier(cfg.Thresholds),
		retrier:    errors.NewServiceWithConfig(cfg.Retry),
		observer:   NoopObserver{},
		logger:     utils.NewComponentLogger("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}

	if cfg.Stages.Resolve && p.resolver == nil {
		return nil, fmt.Errorf("resolve stage enabled but no resolver configured")
	}
	if cfg.Stages.Analyze && p.analyzer == nil {
		return nil, fmt.Errorf("analyze stage enabled but no analyzer configured")
	}
	if cfg.Stages.UploadAssets && p.store == nil {
		return nil, fmt.Errorf("asset upload enabled but no asset store configured")
	}

	return p, nil
}

// Run executes the full pipeline once and returns the run summary. The
// summary is returned even on error so partial progress is visible.
func (p *Pipeline) Run(ctx context.Context) (*types.RunSummary, error) {
	summary := types.NewRunSummary()
	defer func() { summary.FinishedAt = time.Now() }()

	items, err := p.ingest(ctx, summary)
	if err != nil {
		return summary, err
	}
	if len(items) == 0 {
		p.logger.Warn("no records scraped, nothing to write")
		return summary, nil
	}

	p.classify(items, summary)

	if p.cfg.Stages.Resolve {
		p.resolve(ctx, items, summary)
	}

	if p.cfg.Stages.Analyze {
		p.analyze(ctx, items, summary)
	}

	if err := p.write(ctx, items, summary); err != nil {
		return summary, err
	}

	return summary, nil
}

// ingest runs every scraping config, normalizes the results onto the
// canonical schema and stamps provenance. A failed scraping config is
// recorded and skipped; the run continues with the remaining configs.
func (p *Pipeline) ingest(ctx context.Context, summary *types.RunSummary) ([]*item, error) {
	start := time.Now()
	var items []*item

	for _, sc := range p.cfg.Scraping {
		mapping, ok := p.cfg.MappingFor(sc.Platform)
		if !ok {
			return nil, errors.NewConfigf("platform", "no mapping for platform %q", sc.Platform)
		}

		var result *ScrapeResult
		err := p.retrier.ExecuteWithRetry(ctx, func() error {
			var runErr error
			result, runErr = p.scraper.Run(ctx, sc)
			return runErr
		}, "scraper")
		if err != nil {
			p.logger.Errorf("scraping config %s failed: %v", sc.Name, err)
			summary.RecordFailure(types.StageScrape)
			p.observer.ObserveFailure(types.StageScrape)
			continue
		}

		summary.ConfigsProcessed++
		summary.Scraped += len(result.Records)
		p.observer.ObserveRecords(types.StageScrape, len(result.Records))
		p.logger.Infof("scraped %d records from %s (dataset %s)",
			len(result.Records), sc.Name, result.DatasetID)

		records := Normalize(result.Records, mapping)
		records = p.coercions.Apply(records)

		ingested := time.Now().UTC().Format(time.RFC3339)
		for _, rec := range records {
			rec[types.FieldDatasetID] = result.DatasetID
			rec[types.FieldIngestedAt] = ingested
			items = append(items, &item{rec: rec, contentType: sc.ContentType})
		}
		summary.Normalized += len(records)
		p.observer.ObserveRecords(types.StageNormalize, len(records))
	}

	p.observer.ObserveStageDuration(types.StageScrape, time.Since(start))
	return items, nil
}

// classify labels every record against the configured thresholds.
func (p *Pipeline) classify(items []*item, summary *types.RunSummary) {
	start := time.Now()
	records := make([]types.Record, len(items))
	for i, it := range items {
		records[i] = it.rec
	}
	summary.Viral = p.classifier.Classify(records)
	p.observer.ObserveRecords(types.StageClassify, len(records))
	p.observer.ObserveStageDuration(types.StageClassify, time.Since(start))
	p.logger.Infof("classified %d records, %d viral", len(records), summary.Viral)
}

// resolve fetches video assets for organic records under a bounded worker
// pool. Both viral and non-viral organic records are resolved so the analysis
// stage can compare the two; ad records never enter resolution. A record
// whose resolution fails is tagged unresolved and retained.
func (p *Pipeline) resolve(ctx context.Context, items []*item, summary *types.RunSummary) {
	start := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	sem := make(chan struct{}, max(p.cfg.Resolver.Workers, 1))

	for _, it := range items {
		if it.contentType != types.ContentTypeOrganic {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(it *item) {
			defer wg.Done()
			defer func() { <-sem }()

			var asset *types.VideoAsset
			err := p.retrier.ExecuteWithRetry(ctx, func() error {
				var resErr error
				asset, resErr = p.resolver.Resolve(ctx, it.rec)
				return resErr
			}, "resolver")

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				it.rec[types.FieldResolutionMethod] = string(types.ResolutionFailed)
				summary.Unresolved++
				summary.RecordFailure(types.StageResolve)
				p.observer.ObserveFailure(types.StageResolve)
				p.logger.Warnf("resolution failed for post %s: %v",
					it.rec.GetString(types.FieldPostID), err)
				return
			}

			it.asset = asset
			it.rec[types.FieldResolutionMethod] = string(asset.Method)
			p.observer.ObserveResolution(string(asset.Method))
			switch asset.Method {
			case types.ResolutionDirect:
				summary.ResolvedDirect++
			case types.ResolutionFallback:
				summary.ResolvedFallback++
			}

			if p.cfg.Stages.UploadAssets && p.store != nil {
				key, storeErr := p.store.Store(ctx, asset)
				if storeErr != nil {
					summary.RecordFailure(types.StageResolve)
					p.observer.ObserveFailure(types.StageResolve)
					p.logger.Warnf("asset upload failed for post %s: %v", asset.PostID, storeErr)
					return
				}
				it.rec[types.FieldVideoKey] = key
			}
		}(it)
	}

	wg.Wait()
	resolved := summary.ResolvedDirect + summary.ResolvedFallback
	p.observer.ObserveRecords(types.StageResolve, resolved)
	p.observer.ObserveStageDuration(types.StageResolve, time.Since(start))
	p.logger.Infof("resolved %d assets (%d direct, %d fallback, %d unresolved)",
		resolved, summary.ResolvedDirect, summary.ResolvedFallback, summary.Unresolved)
}

// analyze runs AI content analysis over resolved assets under a bounded
// worker pool. Unresolved records are skipped; a failed analysis annotates
// the record and the run continues.
func (p *Pipeline) analyze(ctx context.Context, items []*item, summary *types.RunSummary) {
	start := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	sem := make(chan struct{}, max(p.cfg.Analyzer.Workers, 1))

	for _, it := range items {
		if it.asset == nil {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(it *item) {
			defer wg.Done()
			defer func() { <-sem }()

			var result *types.AnalysisResult
			err := p.retrier.ExecuteWithRetry(ctx, func() error {
				var anErr error
				result, anErr = p.analyzer.Analyze(ctx, it.asset, it.rec)
				return anErr
			}, "analyzer")

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				it.rec[types.FieldAnalysisError] = err.Error()
				summary.AnalysisFailed++
				summary.RecordFailure(types.StageAnalyze)
				p.observer.ObserveFailure(types.StageAnalyze)
				p.logger.Warnf("analysis failed for post %s: %v",
					it.rec.GetString(types.FieldPostID), err)
				return
			}

			it.rec[types.FieldAnalysis] = result.Breakdown
			it.rec[types.FieldViralityAnalysis] = result.Virality
			summary.Analyzed++
		}(it)
	}

	wg.Wait()
	p.observer.ObserveRecords(types.StageAnalyze, summary.Analyzed)
	p.observer.ObserveStageDuration(types.StageAnalyze, time.Since(start))
	p.logger.Infof("analyzed %d assets, %d failed", summary.Analyzed, summary.AnalysisFailed)
}

// write sends the full record set to every sink. A failing sink is recorded
// and skipped so one bad destination cannot lose the others' output. Run
// fails only when every sink failed.
func (p *Pipeline) write(ctx context.Context, items []*item, summary *types.RunSummary) error {
	start := time.Now()
	defer func() { p.observer.ObserveStageDuration(types.StageWrite, time.Since(start)) }()

	records := make([]types.Record, len(items))
	for i, it := range items {
		records[i] = it.rec
	}

	failed := 0
	for _, sink := range p.sinks {
		if err := sink.Write(ctx, records); err != nil {
			failed++
			summary.RecordFailure(types.StageWrite)
			p.observer.ObserveFailure(types.StageWrite)
			p.logger.Errorf("sink %s failed: %v", sink.Name(), err)
			continue
		}
		summary.Written[sink.Name()] = len(records)
		p.observer.ObserveSinkWrite(sink.Name(), len(records))
		p.logger.Infof("wrote %d records to %s", len(records), sink.Name())
	}
	p.observer.ObserveRecords(types.StageWrite, len(records))

	if failed == len(p.sinks) {
		return fmt.Errorf("all %d sinks failed", failed)
	}
	return nil
}
