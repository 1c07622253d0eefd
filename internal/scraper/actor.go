// internal/scraper/actor.go
package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/socialpulse/viralpipe/internal/config"
	"github.com/socialpulse/viralpipe/internal/pipeline"
	"github.com/socialpulse/viralpipe/internal/utils"
	"github.com/socialpulse/viralpipe/pkg/types"
)

// Scraper runs vendor actors and fetches their result datasets. It implements
// the pipeline's Scraper contract.
type Scraper struct {
	cfg    config.ScraperConfig
	client *apiClient
	logger utils.Logger
}

// New creates a scraper from the vendor API configuration.
func New(cfg config.ScraperConfig) *Scraper {
	return &Scraper{
		cfg:    cfg,
		client: newAPIClient(cfg),
		logger: utils.NewComponentLogger("scraper"),
	}
}

// Run executes one scraping config end to end: start the actor, wait for the
// run to finish, fetch every item of its default dataset. The items are
// returned untouched; normalization is the pipeline's job.
func (s *Scraper) Run(ctx context.Context, sc config.ScrapingConfig) (*pipeline.ScrapeResult, error) {
	run, err := s.startRun(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to start actor %s: %w", sc.Actor, err)
	}
	s.logger.Infof("actor %s started run %s", sc.Actor, run.ID)

	run, err = s.waitForRun(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	if run.Status != RunStatusSucceeded {
		return nil, fmt.Errorf("actor run %s finished with status %s: %s",
			run.ID, run.Status, run.StatusMessage)
	}

	records, err := s.fetchDataset(ctx, run.DefaultDatasetID, sc.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset %s: %w", run.DefaultDatasetID, err)
	}

	return &pipeline.ScrapeResult{
		DatasetID: run.DefaultDatasetID,
		Records:   records,
	}, nil
}

// startRun posts the actor input to the vendor API. Actor identifiers use the
// "owner/name" form on the wire with the slash encoded as a tilde.
func (s *Scraper) startRun(ctx context.Context, sc config.ScrapingConfig) (actorRun, error) {
	actorID := strings.ReplaceAll(sc.Actor, "/", "~")
	path := "/acts/" + url.PathEscape(actorID) + "/runs"

	input := sc.Input
	if input == nil {
		input = map[string]interface{}{}
	}

	var envelope runEnvelope
	if err := s.client.postJSON(ctx, path, input, &envelope); err != nil {
		return actorRun{}, err
	}
	if envelope.Data.ID == "" {
		return actorRun{}, fmt.Errorf("vendor api returned no run id for actor %s", sc.Actor)
	}
	return envelope.Data, nil
}

// waitForRun polls the run status until it reaches a terminal state or the
// configured wait timeout elapses.
func (s *Scraper) waitForRun(ctx context.Context, runID string) (actorRun, error) {
	deadline := time.Now().Add(s.cfg.WaitTimeout)
	path := "/actor-runs/" + url.PathEscape(runID)

	for {
		var envelope runEnvelope
		if err := s.client.getJSON(ctx, path, nil, &envelope); err != nil {
			return actorRun{}, fmt.Errorf("failed to poll run %s: %w", runID, err)
		}
		if envelope.Data.terminal() {
			return envelope.Data, nil
		}
		if time.Now().After(deadline) {
			return actorRun{}, fmt.Errorf("actor run %s did not finish within %s (status %s)",
				runID, s.cfg.WaitTimeout, envelope.Data.Status)
		}

		select {
		case <-ctx.Done():
			return actorRun{}, ctx.Err()
		case <-time.After(s.cfg.PollInterval):
		}
	}
}

// fetchDataset pages through the dataset items. A page shorter than the page
// size marks the end of the dataset; limit caps the total when positive.
func (s *Scraper) fetchDataset(ctx context.Context, datasetID string, limit int) ([]types.RawRecord, error) {
	if datasetID == "" {
		return nil, fmt.Errorf("actor run produced no dataset")
	}

	path := "/datasets/" + url.PathEscape(datasetID) + "/items"
	pageSize := s.cfg.PageSize

	var records []types.RawRecord
	for offset := 0; ; offset += pageSize {
		size := pageSize
		if limit > 0 && limit-len(records) < size {
			size = limit - len(records)
		}

		query := url.Values{
			"format": {"json"},
			"offset": {strconv.Itoa(offset)},
			"limit":  {strconv.Itoa(size)},
		}

		var page []types.RawRecord
		if err := s.client.getJSON(ctx, path, query, &page); err != nil {
			return nil, err
		}
		records = append(records, page...)

		if len(page) < size || (limit > 0 && len(records) >= limit) {
			break
		}
	}

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
