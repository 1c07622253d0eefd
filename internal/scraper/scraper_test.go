// internal/scraper/scraper_test.go
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/socialpulse/viralpipe/internal/config"
	"github.com/socialpulse/viralpipe/internal/errors"
)

// fakeVendor simulates the actor API: starting a run, polling it to
// completion after a configurable number of polls, and serving dataset items.
type fakeVendor struct {
	t           *testing.T
	pollsToDone int32
	polls       int32
	finalStatus string
	items       []map[string]interface{}
	failItems   int32
}

func (v *fakeVendor) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /acts/{actor}/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var input map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"id":     "run-1",
				"actId":  r.PathValue("actor"),
				"status": RunStatusRunning,
			},
		})
	})

	mux.HandleFunc("GET /actor-runs/run-1", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&v.polls, 1)
		status := RunStatusRunning
		datasetID := ""
		if n >= v.pollsToDone {
			status = v.finalStatus
			datasetID = "ds-1"
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"id":               "run-1",
				"status":           status,
				"defaultDatasetId": datasetID,
			},
		})
	})

	mux.HandleFunc("GET /datasets/ds-1/items", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&v.failItems, -1) >= 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		end := offset + limit
		if end > len(v.items) {
			end = len(v.items)
		}
		if offset > len(v.items) {
			offset = len(v.items)
		}
		json.NewEncoder(w).Encode(v.items[offset:end])
	})

	return mux
}

func testItems(n int) []map[string]interface{} {
	items := make([]map[string]interface{}, n)
	for i := range items {
		items[i] = map[string]interface{}{
			"id":        fmt.Sprintf("p%d", i),
			"viewCount": (i + 1) * 100,
		}
	}
	return items
}

func newTestScraper(serverURL string) *Scraper {
	s := New(config.ScraperConfig{
		BaseURL:      serverURL,
		APIToken:     "test-token",
		WaitTimeout:  5 * time.Second,
		PollInterval: 10 * time.Millisecond,
		PageSize:     3,
		RateLimit:    1000,
		RateBurst:    100,
	})
	s.client.retryDelay = time.Millisecond
	return s
}

func scrapingConfig() config.ScrapingConfig {
	return config.ScrapingConfig{
		Actor:    "apify/instagram-reel-scraper",
		Name:     "reels",
		Platform: "instagram",
		Input:    map[string]interface{}{"usernames": []string{"catmums"}},
	}
}

func TestRunPollsAndFetchesDataset(t *testing.T) {
	vendor := &fakeVendor{
		t:           t,
		pollsToDone: 3,
		finalStatus: RunStatusSucceeded,
		items:       testItems(7),
	}
	server := httptest.NewServer(vendor.handler())
	defer server.Close()

	result, err := newTestScraper(server.URL).Run(context.Background(), scrapingConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.DatasetID != "ds-1" {
		t.Errorf("dataset id = %q, want ds-1", result.DatasetID)
	}
	if len(result.Records) != 7 {
		t.Errorf("records = %d, want 7 (paged at 3)", len(result.Records))
	}
	if atomic.LoadInt32(&vendor.polls) < 3 {
		t.Errorf("polls = %d, want >= 3", vendor.polls)
	}
	if result.Records[0]["id"] != "p0" {
		t.Errorf("first record = %v", result.Records[0])
	}
}

func TestRunRespectsLimit(t *testing.T) {
	vendor := &fakeVendor{
		t:           t,
		pollsToDone: 1,
		finalStatus: RunStatusSucceeded,
		items:       testItems(10),
	}
	server := httptest.NewServer(vendor.handler())
	defer server.Close()

	sc := scrapingConfig()
	sc.Limit = 5

	result, err := newTestScraper(server.URL).Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Records) != 5 {
		t.Errorf("records = %d, want 5", len(result.Records))
	}
}

func TestRunFailedActorRun(t *testing.T) {
	vendor := &fakeVendor{
		t:           t,
		pollsToDone: 1,
		finalStatus: RunStatusFailed,
	}
	server := httptest.NewServer(vendor.handler())
	defer server.Close()

	_, err := newTestScraper(server.URL).Run(context.Background(), scrapingConfig())
	if err == nil {
		t.Fatal("expected error for failed actor run")
	}
}

func TestRunRetriesTransientDatasetErrors(t *testing.T) {
	vendor := &fakeVendor{
		t:           t,
		pollsToDone: 1,
		finalStatus: RunStatusSucceeded,
		items:       testItems(2),
		failItems:   2,
	}
	server := httptest.NewServer(vendor.handler())
	defer server.Close()

	result, err := newTestScraper(server.URL).Run(context.Background(), scrapingConfig())
	if err != nil {
		t.Fatalf("Run should survive transient 503s: %v", err)
	}
	if len(result.Records) != 2 {
		t.Errorf("records = %d, want 2", len(result.Records))
	}
}

func TestExhaustedRetriesNotTransient(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	s := newTestScraper(server.URL)
	err := s.client.getJSON(context.Background(), "/actor-runs/run-1", nil, &runEnvelope{})
	if err == nil {
		t.Fatal("expected error against a closed server")
	}
	if errors.IsTransient(err) {
		t.Errorf("exhausted retries must not surface as transient, got %v", err)
	}
}

func TestRunRejectsBadToken(t *testing.T) {
	vendor := &fakeVendor{t: t, pollsToDone: 1, finalStatus: RunStatusSucceeded}
	server := httptest.NewServer(vendor.handler())
	defer server.Close()

	s := newTestScraper(server.URL)
	s.cfg.APIToken = "wrong"
	s.client.token = "wrong"

	if _, err := s.Run(context.Background(), scrapingConfig()); err == nil {
		t.Fatal("expected error for unauthorized request")
	}
}

func TestRunWaitTimeout(t *testing.T) {
	vendor := &fakeVendor{
		t:           t,
		pollsToDone: 1000,
		finalStatus: RunStatusSucceeded,
	}
	server := httptest.NewServer(vendor.handler())
	defer server.Close()

	s := newTestScraper(server.URL)
	s.cfg.WaitTimeout = 50 * time.Millisecond

	if _, err := s.Run(context.Background(), scrapingConfig()); err == nil {
		t.Fatal("expected timeout error for never-finishing run")
	}
}
