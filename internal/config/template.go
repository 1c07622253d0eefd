// internal/config/template.go
package config

import (
	"time"

	"github.com/socialpulse/viralpipe/internal/errors"
	"github.com/socialpulse/viralpipe/pkg/types"
)

// GenerateTemplate returns a starter configuration covering every section.
// Values holding credentials use ${ENV} placeholders expanded at load time.
func GenerateTemplate() *PipelineConfig {
	return &PipelineConfig{
		Name:        "example-pipeline",
		Version:     "1.0",
		Description: "Scrape social video metadata, classify viral posts and export them",
		Scraping: []ScrapingConfig{
			{
				Actor:       "apify/instagram-reel-scraper",
				Name:        "instagram_reels",
				Platform:    "instagram",
				ContentType: types.ContentTypeOrganic,
				Input: map[string]interface{}{
					"username":     []string{"example_account"},
					"resultsLimit": 50,
				},
				Limit: 50,
			},
		},
		Mappings: map[string]types.ColumnMapping{
			"instagram": {
				"id":             types.FieldPostID,
				"url":            types.FieldPostURL,
				"videoUrl":       types.FieldMediaURL,
				"ownerUsername":  types.FieldUsername,
				"caption":        types.FieldCaption,
				"videoPlayCount": types.FieldViews,
				"likesCount":     types.FieldLikes,
				"commentsCount":  types.FieldComments,
				"videoDuration":  types.FieldDuration,
				"timestamp":      types.FieldPostedAt,
			},
		},
		Thresholds: map[string]float64{
			types.FieldViews: 50000,
			types.FieldLikes: 2000,
		},
		Stages: StageConfig{
			Resolve:      true,
			Analyze:      false,
			UploadAssets: false,
		},
		Scraper: ScraperConfig{
			BaseURL:  "https://api.apify.com/v2",
			APIToken: "${APIFY_TOKEN}",
		},
		Resolver: ResolverConfig{
			Timeout:     60 * time.Second,
			Workers:     4,
			RateLimit:   1,
			SessionFile: "session.json",
			BaseURL:     "https://www.instagram.com",
		},
		Analyzer: AnalyzerConfig{
			Model:  "gemini-2.5-flash",
			APIKey: "${GEMINI_API_KEY}",
		},
		Retry: errors.RetryConfig{
			MaxRetries:    3,
			BaseDelay:     time.Second,
			BackoffFactor: 2,
			MaxDelay:      30 * time.Second,
		},
		Outputs: []OutputConfig{
			{Format: "json", File: "output/records.json"},
			{Format: "csv", File: "output/records.csv"},
		},
		Monitoring: MonitoringConfig{
			Enabled: false,
			Address: ":9090",
		},
		LogLevel: "info",
	}
}
