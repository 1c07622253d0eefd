// internal/config/types.go

// Package config provides the configuration surface for a pipeline run:
// scraping configs, per-platform column mappings, viral thresholds, stage
// toggles, resolver and analyzer options, output destinations, retry policy
// and monitoring settings. Configuration is static for the lifetime of a run;
// mappings in particular are immutable once loaded.
package config

import (
	"time"

	"github.com/socialpulse/viralpipe/internal/errors"
	"github.com/socialpulse/viralpipe/pkg/types"
)

// PipelineConfig is the root configuration structure for a pipeline run.
type PipelineConfig struct {
	// Name identifies this pipeline configuration
	Name string `yaml:"name" json:"name"`

	// Version of the configuration format
	Version string `yaml:"version" json:"version"`

	// Description provides human-readable information about this config
	Description string `yaml:"description" json:"description"`

	// Scraping lists the vendor scraping configs to run, one per
	// account tier or query
	Scraping []ScrapingConfig `yaml:"scraping" json:"scraping"`

	// Mappings holds the per-platform column mapping tables
	// (raw vendor field name -> canonical field name)
	Mappings map[string]types.ColumnMapping `yaml:"mappings" json:"mappings"`

	// Thresholds defines the viral classification minimums per canonical
	// engagement metric, e.g. views: 5000
	Thresholds map[string]float64 `yaml:"thresholds" json:"thresholds"`

	// Stages toggles individual pipeline stages
	Stages StageConfig `yaml:"stages" json:"stages"`

	// Scraper configures the vendor actor API client
	Scraper ScraperConfig `yaml:"scraper" json:"scraper"`

	// Resolver configures video resolution
	Resolver ResolverConfig `yaml:"resolver" json:"resolver"`

	// Analyzer configures the AI content analysis stage
	Analyzer AnalyzerConfig `yaml:"analyzer" json:"analyzer"`

	// Retry is the bounded-backoff policy for external call boundaries
	Retry errors.RetryConfig `yaml:"retry" json:"retry"`

	// Outputs lists the sinks the final record set is written to
	Outputs []OutputConfig `yaml:"outputs" json:"outputs"`

	// Monitoring configures the ops HTTP server
	Monitoring MonitoringConfig `yaml:"monitoring" json:"monitoring"`

	// LogLevel sets the minimum log level (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// ScrapingConfig identifies one vendor actor run: which actor, which
// platform, what content type, and the vendor-specific input parameters.
// Immutable once constructed.
type ScrapingConfig struct {
	// Actor is the vendor actor/task identifier, e.g. "apify/instagram-reel-scraper"
	Actor string `yaml:"actor" json:"actor"`

	// Name uniquely identifies this config within the run, e.g. "instagram_reels"
	Name string `yaml:"name" json:"name"`

	// Platform names the social platform and selects the column mapping
	Platform string `yaml:"platform" json:"platform"`

	// ContentType determines which downstream stages run: ad content
	// terminates after classification, organic continues to resolution
	// and analysis
	ContentType types.ContentType `yaml:"content_type" json:"content_type"`

	// Input holds the vendor-defined actor input parameters
	Input map[string]interface{} `yaml:"input" json:"input"`

	// Limit caps the number of items fetched from the result dataset
	// (0 means no cap)
	Limit int `yaml:"limit,omitempty" json:"limit,omitempty"`
}

// StageConfig toggles optional pipeline stages to support partial runs.
type StageConfig struct {
	// Resolve enables the video download stage
	Resolve bool `yaml:"resolve" json:"resolve"`

	// Analyze enables the AI content analysis stage
	Analyze bool `yaml:"analyze" json:"analyze"`

	// UploadAssets enables uploading resolved videos to object storage
	UploadAssets bool `yaml:"upload_assets" json:"upload_assets"`
}

// ScraperConfig configures the vendor actor API client.
type ScraperConfig struct {
	// BaseURL of the vendor API, e.g. "https://api.apify.com/v2"
	BaseURL string `yaml:"base_url" json:"base_url"`

	// APIToken authenticates against the vendor API; supports ${ENV} expansion
	APIToken string `yaml:"api_token" json:"api_token"`

	// WaitTimeout bounds how long a single actor run may take
	WaitTimeout time.Duration `yaml:"wait_timeout" json:"wait_timeout"`

	// PollInterval between actor run status checks
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`

	// PageSize for dataset item paging
	PageSize int `yaml:"page_size" json:"page_size"`

	// RateLimit in requests per second against the vendor API
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit"`

	// RateBurst is the rate limiter burst size
	RateBurst int `yaml:"rate_burst" json:"rate_burst"`
}

// ResolverConfig configures direct and fallback video resolution.
type ResolverConfig struct {
	// Timeout per media fetch
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Workers bounds concurrent resolutions within the stage
	Workers int `yaml:"workers" json:"workers"`

	// RateLimit in requests per second against the CDN and post pages
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit"`

	// SessionFile persists the authenticated fallback session cookies
	SessionFile string `yaml:"session_file" json:"session_file"`

	// BaseURL of the platform used by the fallback resolver to re-derive
	// fresh media URLs, e.g. "https://www.instagram.com"
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Login configures the optional browser-driven session bootstrap
	Login *LoginConfig `yaml:"login,omitempty" json:"login,omitempty"`

	// UserAgents rotated across media fetches; defaults applied when empty
	UserAgents []string `yaml:"user_agents,omitempty" json:"user_agents,omitempty"`
}

// LoginConfig configures the browser-driven login used to mint fallback
// session cookies when no session file exists.
type LoginConfig struct {
	// Username for the platform account
	Username string `yaml:"username" json:"username"`

	// Password for the platform account; supports ${ENV} expansion
	Password string `yaml:"password" json:"password"`

	// LoginURL is the platform login page
	LoginURL string `yaml:"login_url" json:"login_url"`

	// Headless controls browser visibility during login
	Headless bool `yaml:"headless" json:"headless"`

	// Timeout bounds the whole login flow
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// AnalyzerConfig configures the AI content analysis client.
type AnalyzerConfig struct {
	// Model names the generative model, e.g. "gemini-2.5-flash"
	Model string `yaml:"model" json:"model"`

	// APIKey authenticates against the AI service; supports ${ENV} expansion
	APIKey string `yaml:"api_key" json:"api_key"`

	// MaxOutputTokens bounds response length
	MaxOutputTokens int32 `yaml:"max_output_tokens" json:"max_output_tokens"`

	// PollInterval between uploaded-file state checks
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`

	// Timeout per analysis call
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Workers bounds concurrent analyses within the stage
	Workers int `yaml:"workers" json:"workers"`
}

// OutputConfig describes one sink destination.
type OutputConfig struct {
	// Format selects the sink: json, csv, excel, sqlite, postgresql,
	// mysql, mongodb, s3
	Format string `yaml:"format" json:"format"`

	// File path for file-based sinks (json, csv, excel, sqlite)
	File string `yaml:"file,omitempty" json:"file,omitempty"`

	// Table name for warehouse sinks
	Table string `yaml:"table,omitempty" json:"table,omitempty"`

	// DSN is the connection string for SQL warehouse sinks; supports
	// ${ENV} expansion
	DSN string `yaml:"dsn,omitempty" json:"dsn,omitempty"`

	// Database and Collection for the MongoDB sink
	Database   string `yaml:"database,omitempty" json:"database,omitempty"`
	Collection string `yaml:"collection,omitempty" json:"collection,omitempty"`

	// Bucket, Prefix, Region and Endpoint for the S3 sink
	Bucket   string `yaml:"bucket,omitempty" json:"bucket,omitempty"`
	Prefix   string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Region   string `yaml:"region,omitempty" json:"region,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`

	// SheetName for the excel sink
	SheetName string `yaml:"sheet_name,omitempty" json:"sheet_name,omitempty"`
}

// MonitoringConfig configures the ops HTTP server.
type MonitoringConfig struct {
	// Enabled starts the metrics/health server during a run
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Address the ops server listens on, e.g. ":9090"
	Address string `yaml:"address" json:"address"`
}

// MappingFor returns the column mapping for a platform. The second return
// value reports whether the platform is configured.
func (c *PipelineConfig) MappingFor(platform string) (types.ColumnMapping, bool) {
	m, ok := c.Mappings[platform]
	return m, ok
}
