// internal/config/config.go
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/socialpulse/viralpipe/internal/errors"
)

// LoadFromFile loads pipeline configuration from a YAML file.
func LoadFromFile(filename string) (*PipelineConfig, error) {
	if filename == "" {
		return nil, errors.NewConfigf("", "configuration filename cannot be empty")
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, errors.NewConfigf("", "configuration file not found: %s", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.NewConfig("", fmt.Errorf("failed to read configuration file: %w", err))
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads pipeline configuration from YAML bytes. Environment
// variable references of the form ${VAR} are expanded before parsing so
// credentials never have to live in the file itself.
func LoadFromBytes(data []byte) (*PipelineConfig, error) {
	if len(data) == 0 {
		return nil, errors.NewConfigf("", "configuration data cannot be empty")
	}

	expanded := os.ExpandEnv(string(data))

	var cfg PipelineConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.NewConfig("", fmt.Errorf("failed to parse YAML configuration: %w", err))
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromReader loads pipeline configuration from an io.Reader.
func LoadFromReader(reader io.Reader) (*PipelineConfig, error) {
	if reader == nil {
		return nil, errors.NewConfigf("", "reader cannot be nil")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewConfig("", fmt.Errorf("failed to read from reader: %w", err))
	}

	return LoadFromBytes(data)
}

// applyDefaults applies default values to the configuration.
func applyDefaults(cfg *PipelineConfig) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.Scraper.BaseURL == "" {
		cfg.Scraper.BaseURL = "https://api.apify.com/v2"
	}
	if cfg.Scraper.WaitTimeout == 0 {
		cfg.Scraper.WaitTimeout = 5 * time.Minute
	}
	if cfg.Scraper.PollInterval == 0 {
		cfg.Scraper.PollInterval = 5 * time.Second
	}
	if cfg.Scraper.PageSize == 0 {
		cfg.Scraper.PageSize = 500
	}
	if cfg.Scraper.RateLimit == 0 {
		cfg.Scraper.RateLimit = 2.0
	}
	if cfg.Scraper.RateBurst == 0 {
		cfg.Scraper.RateBurst = 5
	}

	if cfg.Resolver.Timeout == 0 {
		cfg.Resolver.Timeout = 60 * time.Second
	}
	if cfg.Resolver.Workers == 0 {
		cfg.Resolver.Workers = 4
	}
	if cfg.Resolver.RateLimit == 0 {
		cfg.Resolver.RateLimit = 1.0
	}
	if cfg.Resolver.SessionFile == "" {
		cfg.Resolver.SessionFile = ".viralpipe-session.json"
	}
	if cfg.Resolver.Login != nil && cfg.Resolver.Login.Timeout == 0 {
		cfg.Resolver.Login.Timeout = 2 * time.Minute
	}

	if cfg.Analyzer.Model == "" {
		cfg.Analyzer.Model = "gemini-2.5-flash"
	}
	if cfg.Analyzer.MaxOutputTokens == 0 {
		cfg.Analyzer.MaxOutputTokens = 8192
	}
	if cfg.Analyzer.PollInterval == 0 {
		cfg.Analyzer.PollInterval = 5 * time.Second
	}
	if cfg.Analyzer.Timeout == 0 {
		cfg.Analyzer.Timeout = 10 * time.Minute
	}
	if cfg.Analyzer.Workers == 0 {
		cfg.Analyzer.Workers = 2
	}

	if cfg.Retry.MaxRetries == 0 && cfg.Retry.BaseDelay == 0 {
		cfg.Retry = errors.DefaultRetryConfig()
	}

	if cfg.Monitoring.Address == "" {
		cfg.Monitoring.Address = ":9090"
	}
}

// SaveToFile saves configuration to a YAML file.
func SaveToFile(cfg *PipelineConfig, filename string) error {
	if cfg == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	return nil
}
