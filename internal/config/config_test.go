// internal/config/config_test.go
package config

import (
	"os"
	"strings"
	"testing"

	"github.com/socialpulse/viralpipe/internal/errors"
	"github.com/socialpulse/viralpipe/pkg/types"
)

const validYAML = `
name: cat_reels
version: "1.0"
description: Instagram cat reel viral analytics

scraping:
  - actor: apify/instagram-reel-scraper
    name: instagram_reels
    platform: instagram
    content_type: organic
    input:
      usernames: ["catmums"]
      resultsLimit: 50

mappings:
  instagram:
    id: post_id
    url: post_url
    videoUrl: media_url
    ownerUsername: username
    caption: caption
    videoPlayCount: views
    likesCount: likes
    commentsCount: comments
    videoDuration: duration
    timestamp: posted_at

thresholds:
  views: 5000

outputs:
  - format: json
    file: out/records.json
`

func TestLoadFromBytesValid(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Name != "cat_reels" {
		t.Errorf("name = %q, want cat_reels", cfg.Name)
	}
	if len(cfg.Scraping) != 1 {
		t.Fatalf("scraping configs = %d, want 1", len(cfg.Scraping))
	}
	if cfg.Scraping[0].ContentType != types.ContentTypeOrganic {
		t.Errorf("content type = %q, want organic", cfg.Scraping[0].ContentType)
	}

	mapping, ok := cfg.MappingFor("instagram")
	if !ok {
		t.Fatal("no mapping for instagram")
	}
	if mapping["videoUrl"] != types.FieldMediaURL {
		t.Errorf("videoUrl maps to %q, want media_url", mapping["videoUrl"])
	}
}

func TestLoadFromBytesAppliesDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Scraper.BaseURL == "" {
		t.Error("scraper base URL default not applied")
	}
	if cfg.Scraper.PageSize != 500 {
		t.Errorf("page size = %d, want 500", cfg.Scraper.PageSize)
	}
	if cfg.Resolver.Workers != 4 {
		t.Errorf("resolver workers = %d, want 4", cfg.Resolver.Workers)
	}
	if cfg.Analyzer.Model != "gemini-2.5-flash" {
		t.Errorf("analyzer model = %q, want gemini-2.5-flash", cfg.Analyzer.Model)
	}
	if cfg.Retry.MaxRetries == 0 {
		t.Error("retry policy default not applied")
	}
}

func TestLoadFromBytesExpandsEnvironment(t *testing.T) {
	os.Setenv("VIRALPIPE_TEST_TOKEN", "secret-token")
	defer os.Unsetenv("VIRALPIPE_TEST_TOKEN")

	yaml := strings.Replace(validYAML, "version: \"1.0\"",
		"version: \"1.0\"\nscraper:\n  api_token: ${VIRALPIPE_TEST_TOKEN}", 1)

	cfg, err := LoadFromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scraper.APIToken != "secret-token" {
		t.Errorf("api token = %q, want expanded env value", cfg.Scraper.APIToken)
	}
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PipelineConfig)
		field  string
	}{
		{
			name:   "missing name",
			mutate: func(c *PipelineConfig) { c.Name = "" },
			field:  "name",
		},
		{
			name:   "no scraping configs",
			mutate: func(c *PipelineConfig) { c.Scraping = nil },
			field:  "scraping",
		},
		{
			name: "unknown platform",
			mutate: func(c *PipelineConfig) {
				c.Scraping[0].Platform = "tiktok"
			},
			field: "platform",
		},
		{
			name: "invalid content type",
			mutate: func(c *PipelineConfig) {
				c.Scraping[0].ContentType = "promo"
			},
			field: "content_type",
		},
		{
			name: "non-canonical mapping target",
			mutate: func(c *PipelineConfig) {
				c.Mappings["instagram"]["videoUrl"] = "video_link"
			},
			field: "mappings",
		},
		{
			name: "non-canonical threshold metric",
			mutate: func(c *PipelineConfig) {
				c.Thresholds["play_count"] = 100
			},
			field: "thresholds",
		},
		{
			name: "negative threshold",
			mutate: func(c *PipelineConfig) {
				c.Thresholds[types.FieldViews] = -1
			},
			field: "thresholds",
		},
		{
			name: "no outputs",
			mutate: func(c *PipelineConfig) {
				c.Outputs = nil
			},
			field: "outputs",
		},
		{
			name: "json output without file",
			mutate: func(c *PipelineConfig) {
				c.Outputs[0].File = ""
			},
			field: "file",
		},
		{
			name: "postgres output without dsn",
			mutate: func(c *PipelineConfig) {
				c.Outputs = append(c.Outputs, OutputConfig{Format: "postgresql", Table: "silver"})
			},
			field: "dsn",
		},
		{
			name: "analyze without resolve",
			mutate: func(c *PipelineConfig) {
				c.Stages.Analyze = true
				c.Stages.Resolve = false
				c.Analyzer.APIKey = "k"
			},
			field: "stages.analyze",
		},
		{
			name: "analyze without api key",
			mutate: func(c *PipelineConfig) {
				c.Stages.Analyze = true
				c.Stages.Resolve = true
			},
			field: "api_key",
		},
		{
			name: "asset upload without s3 sink",
			mutate: func(c *PipelineConfig) {
				c.Stages.UploadAssets = true
			},
			field: "upload_assets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromBytes([]byte(validYAML))
			if err != nil {
				t.Fatalf("base config should be valid: %v", err)
			}

			tt.mutate(cfg)
			err = cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.IsConfig(err) {
				t.Errorf("error should be a ConfigError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not mention field %q", err.Error(), tt.field)
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile("does-not-exist.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadFromFile(""); err == nil {
		t.Error("expected error for empty filename")
	}
}

func TestLoadFromBytesMalformed(t *testing.T) {
	_, err := LoadFromBytes([]byte("name: [unclosed"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !errors.IsConfig(err) {
		t.Errorf("parse error should be a ConfigError, got %T", err)
	}
}

func TestGenerateTemplateValidates(t *testing.T) {
	tmpl := GenerateTemplate()
	if err := tmpl.Validate(); err != nil {
		t.Fatalf("template should validate cleanly: %v", err)
	}
	if _, ok := tmpl.MappingFor("instagram"); !ok {
		t.Error("template should carry an instagram mapping")
	}
	if len(tmpl.Outputs) == 0 {
		t.Error("template should configure at least one output")
	}
}
