// internal/config/validation.go
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/socialpulse/viralpipe/internal/errors"
	"github.com/socialpulse/viralpipe/pkg/types"
)

// ValidationError represents a single validation problem.
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// validOutputFormats lists the supported sink formats.
var validOutputFormats = map[string]bool{
	"json":       true,
	"csv":        true,
	"excel":      true,
	"sqlite":     true,
	"postgresql": true,
	"mysql":      true,
	"mongodb":    true,
	"s3":         true,
}

// Validate checks the whole configuration. Any problem is fatal: the run
// aborts before a single external call is made, with no partial writes.
func (c *PipelineConfig) Validate() error {
	var errs []ValidationError

	c.validateBasics(&errs)
	c.validateScraping(&errs)
	c.validateMappings(&errs)
	c.validateThresholds(&errs)
	c.validateOutputs(&errs)
	c.validateStages(&errs)

	if len(errs) > 0 {
		return errors.NewConfig(errs[0].Field, fmt.Errorf("%s", formatValidationErrors(errs)))
	}
	return nil
}

func (c *PipelineConfig) validateBasics(errs *[]ValidationError) {
	if c.Name == "" {
		*errs = append(*errs, ValidationError{
			Field:   "name",
			Message: "pipeline name is required",
		})
	}

	if c.Scraper.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.Scraper.BaseURL); err != nil {
			*errs = append(*errs, ValidationError{
				Field:   "scraper.base_url",
				Value:   c.Scraper.BaseURL,
				Message: "must be a valid URL",
			})
		}
	}
}

func (c *PipelineConfig) validateScraping(errs *[]ValidationError) {
	if len(c.Scraping) == 0 {
		*errs = append(*errs, ValidationError{
			Field:   "scraping",
			Message: "at least one scraping config is required",
		})
		return
	}

	seen := make(map[string]bool, len(c.Scraping))
	for i, sc := range c.Scraping {
		field := fmt.Sprintf("scraping[%d]", i)

		if sc.Actor == "" {
			*errs = append(*errs, ValidationError{
				Field:   field + ".actor",
				Message: "actor identifier is required",
			})
		}
		if sc.Name == "" {
			*errs = append(*errs, ValidationError{
				Field:   field + ".name",
				Message: "config name is required",
			})
		} else if seen[sc.Name] {
			*errs = append(*errs, ValidationError{
				Field:   field + ".name",
				Value:   sc.Name,
				Message: "config names must be unique within a run",
			})
		} else {
			seen[sc.Name] = true
		}

		if sc.Platform == "" {
			*errs = append(*errs, ValidationError{
				Field:   field + ".platform",
				Message: "platform tag is required",
			})
		} else if _, ok := c.Mappings[sc.Platform]; !ok {
			*errs = append(*errs, ValidationError{
				Field:   field + ".platform",
				Value:   sc.Platform,
				Message: "no column mapping configured for this platform",
			})
		}

		if !sc.ContentType.IsValid() {
			*errs = append(*errs, ValidationError{
				Field:   field + ".content_type",
				Value:   string(sc.ContentType),
				Message: `content type must be "ad" or "organic"`,
			})
		}

		if sc.Limit < 0 {
			*errs = append(*errs, ValidationError{
				Field:   field + ".limit",
				Value:   fmt.Sprintf("%d", sc.Limit),
				Message: "limit cannot be negative",
			})
		}
	}
}

func (c *PipelineConfig) validateMappings(errs *[]ValidationError) {
	if len(c.Mappings) == 0 {
		*errs = append(*errs, ValidationError{
			Field:   "mappings",
			Message: "at least one platform column mapping is required",
		})
		return
	}

	for platform, mapping := range c.Mappings {
		if err := mapping.Validate(); err != nil {
			*errs = append(*errs, ValidationError{
				Field:   "mappings." + platform,
				Message: err.Error(),
			})
		}
	}
}

func (c *PipelineConfig) validateThresholds(errs *[]ValidationError) {
	if len(c.Thresholds) == 0 {
		*errs = append(*errs, ValidationError{
			Field:   "thresholds",
			Message: "at least one viral threshold is required",
		})
		return
	}

	for metric, min := range c.Thresholds {
		if !types.IsCanonicalField(metric) {
			*errs = append(*errs, ValidationError{
				Field:   "thresholds." + metric,
				Message: "threshold metric is not a canonical field",
			})
		}
		if min < 0 {
			*errs = append(*errs, ValidationError{
				Field:   "thresholds." + metric,
				Value:   fmt.Sprintf("%v", min),
				Message: "threshold cannot be negative",
			})
		}
	}
}

func (c *PipelineConfig) validateOutputs(errs *[]ValidationError) {
	if len(c.Outputs) == 0 {
		*errs = append(*errs, ValidationError{
			Field:   "outputs",
			Message: "at least one output sink is required",
		})
		return
	}

	for i, out := range c.Outputs {
		field := fmt.Sprintf("outputs[%d]", i)

		if !validOutputFormats[out.Format] {
			*errs = append(*errs, ValidationError{
				Field:   field + ".format",
				Value:   out.Format,
				Message: "unsupported output format",
			})
			continue
		}

		switch out.Format {
		case "json", "csv", "excel", "sqlite":
			if out.File == "" {
				*errs = append(*errs, ValidationError{
					Field:   field + ".file",
					Message: fmt.Sprintf("file path is required for %s output", out.Format),
				})
			}
			if out.Format == "sqlite" && out.Table == "" {
				*errs = append(*errs, ValidationError{
					Field:   field + ".table",
					Message: "table name is required for sqlite output",
				})
			}
		case "postgresql", "mysql":
			if out.DSN == "" {
				*errs = append(*errs, ValidationError{
					Field:   field + ".dsn",
					Message: fmt.Sprintf("connection string is required for %s output", out.Format),
				})
			}
			if out.Table == "" {
				*errs = append(*errs, ValidationError{
					Field:   field + ".table",
					Message: fmt.Sprintf("table name is required for %s output", out.Format),
				})
			}
		case "mongodb":
			if out.DSN == "" || out.Database == "" || out.Collection == "" {
				*errs = append(*errs, ValidationError{
					Field:   field,
					Message: "dsn, database and collection are required for mongodb output",
				})
			}
		case "s3":
			if out.Bucket == "" {
				*errs = append(*errs, ValidationError{
					Field:   field + ".bucket",
					Message: "bucket is required for s3 output",
				})
			}
		}
	}
}

func (c *PipelineConfig) validateStages(errs *[]ValidationError) {
	// Analysis runs on resolved assets only, so it implies resolution.
	if c.Stages.Analyze && !c.Stages.Resolve {
		*errs = append(*errs, ValidationError{
			Field:   "stages.analyze",
			Message: "analysis requires the resolve stage to be enabled",
		})
	}

	if c.Stages.Analyze && c.Analyzer.APIKey == "" {
		*errs = append(*errs, ValidationError{
			Field:   "analyzer.api_key",
			Message: "api key is required when the analyze stage is enabled",
		})
	}

	if c.Stages.UploadAssets {
		found := false
		for _, out := range c.Outputs {
			if out.Format == "s3" {
				found = true
				break
			}
		}
		if !found {
			*errs = append(*errs, ValidationError{
				Field:   "stages.upload_assets",
				Message: "asset upload requires an s3 output",
			})
		}
	}
}

// formatValidationErrors renders all problems into one message so a single
// validate run surfaces every mistake at once.
func formatValidationErrors(errs []ValidationError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "configuration validation failed with %d error(s):", len(errs))
	for _, e := range errs {
		b.WriteString("\n  - ")
		b.WriteString(e.Field)
		if e.Value != "" {
			fmt.Fprintf(&b, " (%s)", e.Value)
		}
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}
