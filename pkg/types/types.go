// pkg/types/types.go

// Package types defines the shared data model for the viralpipe ETL pipeline:
// raw vendor records, the canonical normalized schema, column mappings, video
// assets, analysis results and run summaries.
package types

import (
	"fmt"
	"time"
)

// Canonical field names. Every key of a normalized record belongs to this set;
// vendor fields that do not map onto one of these never survive normalization.
const (
	FieldPostID     = "post_id"
	FieldPostURL    = "post_url"
	FieldMediaURL   = "media_url"
	FieldUsername   = "username"
	FieldCaption    = "caption"
	FieldViews      = "views"
	FieldLikes      = "likes"
	FieldComments   = "comments"
	FieldDuration   = "duration"
	FieldPostedAt   = "posted_at"
	FieldDatasetID  = "dataset_id"
	FieldIngestedAt = "ingested_at"
)

// Derived field names attached by downstream stages. They are part of the
// canonical schema for sink purposes but are never produced by the mapper.
const (
	FieldViral            = "viral"
	FieldEngagementScore  = "engagement_score"
	FieldResolutionMethod = "resolution_method"
	FieldVideoKey         = "video_key"
	FieldAnalysis         = "analysis"
	FieldViralityAnalysis = "virality_analysis"
	FieldAnalysisError    = "analysis_error"
)

// CanonicalFields returns the full canonical schema in sink column order.
func CanonicalFields() []string {
	return []string{
		FieldDatasetID, FieldIngestedAt,
		FieldPostID, FieldPostURL, FieldMediaURL, FieldUsername, FieldCaption,
		FieldViews, FieldLikes, FieldComments, FieldDuration, FieldPostedAt,
		FieldViral, FieldEngagementScore,
		FieldResolutionMethod, FieldVideoKey,
		FieldAnalysis, FieldViralityAnalysis, FieldAnalysisError,
	}
}

// IsCanonicalField reports whether name belongs to the canonical schema.
func IsCanonicalField(name string) bool {
	for _, f := range CanonicalFields() {
		if f == name {
			return true
		}
	}
	return false
}

// RawRecord is a single item as returned by the scraping backend. The vendor
// schema carries no guarantees beyond what the actor contract promises.
type RawRecord map[string]interface{}

// Record is a normalized record restricted to the canonical field set.
type Record map[string]interface{}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// GetString returns the named field as a string, or "" when absent or not a string.
func (r Record) GetString(field string) string {
	if v, ok := r[field].(string); ok {
		return v
	}
	return ""
}

// GetFloat returns the named field as a float64. The second return value
// reports whether the field was present and numeric.
func (r Record) GetFloat(field string) (float64, bool) {
	switch v := r[field].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// IsViral reports the classifier label, defaulting to false when unlabeled.
func (r Record) IsViral() bool {
	v, ok := r[FieldViral].(bool)
	return ok && v
}

// ColumnMapping maps raw vendor field names to canonical field names. A mapping
// is built once per platform and content type at pipeline construction and is
// the single source of truth for which raw fields survive normalization.
type ColumnMapping map[string]string

// Validate checks that every mapping target is a canonical field and that no
// two raw fields map onto the same canonical field.
func (m ColumnMapping) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("column mapping cannot be empty")
	}
	seen := make(map[string]string, len(m))
	for raw, canonical := range m {
		if raw == "" {
			return fmt.Errorf("column mapping contains an empty raw field name")
		}
		if !IsCanonicalField(canonical) {
			return fmt.Errorf("column mapping target %q for raw field %q is not a canonical field", canonical, raw)
		}
		if prev, dup := seen[canonical]; dup {
			return fmt.Errorf("raw fields %q and %q both map to canonical field %q", prev, raw, canonical)
		}
		seen[canonical] = raw
	}
	return nil
}

// ContentType tags a scraping config with the kind of content it targets.
// Ad content terminates the pipeline after classification; organic content
// continues through video resolution and analysis.
type ContentType string

const (
	ContentTypeAd      ContentType = "ad"
	ContentTypeOrganic ContentType = "organic"
)

// ValidContentTypes returns all valid content type values.
func ValidContentTypes() []ContentType {
	return []ContentType{ContentTypeAd, ContentTypeOrganic}
}

// IsValid checks if the content type is a valid value.
func (ct ContentType) IsValid() bool {
	for _, valid := range ValidContentTypes() {
		if ct == valid {
			return true
		}
	}
	return false
}

// ResolutionMethod records how a video asset was obtained.
type ResolutionMethod string

const (
	ResolutionDirect   ResolutionMethod = "direct"
	ResolutionFallback ResolutionMethod = "fallback"
	ResolutionFailed   ResolutionMethod = "unresolved"
)

// VideoAsset holds the bytes of a resolved video together with its provenance.
// An asset is associated with exactly one record via PostID and does not
// survive past the run unless uploaded to object storage.
type VideoAsset struct {
	PostID      string           `json:"post_id"`
	SourceURL   string           `json:"source_url"`
	Method      ResolutionMethod `json:"method"`
	ContentType string           `json:"content_type"`
	Data        []byte           `json:"-"`
	FetchedAt   time.Time        `json:"fetched_at"`
}

// Size returns the asset payload size in bytes.
func (a *VideoAsset) Size() int64 {
	return int64(len(a.Data))
}

// AnalysisResult is the output of the external AI content analysis for a
// single video asset.
type AnalysisResult struct {
	PostID      string    `json:"post_id"`
	Model       string    `json:"model"`
	Breakdown   string    `json:"breakdown"`
	Virality    string    `json:"virality"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Stage identifies a pipeline stage for failure accounting and metrics.
type Stage string

const (
	StageScrape    Stage = "scrape"
	StageNormalize Stage = "normalize"
	StageClassify  Stage = "classify"
	StageResolve   Stage = "resolve"
	StageAnalyze   Stage = "analyze"
	StageWrite     Stage = "write"
)

// RunSummary aggregates per-stage counts for one pipeline run.
type RunSummary struct {
	StartedAt        time.Time        `json:"started_at"`
	FinishedAt       time.Time        `json:"finished_at"`
	ConfigsProcessed int              `json:"configs_processed"`
	Scraped          int              `json:"scraped"`
	Normalized       int              `json:"normalized"`
	Viral            int              `json:"viral"`
	ResolvedDirect   int              `json:"resolved_direct"`
	ResolvedFallback int              `json:"resolved_fallback"`
	Unresolved       int              `json:"unresolved"`
	Analyzed         int              `json:"analyzed"`
	AnalysisFailed   int              `json:"analysis_failed"`
	Written          map[string]int   `json:"written"`
	FailedByStage    map[Stage]int    `json:"failed_by_stage"`
}

// NewRunSummary returns an empty run summary with initialized counters.
func NewRunSummary() *RunSummary {
	return &RunSummary{
		StartedAt:     time.Now(),
		Written:       make(map[string]int),
		FailedByStage: make(map[Stage]int),
	}
}

// RecordFailure counts one per-record failure against the given stage.
func (s *RunSummary) RecordFailure(stage Stage) {
	s.FailedByStage[stage]++
}

// Duration returns the total wall-clock duration of the run.
func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
