// internal/pipeline/classifier.go
package pipeline

import (
	"math"

	"github.com/socialpulse/viralpipe/pkg/types"
)

// Classifier labels normalized records as viral or not against a fixed set of
// per-metric minimums. Classification is per-record and batch-independent: a
// record's label depends only on its own fields and the configured
// thresholds, never on the other records in the batch.
type Classifier struct {
	thresholds map[string]float64
}

// NewClassifier builds a classifier from threshold minimums keyed by
// canonical metric name.
func NewClassifier(thresholds map[string]float64) *Classifier {
	t := make(map[string]float64, len(thresholds))
	for metric, min := range thresholds {
		t[metric] = min
	}
	return &Classifier{thresholds: t}
}

// IsViral reports whether a single record clears every configured threshold.
// A record is viral only when ALL threshold metrics are present, numeric and
// at or above their minimum. A missing or non-numeric metric fails safe to
// not-viral rather than guessing.
func (c *Classifier) IsViral(rec types.Record) bool {
	if len(c.thresholds) == 0 {
		return false
	}
	for metric, min := range c.thresholds {
		value, ok := rec.GetFloat(metric)
		if !ok || value < min {
			return false
		}
	}
	return true
}

// Classify labels every record in the batch in place, attaching the viral
// flag and an engagement score, and returns the count of viral records.
func (c *Classifier) Classify(records []types.Record) int {
	viral := 0
	for _, rec := range records {
		rec[types.FieldViral] = c.IsViral(rec)
		rec[types.FieldEngagementScore] = EngagementScore(rec)
		if rec.IsViral() {
			viral++
		}
	}
	return viral
}

// EngagementScore computes (likes + comments) / views as a percentage.
// Views are floored at one so records with zero or missing view counts
// produce a defined score instead of dividing by zero.
func EngagementScore(rec types.Record) float64 {
	likes, _ := rec.GetFloat(types.FieldLikes)
	comments, _ := rec.GetFloat(types.FieldComments)
	views, _ := rec.GetFloat(types.FieldViews)
	views = math.Max(views, 1)
	return (likes + comments) / views * 100
}
