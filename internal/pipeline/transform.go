// internal/pipeline/transform.go
package pipeline

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/socialpulse/viralpipe/internal/utils"
	"github.com/socialpulse/viralpipe/pkg/types"
)

// CoercionRule declares how one canonical field is coerced after mapping.
// Vendors disagree on scalar encodings (counts as strings with separators,
// half a dozen timestamp formats), so coercion is declarative per field
// rather than scattered through downstream stages.
type CoercionRule struct {
	Field   string   `yaml:"field" json:"field"`
	Type    string   `yaml:"type" json:"type"`
	Formats []string `yaml:"formats,omitempty" json:"formats,omitempty"`
}

// CoercionList is an ordered list of coercion rules applied to each record.
type CoercionList []CoercionRule

// timestampFormats are tried in order when a rule declares no formats.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// DefaultCoercions returns the coercion rules for the canonical schema:
// numeric engagement counts, RFC3339 timestamps, cleaned caption text.
func DefaultCoercions() CoercionList {
	return CoercionList{
		{Field: types.FieldViews, Type: "number"},
		{Field: types.FieldLikes, Type: "number"},
		{Field: types.FieldComments, Type: "number"},
		{Field: types.FieldDuration, Type: "number"},
		{Field: types.FieldPostedAt, Type: "timestamp"},
		{Field: types.FieldCaption, Type: "clean_text"},
	}
}

// Validate checks that every rule names a canonical field and a known type.
func (cl CoercionList) Validate() error {
	for i, rule := range cl {
		if !types.IsCanonicalField(rule.Field) {
			return fmt.Errorf("coercion rule %d: %q is not a canonical field", i, rule.Field)
		}
		switch rule.Type {
		case "number", "timestamp", "clean_text":
		default:
			return fmt.Errorf("coercion rule %d: unknown coercion type %q", i, rule.Type)
		}
	}
	return nil
}

// Apply coerces the declared fields of each record in place and returns the
// batch. Values that cannot be coerced are removed rather than carried
// forward in a shape downstream stages cannot rely on; the record itself is
// kept. Absent fields stay absent.
func (cl CoercionList) Apply(records []types.Record) []types.Record {
	for _, rec := range records {
		for _, rule := range cl {
			value, ok := rec[rule.Field]
			if !ok {
				continue
			}
			coerced, ok := rule.coerce(value)
			if !ok {
				delete(rec, rule.Field)
				continue
			}
			rec[rule.Field] = coerced
		}
	}
	return records
}

// coerce converts a single value according to the rule type.
func (r CoercionRule) coerce(value interface{}) (interface{}, bool) {
	switch r.Type {
	case "number":
		f, ok := utils.CoerceFloat(value)
		if !ok {
			return nil, false
		}
		return f, true

	case "timestamp":
		s, ok := value.(string)
		if !ok {
			if t, isTime := value.(time.Time); isTime {
				return t.UTC().Format(time.RFC3339), true
			}
			return nil, false
		}
		formats := r.Formats
		if len(formats) == 0 {
			formats = timestampFormats
		}
		s = strings.TrimSpace(s)
		for _, layout := range formats {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC().Format(time.RFC3339), true
			}
		}
		return nil, false

	case "clean_text":
		s, ok := value.(string)
		if !ok {
			return nil, false
		}
		return CleanText(s), true
	}
	return nil, false
}

// CleanText normalizes caption text: NFC unicode normalization, control
// characters stripped, whitespace runs collapsed to single spaces.
func CleanText(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
