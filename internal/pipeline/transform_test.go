// internal/pipeline/transform_test.go
package pipeline

import (
	"testing"

	"github.com/socialpulse/viralpipe/pkg/types"
)

func TestCoercionListApply(t *testing.T) {
	tests := []struct {
		name  string
		rec   types.Record
		check func(t *testing.T, rec types.Record)
	}{
		{
			name: "numeric string coerced",
			rec:  types.Record{types.FieldViews: "12,345"},
			check: func(t *testing.T, rec types.Record) {
				v, ok := rec.GetFloat(types.FieldViews)
				if !ok || v != 12345 {
					t.Errorf("views = %v, want 12345", rec[types.FieldViews])
				}
			},
		},
		{
			name: "uncoercible numeric removed",
			rec:  types.Record{types.FieldLikes: "lots"},
			check: func(t *testing.T, rec types.Record) {
				if _, ok := rec[types.FieldLikes]; ok {
					t.Errorf("likes should be removed, got %v", rec[types.FieldLikes])
				}
			},
		},
		{
			name: "timestamp normalized to RFC3339",
			rec:  types.Record{types.FieldPostedAt: "2026-08-01 12:30:00"},
			check: func(t *testing.T, rec types.Record) {
				if rec[types.FieldPostedAt] != "2026-08-01T12:30:00Z" {
					t.Errorf("posted_at = %v", rec[types.FieldPostedAt])
				}
			},
		},
		{
			name: "caption whitespace collapsed",
			rec:  types.Record{types.FieldCaption: "  cute\n\ncats\t!  "},
			check: func(t *testing.T, rec types.Record) {
				if rec[types.FieldCaption] != "cute cats !" {
					t.Errorf("caption = %q", rec[types.FieldCaption])
				}
			},
		},
		{
			name: "absent fields stay absent",
			rec:  types.Record{types.FieldPostID: "p1"},
			check: func(t *testing.T, rec types.Record) {
				if len(rec) != 1 {
					t.Errorf("record grew fields: %v", rec)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := DefaultCoercions().Apply([]types.Record{tt.rec})
			if len(out) != 1 {
				t.Fatalf("record count changed to %d", len(out))
			}
			tt.check(t, out[0])
		})
	}
}

func TestCoercionListValidate(t *testing.T) {
	if err := DefaultCoercions().Validate(); err != nil {
		t.Errorf("default coercions should validate: %v", err)
	}

	bad := CoercionList{{Field: "not_a_field", Type: "number"}}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for non-canonical field")
	}

	bad = CoercionList{{Field: types.FieldViews, Type: "uppercase"}}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown coercion type")
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"tabs\tand\nnewlines", "tabs and newlines"},
		{"  padded  ", "padded"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
