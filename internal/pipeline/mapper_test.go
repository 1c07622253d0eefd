// internal/pipeline/mapper_test.go
package pipeline

import (
	"testing"

	"github.com/socialpulse/viralpipe/pkg/types"
)

func TestNormalize(t *testing.T) {
	mapping := types.ColumnMapping{
		"videoUrl":  types.FieldMediaURL,
		"likeCount": types.FieldLikes,
		"viewCount": types.FieldViews,
	}

	tests := []struct {
		name string
		raw  types.RawRecord
		want types.Record
	}{
		{
			name: "unmapped fields dropped",
			raw: types.RawRecord{
				"videoUrl":  "http://example.com/v.mp4",
				"likeCount": 120,
				"viewCount": 10000,
				"caption":   "cats",
			},
			want: types.Record{
				types.FieldMediaURL: "http://example.com/v.mp4",
				types.FieldLikes:    120,
				types.FieldViews:    10000,
			},
		},
		{
			name: "missing mapped field omitted without default",
			raw: types.RawRecord{
				"videoUrl": "http://example.com/v.mp4",
			},
			want: types.Record{
				types.FieldMediaURL: "http://example.com/v.mp4",
			},
		},
		{
			name: "empty raw record yields empty record",
			raw:  types.RawRecord{},
			want: types.Record{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize([]types.RawRecord{tt.raw}, mapping)
			if len(got) != 1 {
				t.Fatalf("got %d records, want 1", len(got))
			}
			if len(got[0]) != len(tt.want) {
				t.Errorf("got %d fields, want %d: %v", len(got[0]), len(tt.want), got[0])
			}
			for k, v := range tt.want {
				if got[0][k] != v {
					t.Errorf("field %s = %v, want %v", k, got[0][k], v)
				}
			}
		})
	}
}

func TestNormalizePreservesOrder(t *testing.T) {
	mapping := types.ColumnMapping{"id": types.FieldPostID}
	raws := []types.RawRecord{
		{"id": "a"}, {"id": "b"}, {"id": "c"},
	}

	got := Normalize(raws, mapping)
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i][types.FieldPostID] != want {
			t.Errorf("record %d post_id = %v, want %s", i, got[i][types.FieldPostID], want)
		}
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	mapping := types.ColumnMapping{"viewCount": types.FieldViews}
	raw := types.RawRecord{"viewCount": 10, "extra": "x"}

	Normalize([]types.RawRecord{raw}, mapping)

	if len(raw) != 2 || raw["extra"] != "x" {
		t.Errorf("raw record mutated: %v", raw)
	}
}
