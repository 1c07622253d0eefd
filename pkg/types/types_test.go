// pkg/types/types_test.go
package types

import (
	"testing"
)

func TestIsCanonicalField(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		expected bool
	}{
		{"post id", FieldPostID, true},
		{"media url", FieldMediaURL, true},
		{"derived viral flag", FieldViral, true},
		{"vendor field", "videoPlayCount", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCanonicalField(tt.field); got != tt.expected {
				t.Errorf("IsCanonicalField(%q) = %v, want %v", tt.field, got, tt.expected)
			}
		})
	}
}

func TestColumnMappingValidate(t *testing.T) {
	tests := []struct {
		name        string
		mapping     ColumnMapping
		expectError bool
	}{
		{
			name:        "valid mapping",
			mapping:     ColumnMapping{"videoUrl": FieldMediaURL, "likeCount": FieldLikes},
			expectError: false,
		},
		{
			name:        "empty mapping",
			mapping:     ColumnMapping{},
			expectError: true,
		},
		{
			name:        "non-canonical target",
			mapping:     ColumnMapping{"videoUrl": "video_link"},
			expectError: true,
		},
		{
			name:        "duplicate target",
			mapping:     ColumnMapping{"likeCount": FieldLikes, "diggCount": FieldLikes},
			expectError: true,
		},
		{
			name:        "empty raw field",
			mapping:     ColumnMapping{"": FieldLikes},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mapping.Validate()
			if tt.expectError && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestRecordGetFloat(t *testing.T) {
	rec := Record{
		FieldViews:   float64(10000),
		FieldLikes:   120,
		FieldCaption: "cats",
	}

	if v, ok := rec.GetFloat(FieldViews); !ok || v != 10000 {
		t.Errorf("GetFloat(views) = %v, %v; want 10000, true", v, ok)
	}
	if v, ok := rec.GetFloat(FieldLikes); !ok || v != 120 {
		t.Errorf("GetFloat(likes) = %v, %v; want 120, true", v, ok)
	}
	if _, ok := rec.GetFloat(FieldCaption); ok {
		t.Error("GetFloat(caption) should not report a numeric value")
	}
	if _, ok := rec.GetFloat(FieldComments); ok {
		t.Error("GetFloat on absent field should report false")
	}
}

func TestRecordClone(t *testing.T) {
	rec := Record{FieldPostID: "abc", FieldViews: 5}
	clone := rec.Clone()

	clone[FieldViews] = 99
	if rec[FieldViews] == 99 {
		t.Error("mutating the clone must not affect the original record")
	}
	if clone[FieldPostID] != "abc" {
		t.Error("clone lost a field")
	}
}

func TestRunSummaryFailures(t *testing.T) {
	s := NewRunSummary()
	s.RecordFailure(StageResolve)
	s.RecordFailure(StageResolve)
	s.RecordFailure(StageAnalyze)

	if s.FailedByStage[StageResolve] != 2 {
		t.Errorf("resolve failures = %d, want 2", s.FailedByStage[StageResolve])
	}
	if s.FailedByStage[StageAnalyze] != 1 {
		t.Errorf("analyze failures = %d, want 1", s.FailedByStage[StageAnalyze])
	}
	if s.FailedByStage[StageWrite] != 0 {
		t.Errorf("write failures = %d, want 0", s.FailedByStage[StageWrite])
	}
}
