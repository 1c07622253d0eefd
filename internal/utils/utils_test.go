// internal/utils/utils_test.go
package utils

import (
	"testing"
)

func TestExtractShortcode(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		expected    string
		expectError bool
	}{
		{
			name:     "reel URL with trailing slash",
			url:      "https://www.instagram.com/reel/C8mtEPSp4b8/",
			expected: "C8mtEPSp4b8",
		},
		{
			name:     "post URL without trailing slash",
			url:      "https://www.instagram.com/p/C8mtEPSp4b8",
			expected: "C8mtEPSp4b8",
		},
		{
			name:     "username-prefixed reel URL",
			url:      "https://www.instagram.com/catmums/reel/DAbCdEfGh12/",
			expected: "DAbCdEfGh12",
		},
		{
			name:     "bare shortcode path",
			url:      "https://example.com/XYZ123",
			expected: "XYZ123",
		},
		{
			name:        "empty URL",
			url:         "",
			expectError: true,
		},
		{
			name:        "no path",
			url:         "https://www.instagram.com/",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractShortcode(tt.url)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error for %q, got shortcode %q", tt.url, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("ExtractShortcode(%q) = %q, want %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestCoerceFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected float64
		ok       bool
	}{
		{"float64", float64(12.5), 12.5, true},
		{"int", 42, 42, true},
		{"int64", int64(7), 7, true},
		{"plain string", "123", 123, true},
		{"string with separators", "12,345", 12345, true},
		{"string with spaces", "  98 ", 98, true},
		{"non-numeric string", "cats", 0, false},
		{"empty string", "", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceFloat(tt.input)
			if ok != tt.ok {
				t.Fatalf("CoerceFloat(%v) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.expected {
				t.Errorf("CoerceFloat(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{"nil", nil, ""},
		{"string", "abc", "abc"},
		{"int", 5, "5"},
		{"float", 1.25, "1.25"},
		{"bool", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.input); got != tt.expected {
				t.Errorf("FormatValue(%v) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
