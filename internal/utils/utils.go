// internal/utils/utils.go
package utils

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ExtractShortcode extracts the post shortcode from a social post URL.
// Both plain post URLs and /p/ or /reel/ paths are handled:
//
//	https://www.instagram.com/reel/C8mtEPSp4b8/ -> C8mtEPSp4b8
//	https://www.instagram.com/p/C8mtEPSp4b8     -> C8mtEPSp4b8
func ExtractShortcode(postURL string) (string, error) {
	if postURL == "" {
		return "", fmt.Errorf("post URL cannot be empty")
	}

	u, err := url.Parse(postURL)
	if err != nil {
		return "", fmt.Errorf("invalid post URL %q: %w", postURL, err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, part := range parts {
		if (part == "p" || part == "reel" || part == "reels") && i+1 < len(parts) {
			return parts[i+1], nil
		}
	}

	last := parts[len(parts)-1]
	if last == "" {
		return "", fmt.Errorf("post URL %q has no shortcode path segment", postURL)
	}
	return last, nil
}

// CoerceFloat converts a value of any common scalar type to a float64.
// Strings may carry thousands separators ("12,345"). The second return
// value reports whether the conversion succeeded.
func CoerceFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
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
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// FormatValue converts an arbitrary scalar to its string representation for
// tabular sinks. Nil becomes the empty string.
func FormatValue(value interface{}) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", value)
	}
}
