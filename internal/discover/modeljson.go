package discover

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/creatorscout/creatorscout/internal/followers"
)

// decodeObjects parses a model response expected to contain one JSON array of
// objects. Markdown code fences and surrounding prose are tolerated; the
// payload is bounded to the outermost [ ... ] before decoding.
func decodeObjects(raw string) ([]map[string]any, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}
	return out, nil
}

// stringField reads a text value, tolerating models that emit numbers where
// text was asked for. Empty and missing values report false.
func stringField(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10), true
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}

// boolField reads a flag, tolerating "yes"/"no"/"true"/"false" strings.
func boolField(m map[string]any, key string) (bool, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return false, false
	}
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "yes", "true", "y":
			return true, true
		case "no", "false", "n":
			return false, true
		}
	}
	return false, false
}

// intField reads a count, tolerating string digits with separators and
// magnitude suffixes ("50,000", "25K").
func intField(m map[string]any, key string) (int64, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		if t <= 0 {
			return 0, false
		}
		return int64(t), true
	case string:
		if n := followers.ParseHint(t); n > 0 {
			return n, true
		}
	}
	return 0, false
}

// listField reads a list of strings or an already comma-joined string,
// returning the canonical comma-joined form.
func listField(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, ", "), true
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	}
	return "", false
}
