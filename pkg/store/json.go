package store

import (
	"encoding/json"

	"github.com/sevgi-app/memoir/pkg/indexing"
)

// parseStringArray parses a JSON array and keeps only non-empty string
// elements. Non-string elements are ignored to be tolerant of mixed-type
// arrays.
func parseStringArray(s string) []string {
	if s == "" {
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var str string
		if err := json.Unmarshal(item, &str); err == nil && str != "" {
			out = append(out, str)
		}
	}
	return out
}

func encodeStrings(values []string) string {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func parseAnchorArray(s string) []indexing.Anchor {
	if s == "" {
		return nil
	}
	var anchors []indexing.Anchor
	if err := json.Unmarshal([]byte(s), &anchors); err != nil {
		return nil
	}
	return anchors
}
