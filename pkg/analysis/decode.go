package analysis

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractJSON isolates the outermost JSON object from model output,
// stripping markdown fences and any surrounding prose, and verifies it
// parses. Malformed output is a recoverable failure for the caller, not
// a crash.
func ExtractJSON(raw string) (gjson.Result, error) {
	s := strings.TrimSpace(raw)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return gjson.Result{}, fmt.Errorf("no JSON object in model output")
	}
	s = s[start : end+1]

	if !gjson.Valid(s) {
		return gjson.Result{}, fmt.Errorf("model output is not valid JSON")
	}
	return gjson.Parse(s), nil
}

// StringSlice reads a JSON array of strings at path, skipping non-string
// and empty elements. Missing paths yield nil.
func StringSlice(doc gjson.Result, path string) []string {
	arr := doc.Get(path).Array()
	if len(arr) == 0 {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if item.Type == gjson.String && item.Str != "" {
			out = append(out, item.Str)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// StringOr reads a string at path, falling back to def when missing or
// empty.
func StringOr(doc gjson.Result, path, def string) string {
	if v := doc.Get(path); v.Type == gjson.String && v.Str != "" {
		return v.Str
	}
	return def
}
