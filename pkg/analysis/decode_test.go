package analysis

import (
	"testing"
)

func TestExtractJSONStripsFences(t *testing.T) {
	raw := "Here is the analysis:\n```json\n{\"summary\": \"kavga ettiler\"}\n```\nHope this helps."

	doc, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if got := doc.Get("summary").String(); got != "kavga ettiler" {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestExtractJSONRejectsGarbage(t *testing.T) {
	tests := []string{
		"no json here at all",
		"{broken",
		"{\"a\": }",
	}
	for _, raw := range tests {
		if _, err := ExtractJSON(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestStringSliceSkipsNonStrings(t *testing.T) {
	doc, err := ExtractJSON(`{"keywords": ["tatil", 42, "", "kavga"]}`)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	got := StringSlice(doc, "keywords")
	if len(got) != 2 || got[0] != "tatil" || got[1] != "kavga" {
		t.Fatalf("unexpected slice: %v", got)
	}
}

func TestStringOrDefaults(t *testing.T) {
	doc, err := ExtractJSON(`{"present": "value", "number": 7, "empty": ""}`)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	tests := []struct {
		path string
		want string
	}{
		{"present", "value"},
		{"number", "fallback"},
		{"empty", "fallback"},
		{"missing", "fallback"},
	}
	for _, tt := range tests {
		if got := StringOr(doc, tt.path, "fallback"); got != tt.want {
			t.Fatalf("StringOr(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
