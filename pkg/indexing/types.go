package indexing

import "time"

// Anchor is a notable moment inside a chunk, pinned to a short quote so
// it can be surfaced verbatim later.
type Anchor struct {
	Type    string `json:"type"`
	Quote   string `json:"quote"`
	Context string `json:"context,omitempty"`
}

// AnchorTypes is the closed set of anchor categories. Anything else
// coming back from the model is discarded.
var AnchorTypes = map[string]bool{
	"conflict":  true,
	"affection": true,
	"apology":   true,
	"plan":      true,
	"memory":    true,
	"milestone": true,
}

// ChunkIndexEntry is the searchable metadata for one chunk. The raw
// conversation text lives in the blob store under StoragePath; the
// entry itself stays small enough to scan in full on every query.
type ChunkIndexEntry struct {
	ChunkID      string    `json:"chunkId"`
	DateRange    string    `json:"dateRange"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	MessageCount int       `json:"messageCount"`
	Speakers     []string  `json:"speakers"`
	Keywords     []string  `json:"keywords"`
	Topics       []string  `json:"topics"`
	Sentiment    string    `json:"sentiment"`
	Summary      string    `json:"summary"`
	Anchors      []Anchor  `json:"anchors"`
	StoragePath  string    `json:"storagePath"`
}

// SpeakerProfile describes one participant as seen across the whole log.
type SpeakerProfile struct {
	Traits             []string `json:"traits"`
	CommunicationStyle string   `json:"communicationStyle"`
	EmotionalPattern   string   `json:"emotionalPattern"`
}

// Dynamics captures how the two participants relate to each other.
type Dynamics struct {
	PowerBalance      string   `json:"powerBalance"`
	AttachmentPattern string   `json:"attachmentPattern"`
	ConflictStyle     string   `json:"conflictStyle"`
	LoveLanguages     []string `json:"loveLanguages"`
}

// Patterns lists recurring behaviours worth flagging to an advisor.
type Patterns struct {
	RecurringIssues []string `json:"recurringIssues"`
	Strengths       []string `json:"strengths"`
	RedFlags        []string `json:"redFlags"`
	GreenFlags      []string `json:"greenFlags"`
}

// Phase is one stage of the relationship timeline.
type Phase struct {
	Name        string `json:"name"`
	Period      string `json:"period"`
	Description string `json:"description"`
}

// Timeline orders the relationship's phases chronologically.
type Timeline struct {
	Phases []Phase `json:"phases"`
}

// MasterSummary is the relationship-wide aggregate kept alongside the
// per-chunk index. It is rebuilt on every upload.
type MasterSummary struct {
	ShortSummary  string                    `json:"shortSummary"`
	Personalities map[string]SpeakerProfile `json:"personalities"`
	Dynamics      Dynamics                  `json:"dynamics"`
	Patterns      Patterns                  `json:"patterns"`
	Timeline      Timeline                  `json:"timeline"`
}
