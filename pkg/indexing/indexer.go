// Package indexing turns raw conversation chunks into searchable index
// entries and builds the relationship-wide master summary. All model
// calls go through analysis.Completer; when a call fails the indexer
// degrades to a metadata-only entry instead of failing the upload.
package indexing

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/sevgi-app/memoir/pkg/analysis"
	"github.com/sevgi-app/memoir/pkg/chunking"
	"github.com/sevgi-app/memoir/pkg/memconfig"
)

type chunkAnalysisSchema struct {
	Keywords  []string       `json:"keywords"`
	Topics    []string       `json:"topics"`
	Sentiment string         `json:"sentiment"`
	Summary   string         `json:"summary"`
	Anchors   []anchorSchema `json:"anchors"`
}

type anchorSchema struct {
	Type    string `json:"type"`
	Quote   string `json:"quote"`
	Context string `json:"context"`
}

var chunkSchema = analysis.GenerateSchema[chunkAnalysisSchema]()

// Indexer analyzes chunks and aggregates in one place so both share the
// same model client and config.
type Indexer struct {
	cfg *memconfig.Config
	llm analysis.Completer
}

func NewIndexer(cfg *memconfig.Config, llm analysis.Completer) *Indexer {
	return &Indexer{cfg: cfg, llm: llm}
}

// IndexChunk produces the index entry for a chunk. It never fails: when
// the model call or its output is unusable, the entry keeps the
// deterministic metadata and a generated placeholder summary.
func (ix *Indexer) IndexChunk(ctx context.Context, chunk chunking.Chunk) ChunkIndexEntry {
	entry := fallbackEntry(chunk)

	sample := sampleForAnalysis(chunk.RawText, ix.cfg.Analysis.Chunk.SampleChars)
	prompt := fmt.Sprintf(chunkPromptTemplate,
		strings.Join(chunk.Speakers, " and "), chunk.DateRange, len(chunk.Messages), sample)

	raw, err := ix.llm.Complete(ctx, analysis.Request{
		System:      chunkSystemPrompt,
		Prompt:      prompt,
		Temperature: ix.cfg.Analysis.Chunk.Temperature,
		MaxTokens:   ix.cfg.Analysis.Chunk.MaxTokens,
		SchemaName:  "chunk_analysis",
		Schema:      chunkSchema,
	})
	if err != nil {
		log.Warn().Err(err).Str("chunk", chunk.ID).Msg("chunk analysis failed, keeping fallback entry")
		return entry
	}

	doc, err := analysis.ExtractJSON(raw)
	if err != nil {
		log.Warn().Err(err).Str("chunk", chunk.ID).Msg("chunk analysis returned invalid JSON, keeping fallback entry")
		return entry
	}

	entry.Keywords = analysis.StringSlice(doc, "keywords")
	entry.Topics = analysis.StringSlice(doc, "topics")
	entry.Sentiment = normalizeSentiment(doc.Get("sentiment").String())
	entry.Summary = analysis.StringOr(doc, "summary", entry.Summary)
	entry.Anchors = parseAnchors(doc)
	return entry
}

func fallbackEntry(chunk chunking.Chunk) ChunkIndexEntry {
	return ChunkIndexEntry{
		ChunkID:      chunk.ID,
		DateRange:    chunk.DateRange,
		StartDate:    chunk.StartDate,
		EndDate:      chunk.EndDate,
		MessageCount: len(chunk.Messages),
		Speakers:     chunk.Speakers,
		Keywords:     []string{},
		Topics:       []string{},
		Sentiment:    "neutral",
		Summary:      fmt.Sprintf("%d messages, %s", len(chunk.Messages), chunk.DateRange),
		Anchors:      []Anchor{},
	}
}

var validSentiments = map[string]bool{
	"positive": true,
	"negative": true,
	"neutral":  true,
	"mixed":    true,
}

func normalizeSentiment(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if !validSentiments[s] {
		return "neutral"
	}
	return s
}

func parseAnchors(doc gjson.Result) []Anchor {
	anchors := []Anchor{}
	doc.Get("anchors").ForEach(func(_, item gjson.Result) bool {
		typ := strings.ToLower(strings.TrimSpace(item.Get("type").String()))
		if typ == "love" {
			typ = "affection"
		}
		quote := strings.TrimSpace(item.Get("quote").String())
		if !AnchorTypes[typ] || quote == "" {
			return true
		}
		anchors = append(anchors, Anchor{
			Type:    typ,
			Quote:   quote,
			Context: strings.TrimSpace(item.Get("context").String()),
		})
		return true
	})
	return anchors
}

// sampleForAnalysis bounds the text sent to the model. Long chunks are
// reduced to head, middle and tail slices so the analysis still sees how
// the period started, developed and ended.
func sampleForAnalysis(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	third := maxChars / 3
	mid := len(runes) / 2
	parts := []string{
		string(runes[:third]),
		string(runes[mid-third/2 : mid+third/2]),
		string(runes[len(runes)-third:]),
	}
	return strings.Join(parts, "\n\n[...]\n\n")
}
