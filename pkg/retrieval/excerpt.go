package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sevgi-app/memoir/pkg/analysis"
	"github.com/sevgi-app/memoir/pkg/util"
)

const excerptSystemPrompt = `You extract the passages of a chat transcript that are relevant to a question. Copy messages exactly as written, including the "[date] sender:" prefixes. Never alter, summarize inside, or invent messages. Separate passages with a line containing [...].`

const excerptPromptTemplate = `Question: %s

Transcript:
%s

Return only the relevant passages, verbatim.`

// excerptChunk returns the chunk text to quote. Short chunks go out
// verbatim; long ones are compressed by the model to the passages
// relevant to the query, falling back to a plain prefix when the model
// is unavailable.
func (s *Service) excerptChunk(ctx context.Context, raw, query string) string {
	if len([]rune(raw)) <= s.cfg.Retrieval.VerbatimMaxChars {
		return raw
	}

	input := util.TruncateExact(raw, s.cfg.Analysis.Excerpt.InputChars)
	out, err := s.llm.Complete(ctx, analysis.Request{
		System:      excerptSystemPrompt,
		Prompt:      fmt.Sprintf(excerptPromptTemplate, query, input),
		Temperature: s.cfg.Analysis.Excerpt.Temperature,
		MaxTokens:   s.cfg.Analysis.Excerpt.MaxTokens,
	})
	if err != nil || strings.TrimSpace(out) == "" {
		log.Warn().Err(err).Msg("excerpt call failed, falling back to transcript prefix")
		return util.TruncateExact(raw, s.cfg.Retrieval.FallbackChars) + "\n[...]"
	}
	return strings.TrimSpace(out)
}
