package indexing

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/sevgi-app/memoir/pkg/analysis"
	"github.com/sevgi-app/memoir/pkg/chatlog"
	"github.com/sevgi-app/memoir/pkg/util"
)

// personalities come back as an array because strict response schemas
// cannot express free-form object keys; we re-key by speaker name.
type masterAnalysisSchema struct {
	ShortSummary  string `json:"shortSummary"`
	Personalities []struct {
		Name               string   `json:"name"`
		Traits             []string `json:"traits"`
		CommunicationStyle string   `json:"communicationStyle"`
		EmotionalPattern   string   `json:"emotionalPattern"`
	} `json:"personalities"`
	Dynamics Dynamics `json:"dynamics"`
	Patterns Patterns `json:"patterns"`
	Timeline Timeline `json:"timeline"`
}

var masterSchema = analysis.GenerateSchema[masterAnalysisSchema]()

// BuildMasterSummary aggregates all chunk entries plus a message sample
// into the relationship-wide summary. Like IndexChunk it degrades to a
// minimal summary instead of returning an error.
func (ix *Indexer) BuildMasterSummary(ctx context.Context, entries []ChunkIndexEntry, messages []chatlog.Message, speakers []string) MasterSummary {
	fallback := minimalMasterSummary(len(messages), speakers)

	var summaries strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&summaries, "%s: %s\n", e.DateRange, e.Summary)
	}

	prompt := fmt.Sprintf(masterPromptTemplate,
		strings.Join(speakers, " and "), len(messages), len(entries),
		summaries.String(), sampleMessages(messages, ix.cfg.Analysis.Master.SampleSize, ix.cfg.Analysis.Master.SampleMsgChars))

	raw, err := ix.llm.Complete(ctx, analysis.Request{
		System:      masterSystemPrompt,
		Prompt:      prompt,
		Temperature: ix.cfg.Analysis.Master.Temperature,
		MaxTokens:   ix.cfg.Analysis.Master.MaxTokens,
		SchemaName:  "master_summary",
		Schema:      masterSchema,
	})
	if err != nil {
		log.Warn().Err(err).Msg("master summary analysis failed, keeping minimal summary")
		return fallback
	}

	doc, err := analysis.ExtractJSON(raw)
	if err != nil {
		log.Warn().Err(err).Msg("master summary returned invalid JSON, keeping minimal summary")
		return fallback
	}
	return parseMasterSummary(doc, fallback)
}

func minimalMasterSummary(messageCount int, speakers []string) MasterSummary {
	profiles := make(map[string]SpeakerProfile, len(speakers))
	for _, s := range speakers {
		profiles[s] = SpeakerProfile{Traits: []string{}}
	}
	return MasterSummary{
		ShortSummary:  fmt.Sprintf("%d messages between %s.", messageCount, strings.Join(speakers, " and ")),
		Personalities: profiles,
		Dynamics:      Dynamics{LoveLanguages: []string{}},
		Patterns: Patterns{
			RecurringIssues: []string{},
			Strengths:       []string{},
			RedFlags:        []string{},
			GreenFlags:      []string{},
		},
		Timeline: Timeline{Phases: []Phase{}},
	}
}

func parseMasterSummary(doc gjson.Result, fallback MasterSummary) MasterSummary {
	ms := fallback
	ms.ShortSummary = analysis.StringOr(doc, "shortSummary", ms.ShortSummary)

	doc.Get("personalities").ForEach(func(_, item gjson.Result) bool {
		name := strings.TrimSpace(item.Get("name").String())
		if name == "" {
			return true
		}
		ms.Personalities[name] = SpeakerProfile{
			Traits:             analysis.StringSlice(item, "traits"),
			CommunicationStyle: item.Get("communicationStyle").String(),
			EmotionalPattern:   item.Get("emotionalPattern").String(),
		}
		return true
	})

	ms.Dynamics = Dynamics{
		PowerBalance:      analysis.StringOr(doc, "dynamics.powerBalance", ""),
		AttachmentPattern: analysis.StringOr(doc, "dynamics.attachmentPattern", ""),
		ConflictStyle:     analysis.StringOr(doc, "dynamics.conflictStyle", ""),
		LoveLanguages:     analysis.StringSlice(doc, "dynamics.loveLanguages"),
	}
	ms.Patterns = Patterns{
		RecurringIssues: analysis.StringSlice(doc, "patterns.recurringIssues"),
		Strengths:       analysis.StringSlice(doc, "patterns.strengths"),
		RedFlags:        analysis.StringSlice(doc, "patterns.redFlags"),
		GreenFlags:      analysis.StringSlice(doc, "patterns.greenFlags"),
	}

	phases := []Phase{}
	doc.Get("timeline.phases").ForEach(func(_, item gjson.Result) bool {
		phases = append(phases, Phase{
			Name:        item.Get("name").String(),
			Period:      item.Get("period").String(),
			Description: item.Get("description").String(),
		})
		return true
	})
	ms.Timeline = Timeline{Phases: phases}
	return ms
}

// sampleMessages picks an evenly strided sample across the whole log so
// the model sees early, middle and late conversation alike.
func sampleMessages(messages []chatlog.Message, sampleSize, maxChars int) string {
	stride := 1
	if len(messages) > sampleSize {
		stride = len(messages) / sampleSize
	}
	var b strings.Builder
	for i := 0; i < len(messages); i += stride {
		m := messages[i]
		fmt.Fprintf(&b, "%s: %s\n", m.Sender, util.TruncateExact(m.Content, maxChars))
	}
	return b.String()
}
