package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sevgi-app/memoir/pkg/analysis"
	"github.com/sevgi-app/memoir/pkg/indexing"
	"github.com/sevgi-app/memoir/pkg/memconfig"
	"github.com/sevgi-app/memoir/pkg/store"
	"github.com/sevgi-app/memoir/pkg/util"
)

// DocumentReader is the slice of the document store retrieval needs.
type DocumentReader interface {
	ActiveRelationship(ctx context.Context, uid string) (*store.Relationship, error)
	ChunkEntries(ctx context.Context, uid, relationshipID string) ([]indexing.ChunkIndexEntry, error)
}

// BlobReader fetches raw chunk text by storage path.
type BlobReader interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// ChatContext is what the advice model receives before the user's
// message: the relationship profile, plus retrieved evidence when the
// message called for it.
type ChatContext struct {
	Context        string   `json:"context"`
	RelationshipID string   `json:"relationshipId"`
	Speakers       []string `json:"speakers"`
	HasRetrieval   bool     `json:"hasRetrieval"`
}

// Service assembles chat context for user messages.
type Service struct {
	cfg   *memconfig.Config
	docs  DocumentReader
	blobs BlobReader
	llm   analysis.Completer
	now   func() time.Time
}

func NewService(cfg *memconfig.Config, docs DocumentReader, blobs BlobReader, llm analysis.Completer) *Service {
	return &Service{cfg: cfg, docs: docs, blobs: blobs, llm: llm, now: time.Now}
}

// Context builds the context block for one user message. It returns
// (nil, nil) when the user has no active relationship; the caller
// decides what a memory-less chat looks like.
func (s *Service) Context(ctx context.Context, uid, userMessage string) (*ChatContext, error) {
	rec, err := s.docs.ActiveRelationship(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load active relationship: %w", err)
	}
	if rec == nil {
		return nil, nil
	}

	base := buildMasterContext(rec)
	out := &ChatContext{
		Context:        base,
		RelationshipID: rec.ID,
		Speakers:       rec.Speakers,
	}

	plan := DetectRetrievalNeed(userMessage, s.now())
	if !plan.Needed {
		return out, nil
	}

	entries, err := s.docs.ChunkEntries(ctx, uid, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk entries: %w", err)
	}

	terms := ExtractSearchTerms(plan.Query, s.cfg.Retrieval.MaxSearchTerms)
	scored := ScoreChunks(entries, plan, terms, s.cfg.Retrieval)

	log.Debug().
		Str("uid", uid).
		Str("query", util.Truncate(plan.Query, 80)).
		Str("reason", plan.Reason).
		Float64("confidence", plan.Confidence).
		Int("candidates", len(entries)).
		Int("matched", len(scored)).
		Msg("retrieval plan evaluated")

	if len(scored) == 0 {
		out.Context = base + noMatchSection(plan)
		return out, nil
	}

	top := scored[0]
	raw, err := s.blobs.Get(ctx, top.Entry.StoragePath)
	if err != nil {
		log.Warn().Err(err).Str("path", top.Entry.StoragePath).Msg("chunk blob missing, treating as no match")
		out.Context = base + noMatchSection(plan)
		return out, nil
	}

	out.Context = base + s.retrievedSection(ctx, scored, string(raw), plan)
	out.HasRetrieval = true
	return out, nil
}

// retrievedSection lists every matched period's summary and quotes the
// best match, verbatim when it fits and compressed otherwise.
func (s *Service) retrievedSection(ctx context.Context, scored []ScoredChunk, topRaw string, plan Plan) string {
	var b strings.Builder
	b.WriteString("\n\n=== RETRIEVED FROM CHAT HISTORY ===\n")
	fmt.Fprintf(&b, "Matched because: %s\n\n", plan.Reason)

	b.WriteString("Relevant periods:\n")
	for _, sc := range scored {
		fmt.Fprintf(&b, "- %s: %s\n", sc.Entry.DateRange, sc.Entry.Summary)
	}

	fmt.Fprintf(&b, "\nConversation from %s:\n%s\n", scored[0].Entry.DateRange,
		s.excerptChunk(ctx, topRaw, plan.Query))

	b.WriteString("\nWhen quoting from the conversation above, quote exactly as written. Never invent or paraphrase quotes as if they were verbatim.\n")
	return b.String()
}

func noMatchSection(plan Plan) string {
	var b strings.Builder
	b.WriteString("\n\n=== RETRIEVED FROM CHAT HISTORY ===\n")
	b.WriteString("[NO MATCHING PERIOD FOUND]\n")
	fmt.Fprintf(&b, "The user referred to the past (%s) but no period in the imported history matched. ", plan.Reason)
	b.WriteString("Say you could not find that moment and ask them to narrow it down, for example with a month and year.\n")
	return b.String()
}
