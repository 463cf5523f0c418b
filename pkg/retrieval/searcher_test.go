package retrieval

import (
	"testing"
	"time"

	"github.com/sevgi-app/memoir/pkg/indexing"
	"github.com/sevgi-app/memoir/pkg/memconfig"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.Local)
}

func entryFor(id string, startDay, endDay int) indexing.ChunkIndexEntry {
	return indexing.ChunkIndexEntry{
		ChunkID:   id,
		StartDate: day(startDay),
		EndDate:   day(endDay),
		DateRange: day(startDay).Format("02.01.2006") + " - " + day(endDay).Format("02.01.2006"),
	}
}

func TestScoreChunksDateOverlapAndContainment(t *testing.T) {
	cfg := memconfig.Default().Retrieval

	containing := entryFor("chunk_001", 1, 20)
	overlapping := entryFor("chunk_002", 14, 28)
	outside := entryFor("chunk_003", 25, 28)

	hint := &DateRange{Start: day(15), End: day(15).AddDate(0, 0, 1).Add(-time.Second)}
	plan := Plan{Needed: true, Query: "15 mart", DateHint: hint}

	scored := ScoreChunks([]indexing.ChunkIndexEntry{outside, overlapping, containing}, plan, nil, cfg)
	if len(scored) != 2 {
		t.Fatalf("expected 2 scored chunks, got %d", len(scored))
	}
	if scored[0].Entry.ChunkID != "chunk_001" {
		t.Fatalf("containing chunk should rank first, got %q", scored[0].Entry.ChunkID)
	}
	if scored[0].Score <= scored[1].Score {
		t.Fatalf("containment should outscore overlap: %v vs %v", scored[0].Score, scored[1].Score)
	}
}

func TestScoreChunksKeywordBeatsTopicBeatsSummary(t *testing.T) {
	cfg := memconfig.Default().Retrieval

	kw := entryFor("chunk_001", 1, 5)
	kw.Keywords = []string{"tatil planı"}
	topic := entryFor("chunk_002", 6, 10)
	topic.Topics = []string{"tatil"}
	summary := entryFor("chunk_003", 11, 15)
	summary.Summary = "Tatil hakkında konuştular."

	plan := Plan{Needed: true, Reason: "keyword_match", Query: "tatil"}
	scored := ScoreChunks([]indexing.ChunkIndexEntry{summary, topic, kw}, plan, []string{"tatil"}, cfg)

	if len(scored) != 3 {
		t.Fatalf("expected 3 scored chunks, got %d", len(scored))
	}
	if scored[0].Entry.ChunkID != "chunk_001" || scored[1].Entry.ChunkID != "chunk_002" {
		t.Fatalf("unexpected order: %q, %q, %q",
			scored[0].Entry.ChunkID, scored[1].Entry.ChunkID, scored[2].Entry.ChunkID)
	}
}

func TestScoreChunksTextSignalsCountOncePerClass(t *testing.T) {
	cfg := memconfig.Default().Retrieval

	rightPeriod := entryFor("chunk_001", 10, 20)
	wrongPeriod := entryFor("chunk_002", 1, 5)
	wrongPeriod.Keywords = []string{"tatil", "plaj", "otel", "deniz"}

	hint := &DateRange{Start: day(15), End: day(25)}
	plan := Plan{Needed: true, Query: "tatil plaj otel deniz", DateHint: hint}
	terms := []string{"tatil", "plaj", "otel", "deniz"}

	scored := ScoreChunks([]indexing.ChunkIndexEntry{wrongPeriod, rightPeriod}, plan, terms, cfg)
	if len(scored) != 2 {
		t.Fatalf("expected 2 scored chunks, got %d", len(scored))
	}
	if scored[0].Entry.ChunkID != "chunk_001" {
		t.Fatalf("date-overlapping chunk should rank first, got %q", scored[0].Entry.ChunkID)
	}
	if scored[1].Score != cfg.Weights.Keyword {
		t.Fatalf("four keyword hits should score as one: got %v, want %v", scored[1].Score, cfg.Weights.Keyword)
	}
}

func TestScoreChunksKeywordMatchIsBidirectionalAndFolded(t *testing.T) {
	cfg := memconfig.Default().Retrieval

	e := entryFor("chunk_001", 1, 5)
	e.Keywords = []string{"Kıskançlık"}

	plan := Plan{Needed: true, Query: "kiskanclik"}
	scored := ScoreChunks([]indexing.ChunkIndexEntry{e}, plan, []string{"kiskanclik"}, cfg)
	if len(scored) != 1 {
		t.Fatal("folded keyword should match")
	}
}

func TestScoreChunksDropsZeroScores(t *testing.T) {
	cfg := memconfig.Default().Retrieval

	e := entryFor("chunk_001", 1, 5)
	e.Keywords = []string{"tatil"}

	plan := Plan{Needed: true, Query: "iş stresi"}
	if scored := ScoreChunks([]indexing.ChunkIndexEntry{e}, plan, []string{"stresi"}, cfg); len(scored) != 0 {
		t.Fatalf("expected no matches, got %d", len(scored))
	}
}

func TestScoreChunksLegacyDateText(t *testing.T) {
	cfg := memconfig.Default().Retrieval

	e := entryFor("chunk_001", 1, 14)

	// No structured hint, but the query quotes a boundary date verbatim.
	plan := Plan{Needed: true, Query: "01.03.2024 civarında neler oldu"}
	scored := ScoreChunks([]indexing.ChunkIndexEntry{e}, plan, nil, cfg)
	if len(scored) != 1 || scored[0].Score != cfg.Weights.LegacyDateText {
		t.Fatalf("unexpected legacy scoring: %+v", scored)
	}
}

func TestScoreChunksTopKAndStableTieBreak(t *testing.T) {
	cfg := memconfig.Default().Retrieval
	cfg.TopK = 3

	var entries []indexing.ChunkIndexEntry
	for _, id := range []string{"chunk_004", "chunk_002", "chunk_001", "chunk_003", "chunk_005"} {
		e := entryFor(id, 1, 5)
		e.Keywords = []string{"tatil"}
		entries = append(entries, e)
	}

	plan := Plan{Needed: true, Query: "tatil"}
	scored := ScoreChunks(entries, plan, []string{"tatil"}, cfg)
	if len(scored) != 3 {
		t.Fatalf("expected topK=3 chunks, got %d", len(scored))
	}
	for i, want := range []string{"chunk_001", "chunk_002", "chunk_003"} {
		if scored[i].Entry.ChunkID != want {
			t.Fatalf("position %d: got %q, want %q", i, scored[i].Entry.ChunkID, want)
		}
	}
}
