package retrieval

import (
	"sort"
	"strings"

	"github.com/sevgi-app/memoir/pkg/indexing"
	"github.com/sevgi-app/memoir/pkg/memconfig"
	"github.com/sevgi-app/memoir/pkg/util"
)

// ScoredChunk pairs an index entry with its relevance score. Matches
// lists which signals fired, useful for logging and tests.
type ScoredChunk struct {
	Entry   indexing.ChunkIndexEntry
	Score   float64
	Matches []string
}

// ScoreChunks ranks index entries against a plan by additive weighted
// signals: date overlap and containment dominate, keyword hits beat
// topic hits, summary hits are a weak tiebreaker. Each signal class
// contributes at most once per entry no matter how many terms hit it,
// so a text-only match (3+2+1) can never outrank a date overlap (10).
// Entries that match nothing are dropped; the rest are returned best
// first, capped at topK.
func ScoreChunks(entries []indexing.ChunkIndexEntry, plan Plan, terms []string, cfg memconfig.RetrievalConfig) []ScoredChunk {
	w := cfg.Weights
	foldedQuery := util.FoldTurkish(plan.Query)

	var scored []ScoredChunk
	for _, e := range entries {
		sc := ScoredChunk{Entry: e}

		if plan.DateHint != nil {
			h := plan.DateHint
			if !e.StartDate.After(h.End) && !e.EndDate.Before(h.Start) {
				sc.Score += w.DateOverlap
				sc.Matches = append(sc.Matches, "date_overlap")
				if !h.Start.Before(e.StartDate) && !h.End.After(e.EndDate) {
					sc.Score += w.DateContainment
					sc.Matches = append(sc.Matches, "date_containment")
				}
			}
		} else if matchesDateRangeText(foldedQuery, e.DateRange) {
			sc.Score += w.LegacyDateText
			sc.Matches = append(sc.Matches, "date_text")
		}

		if term := firstMatch(terms, func(t string) bool { return matchesAnyKeyword(t, e.Keywords) }); term != "" {
			sc.Score += w.Keyword
			sc.Matches = append(sc.Matches, "keyword:"+term)
		}
		if term := firstMatch(terms, func(t string) bool { return matchesAnyKeyword(t, e.Topics) }); term != "" {
			sc.Score += w.Topic
			sc.Matches = append(sc.Matches, "topic:"+term)
		}
		foldedSummary := util.FoldTurkish(e.Summary)
		if term := firstMatch(terms, func(t string) bool { return strings.Contains(foldedSummary, t) }); term != "" {
			sc.Score += w.Summary
			sc.Matches = append(sc.Matches, "summary:"+term)
		}

		if sc.Score > 0 {
			scored = append(scored, sc)
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Entry.ChunkID < scored[j].Entry.ChunkID
	})

	if cfg.TopK > 0 && len(scored) > cfg.TopK {
		scored = scored[:cfg.TopK]
	}
	return scored
}

// firstMatch returns the first term satisfying match, or "".
func firstMatch(terms []string, match func(string) bool) string {
	for _, t := range terms {
		if match(t) {
			return t
		}
	}
	return ""
}

// matchesAnyKeyword is a bidirectional substring check so "tatil"
// matches the keyword "tatil plani" and vice versa.
func matchesAnyKeyword(term string, keywords []string) bool {
	for _, kw := range keywords {
		folded := util.FoldTurkish(kw)
		if strings.Contains(folded, term) || strings.Contains(term, folded) {
			return true
		}
	}
	return false
}

// matchesDateRangeText keeps the old behavior of matching literal date
// strings ("15.03.2023") that slipped past the date parser.
func matchesDateRangeText(foldedQuery, dateRange string) bool {
	for _, part := range strings.Split(dateRange, " - ") {
		part = strings.TrimSpace(part)
		if part != "" && strings.Contains(foldedQuery, part) {
			return true
		}
	}
	return false
}
