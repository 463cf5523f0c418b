// Package retrieval decides when a user message needs evidence from the
// chat history, finds the relevant chunks by scoring index metadata, and
// assembles the final context block handed to the advice model. Scoring
// is deterministic; the only model call is excerpt compression.
package retrieval

import (
	"strings"
	"time"

	"github.com/sevgi-app/memoir/pkg/util"
)

// DateRange is an inclusive time window extracted from a user message.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Plan is the outcome of retrieval detection for one user message.
// DateHint may be nil even when Needed is true: vague references like
// "o gün" signal the past without pinning a window.
type Plan struct {
	Needed     bool
	Reason     string
	Query      string
	DateHint   *DateRange
	Confidence float64
}

var quotePhrases = []string{
	"ne demisti", "ne dedi", "ne yazdi", "ne yazmisti", "neydi",
	"tam olarak", "aynen ne", "kelimesi kelimesine", "alinti",
	"soyledigi", "yazdigi", "mesaj", "hatirlat", "goster",
	"what did", "what exactly did", "exact words", "word for word", "quote",
	"remind me what", "show me",
}

// Conflict stems stay bare ("tartis" catches every tense); talking
// verbs use past forms so "onunla nasil konusmaliyim", which is about
// the future, does not fire.
var memoryPhrases = []string{
	"hatirliyor musun", "hatirla", "o zamanlar", "gecmiste", "bir keresinde",
	"tartis", "kavga", "kriz", "ayrildigimiz", "baristigimiz", "ozur dile",
	"konustugumuz", "konusmustuk", "sohbet", "anlat",
	"remember when", "do you remember", "back then", "that time we", "once we",
	"that argument", "that fight",
}

// DetectRetrievalNeed classifies a user message. Explicit or relative
// dates win over quote requests, which win over generic memory
// references; anything else means the master context alone is enough.
func DetectRetrievalNeed(message string, now time.Time) Plan {
	folded := util.FoldTurkish(message)

	if hint, confidence, ok := parseMessageDate(folded, now); ok {
		return Plan{
			Needed:     true,
			Reason:     "date_reference",
			Query:      message,
			DateHint:   hint,
			Confidence: confidence,
		}
	}

	if containsAny(folded, quotePhrases) {
		return Plan{
			Needed:     true,
			Reason:     "quote_request",
			Query:      message,
			Confidence: 0.7,
		}
	}

	if containsAny(folded, memoryPhrases) {
		if terms := ExtractSearchTerms(message, maxSearchTermsDefault); len(terms) > 0 {
			return Plan{
				Needed:     true,
				Reason:     "keyword_match",
				Query:      message,
				Confidence: 0.6,
			}
		}
	}

	return Plan{Query: message}
}

func containsAny(folded string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(folded, p) {
			return true
		}
	}
	return false
}
