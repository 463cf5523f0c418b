package retrieval

import (
	"strings"

	"github.com/sevgi-app/memoir/pkg/util"
)

const maxSearchTermsDefault = 5

// stopwords are stored accent-folded, matching the folded input.
var stopwords = map[string]bool{
	// Turkish
	"bir": true, "ve": true, "bu": true, "su": true, "da": true, "de": true,
	"mi": true, "mu": true, "ne": true, "ben": true, "sen": true, "biz": true,
	"siz": true, "onlar": true, "icin": true, "ama": true, "gibi": true,
	"cok": true, "daha": true, "ile": true, "ki": true, "diye": true,
	"ise": true, "sonra": true, "once": true, "zaman": true, "sey": true,
	"bana": true, "sana": true, "beni": true, "seni": true, "onu": true,
	"nasil": true, "neden": true, "niye": true, "hani": true, "iste": true,
	"evet": true, "hayir": true, "tamam": true, "yani": true, "falan": true,
	// English
	"the": true, "and": true, "was": true, "were": true, "what": true,
	"when": true, "did": true, "you": true, "she": true, "her": true,
	"him": true, "his": true, "that": true, "this": true, "with": true,
	"about": true, "have": true, "had": true, "has": true, "for": true,
	"are": true, "but": true, "not": true, "how": true, "why": true,
	"our": true, "your": true, "can": true, "could": true, "would": true,
	"tell": true, "said": true, "say": true, "remember": true, "time": true,
}

// ExtractSearchTerms reduces a user message to the few content words
// worth matching against chunk keywords. Everything is accent-folded and
// stripped to letters and digits first.
func ExtractSearchTerms(message string, max int) []string {
	folded := util.FoldTurkish(message)

	var b strings.Builder
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	seen := map[string]bool{}
	var terms []string
	for _, w := range strings.Fields(b.String()) {
		if len(w) <= 2 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
		if len(terms) == max {
			break
		}
	}
	return terms
}
