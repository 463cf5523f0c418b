// Package stats computes per-speaker conversation statistics. Everything
// here is deterministic text matching, no model calls: phrase lists are
// matched on accent-folded text so Turkish spellings with and without
// diacritics count the same.
package stats

import (
	"regexp"

	"github.com/sevgi-app/memoir/pkg/chatlog"
	"github.com/sevgi-app/memoir/pkg/util"
)

// Counts holds raw per-speaker tallies for each category.
type Counts struct {
	Messages  map[string]int `json:"messageCount"`
	LoveYou   map[string]int `json:"loveYou"`
	Apologies map[string]int `json:"apology"`
	Emojis    map[string]int `json:"emoji"`
}

// Winners names the dominant speaker per category. "none" means nobody
// scored, "balanced" means the two speakers are within 10% of each other.
type Winners struct {
	MoreMessages  string `json:"whoSentMoreMessages"`
	MoreLoveYou   string `json:"whoSaidILoveYouMore"`
	MoreApologies string `json:"whoApologizedMore"`
	MoreEmojis    string `json:"whoUsedMoreEmojis"`
}

type Result struct {
	Counts  Counts  `json:"counts"`
	Winners Winners `json:"winners"`
}

var affectionPhrases = compilePhrases([]string{
	"seni seviyorum", "seviyorum", "i love you", "love you", "askimsin", "canimsin",
})

var apologyPhrases = compilePhrases([]string{
	"ozur", "pardon", "sorry", "kusura bakma", "afedersin", "affet",
})

// compilePhrases builds word-bounded matchers for already-folded phrases.
func compilePhrases(phrases []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(phrases))
	for i, p := range phrases {
		res[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(p) + `\b`)
	}
	return res
}

var emojiRanges = [][2]rune{
	{0x1F600, 0x1F64F},
	{0x1F300, 0x1F5FF},
	{0x1F680, 0x1F6FF},
	{0x1F700, 0x1F77F},
	{0x1F780, 0x1F7FF},
	{0x1F800, 0x1F8FF},
	{0x1F900, 0x1F9FF},
	{0x1FA00, 0x1FA6F},
	{0x1FA70, 0x1FAFF},
	{0x2600, 0x26FF},
	{0x2700, 0x27BF},
}

// Compute tallies every message and picks per-category winners among the
// given speakers. Messages from senders outside the speaker list are
// ignored so group-chat noise cannot skew the comparison.
func Compute(messages []chatlog.Message, speakers []string) Result {
	counts := Counts{
		Messages:  zeroed(speakers),
		LoveYou:   zeroed(speakers),
		Apologies: zeroed(speakers),
		Emojis:    zeroed(speakers),
	}
	known := make(map[string]bool, len(speakers))
	for _, s := range speakers {
		known[s] = true
	}

	for _, m := range messages {
		if !known[m.Sender] {
			continue
		}
		counts.Messages[m.Sender]++
		folded := util.FoldTurkish(m.Content)
		if matchesAny(folded, affectionPhrases) {
			counts.LoveYou[m.Sender]++
		}
		if matchesAny(folded, apologyPhrases) {
			counts.Apologies[m.Sender]++
		}
		counts.Emojis[m.Sender] += countEmojis(m.Content)
	}

	return Result{
		Counts: counts,
		Winners: Winners{
			MoreMessages:  winner(counts.Messages, speakers),
			MoreLoveYou:   winner(counts.LoveYou, speakers),
			MoreApologies: winner(counts.Apologies, speakers),
			MoreEmojis:    winner(counts.Emojis, speakers),
		},
	}
}

func zeroed(speakers []string) map[string]int {
	m := make(map[string]int, len(speakers))
	for _, s := range speakers {
		m[s] = 0
	}
	return m
}

// matchesAny reports whether any phrase occurs in the folded content.
// A message counts at most once per category no matter how many phrases
// or repetitions it contains.
func matchesAny(folded string, phrases []*regexp.Regexp) bool {
	for _, re := range phrases {
		if re.MatchString(folded) {
			return true
		}
	}
	return false
}

func countEmojis(content string) int {
	n := 0
	for _, r := range content {
		for _, rng := range emojiRanges {
			if r >= rng[0] && r <= rng[1] {
				n++
				break
			}
		}
	}
	return n
}

// winner picks the dominant speaker for one category. With two speakers
// whose counts differ by less than 10% of their average the category is
// called "balanced"; an all-zero category has no winner at all.
func winner(counts map[string]int, speakers []string) string {
	best, max, total := "", 0, 0
	for _, s := range speakers {
		total += counts[s]
		if counts[s] > max {
			max, best = counts[s], s
		}
	}
	if max == 0 {
		return "none"
	}
	if len(speakers) == 2 {
		a, b := counts[speakers[0]], counts[speakers[1]]
		diff := a - b
		if diff < 0 {
			diff = -diff
		}
		avg := float64(total) / 2
		if float64(diff)/avg < 0.1 {
			return "balanced"
		}
	}
	return best
}
