package chatlog

import "sort"

// DetectSpeakers returns the two most frequent senders, treated as the
// canonical relationship participants. Other senders are excluded from
// downstream statistics. Ties break alphabetically for determinism.
func DetectSpeakers(messages []Message) []string {
	counts := make(map[string]int)
	for _, msg := range messages {
		counts[msg.Sender]++
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	if len(names) > 2 {
		names = names[:2]
	}
	return names
}
