package retrieval

import (
	"fmt"
	"strings"

	"github.com/sevgi-app/memoir/pkg/store"
)

// buildMasterContext renders the relationship profile as the standing
// context block. It is rebuilt per request from the stored record, never
// cached, so a re-upload is visible immediately.
func buildMasterContext(rec *store.Relationship) string {
	ms := rec.MasterSummary

	var b strings.Builder
	b.WriteString("=== RELATIONSHIP MEMORY ===\n")
	fmt.Fprintf(&b, "Speakers: %s\n", strings.Join(rec.Speakers, ", "))
	fmt.Fprintf(&b, "Period: %d messages across %d chunks\n\n", rec.TotalMessages, rec.TotalChunks)

	if ms.ShortSummary != "" {
		b.WriteString("SUMMARY:\n")
		b.WriteString(ms.ShortSummary)
		b.WriteString("\n\n")
	}

	if len(ms.Personalities) > 0 {
		b.WriteString("PERSONALITIES:\n")
		for _, speaker := range rec.Speakers {
			p, ok := ms.Personalities[speaker]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "- %s: %s", speaker, strings.Join(p.Traits, ", "))
			if p.CommunicationStyle != "" {
				fmt.Fprintf(&b, "; communicates: %s", p.CommunicationStyle)
			}
			if p.EmotionalPattern != "" {
				fmt.Fprintf(&b, "; emotionally: %s", p.EmotionalPattern)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("DYNAMICS:\n")
	writeLabeled(&b, "Power balance", ms.Dynamics.PowerBalance)
	writeLabeled(&b, "Attachment", ms.Dynamics.AttachmentPattern)
	writeLabeled(&b, "Conflict style", ms.Dynamics.ConflictStyle)
	writeLabeled(&b, "Love languages", strings.Join(ms.Dynamics.LoveLanguages, ", "))
	b.WriteString("\n")

	writeList(&b, "RECURRING ISSUES", ms.Patterns.RecurringIssues)
	writeList(&b, "STRENGTHS", ms.Patterns.Strengths)

	if rec.SelfParticipant != "" {
		fmt.Fprintf(&b, "The user you are advising is %s.", rec.SelfParticipant)
		if rec.PartnerParticipant != "" {
			fmt.Fprintf(&b, " Their partner is %s.", rec.PartnerParticipant)
		}
		b.WriteString("\n\n")
	}

	b.WriteString("RULES:\n")
	b.WriteString("- Ground your advice in this history. Never invent events that are not in it.\n")
	b.WriteString("- If the history does not cover something, say so instead of guessing.\n")
	b.WriteString("- Answer in the language the user writes in.\n")
	return b.String()
}

func writeLabeled(b *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(b, "- %s: %s\n", label, value)
	}
}

func writeList(b *strings.Builder, header string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n\n", header, strings.Join(items, "; "))
}
