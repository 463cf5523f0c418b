package retrieval

import (
	"regexp"
	"strings"

	"github.com/sevgi-app/memoir/pkg/store"
	"github.com/sevgi-app/memoir/pkg/util"
)

// Speaker roles relative to the app user.
const (
	RoleUser    = "USER"
	RolePartner = "PARTNER"
	RoleOther   = "OTHER"
)

var selfIntroPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bben ([a-z]+)\b`),
	regexp.MustCompile(`\bbenim adim ([a-z]+)\b`),
	regexp.MustCompile(`\bi'?m ([a-z]+)\b`),
	regexp.MustCompile(`\bi am ([a-z]+)\b`),
	regexp.MustCompile(`\bmy name is ([a-z]+)\b`),
}

// DetectSelfParticipant matches a self-introduction ("ben Ayşe", "I'm
// Mark") or a bare speaker name against the relationship's speakers and
// returns the matched speaker, or "" when nothing matches.
func DetectSelfParticipant(message string, speakers []string) string {
	folded := util.FoldTurkish(strings.TrimSpace(message))

	for _, re := range selfIntroPatterns {
		m := re.FindStringSubmatch(folded)
		if m == nil {
			continue
		}
		if speaker := matchSpeaker(m[1], speakers); speaker != "" {
			return speaker
		}
	}

	// A reply consisting only of a name counts as an introduction.
	if !strings.Contains(folded, " ") {
		return matchSpeaker(folded, speakers)
	}
	return ""
}

// matchSpeaker compares a folded candidate against each speaker's folded
// first name.
func matchSpeaker(candidate string, speakers []string) string {
	if candidate == "" {
		return ""
	}
	for _, speaker := range speakers {
		first := speaker
		if i := strings.IndexByte(first, ' '); i > 0 {
			first = first[:i]
		}
		if util.FoldTurkish(first) == candidate {
			return speaker
		}
	}
	return ""
}

// MapSpeakerRole tells which side of the relationship a speaker is on,
// given the record's participant mapping.
func MapSpeakerRole(rec *store.Relationship, speaker string) string {
	switch speaker {
	case rec.SelfParticipant:
		if speaker == "" {
			return RoleOther
		}
		return RoleUser
	case rec.PartnerParticipant:
		if speaker == "" {
			return RoleOther
		}
		return RolePartner
	default:
		return RoleOther
	}
}

// PartnerOf returns the other speaker in a two-speaker relationship.
func PartnerOf(self string, speakers []string) string {
	for _, s := range speakers {
		if s != self {
			return s
		}
	}
	return ""
}
