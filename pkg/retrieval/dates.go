package retrieval

import (
	"regexp"
	"strconv"
	"time"
)

// month names are matched on accent-folded text, so Turkish names appear
// without diacritics.
var monthNames = map[string]time.Month{
	"ocak": time.January, "subat": time.February, "mart": time.March,
	"nisan": time.April, "mayis": time.May, "haziran": time.June,
	"temmuz": time.July, "agustos": time.August, "eylul": time.September,
	"ekim": time.October, "kasim": time.November, "aralik": time.December,
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

const monthAlt = `(ocak|subat|mart|nisan|mayis|haziran|temmuz|agustos|eylul|ekim|kasim|aralik|january|february|march|april|may|june|july|august|september|october|november|december)`

var (
	dayMonthTRRe  = regexp.MustCompile(`\b(\d{1,2})\s+` + monthAlt + `(?:\s+(\d{4}))?\b`)
	dayMonthENRe  = regexp.MustCompile(`\b` + monthAlt + `\s+(\d{1,2})(?:,?\s+(\d{4}))?\b`)
	monthYearRe   = regexp.MustCompile(`\b` + monthAlt + `\s+(\d{4})\b`)
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})[./](\d{1,2})[./](\d{2,4})\b`)
	isoDateRe     = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	relativeAgoRe = regexp.MustCompile(`\b(\d{1,2})\s+(gun|hafta|ay|yil|day|days|week|weeks|month|months|year|years)\s+(once|ago)\b`)
)

var lastWeekPhrases = []string{"gecen hafta", "last week"}
var lastMonthPhrases = []string{"gecen ay", "last month"}
var lastYearPhrases = []string{"gecen yil", "gecen sene", "last year"}

var vagueDatePhrases = []string{
	"o gun", "o gece", "o aksam", "o zaman",
	"that day", "that night", "that evening", "that time",
}

// parseMessageDate extracts a date window from an accent-folded user
// message. Explicit dates are tried before relative and vague ones; a
// vague reference reports a match with no window so the caller knows the
// user means the past without knowing when.
func parseMessageDate(folded string, now time.Time) (*DateRange, float64, bool) {
	if m := dayMonthTRRe.FindStringSubmatch(folded); m != nil {
		day, _ := strconv.Atoi(m[1])
		if r, ok := explicitDay(day, monthNames[m[2]], m[3], now); ok {
			return r, 0.95, true
		}
	}
	if m := dayMonthENRe.FindStringSubmatch(folded); m != nil {
		day, _ := strconv.Atoi(m[2])
		if r, ok := explicitDay(day, monthNames[m[1]], m[3], now); ok {
			return r, 0.95, true
		}
	}
	if m := monthYearRe.FindStringSubmatch(folded); m != nil {
		year, _ := strconv.Atoi(m[2])
		month := monthNames[m[1]]
		start := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
		r := DateRange{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Second)}
		return &r, 0.9, true
	}
	if m := numericDateRe.FindStringSubmatch(folded); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			r := dayRange(year, time.Month(month), day)
			return &r, 0.95, true
		}
	}
	if m := isoDateRe.FindStringSubmatch(folded); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			r := dayRange(year, time.Month(month), day)
			return &r, 0.95, true
		}
	}
	if containsAny(folded, lastWeekPhrases) {
		return &DateRange{Start: now.AddDate(0, 0, -7), End: now}, 0.7, true
	}
	if containsAny(folded, lastMonthPhrases) {
		return &DateRange{Start: now.AddDate(0, -1, 0), End: now}, 0.7, true
	}
	if containsAny(folded, lastYearPhrases) {
		return &DateRange{Start: now.AddDate(-1, 0, 0), End: now}, 0.7, true
	}
	if m := relativeAgoRe.FindStringSubmatch(folded); m != nil {
		n, _ := strconv.Atoi(m[1])
		r := relativeRange(n, m[2], now)
		return &r, 0.6, true
	}
	if containsAny(folded, vagueDatePhrases) {
		return nil, 0.3, true
	}
	return nil, 0, false
}

// explicitDay builds a one-day window. Without a year the reference is
// assumed to be the most recent occurrence of that date.
func explicitDay(day int, month time.Month, yearStr string, now time.Time) (*DateRange, bool) {
	if month == 0 || day < 1 || day > 31 {
		return nil, false
	}
	year := now.Year()
	if yearStr != "" {
		year, _ = strconv.Atoi(yearStr)
	}
	r := dayRange(year, month, day)
	if yearStr == "" && r.Start.After(now) {
		r = dayRange(year-1, month, day)
	}
	return &r, true
}

func dayRange(year int, month time.Month, day int) DateRange {
	start := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
	return DateRange{Start: start, End: start.AddDate(0, 0, 1).Add(-time.Second)}
}

// relativeRange centers a padded window on "N units ago"; the padding
// grows with the unit because the user's memory does too.
func relativeRange(n int, unit string, now time.Time) DateRange {
	unitDays, padDays := 1, 2
	switch unit {
	case "hafta", "week", "weeks":
		unitDays, padDays = 7, 4
	case "ay", "month", "months":
		unitDays, padDays = 30, 15
	case "yil", "year", "years":
		unitDays, padDays = 365, 90
	}
	target := now.AddDate(0, 0, -n*unitDays)
	return DateRange{
		Start: target.AddDate(0, 0, -padDays),
		End:   target.AddDate(0, 0, padDays),
	}
}
