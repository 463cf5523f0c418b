package util

// Truncate caps a string at max runes, appending "..." when it was cut.
// Rune-based so Turkish text and emoji never get split mid-character.
// Used for keeping logged queries readable.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// TruncateExact caps a string at exactly max runes with no ellipsis, for
// places where the budget is hard: message samples sent to analysis and
// excerpt fallbacks that add their own marker.
func TruncateExact(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
