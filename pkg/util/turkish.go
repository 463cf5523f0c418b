package util

import "strings"

var turkishFolder = strings.NewReplacer(
	"ş", "s", "Ş", "s",
	"ı", "i", "İ", "i",
	"ğ", "g", "Ğ", "g",
	"ö", "o", "Ö", "o",
	"ü", "u", "Ü", "u",
	"ç", "c", "Ç", "c",
)

// FoldTurkish lowercases text and folds Turkish-specific letters to their
// ASCII neighbours so that "özür" and "ozur" compare equal. All keyword,
// topic and summary matching goes through this.
func FoldTurkish(s string) string {
	return strings.ToLower(turkishFolder.Replace(s))
}
