package product

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes characters and drops the combining marks, turning
// e.g. "Povidlové" into "Povidlove".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize returns the trimmed, lowercase, diacritics-stripped form of the
// given text. It is used for fuzzy matching of product names, categories and
// location names.
func Normalize(text string) string {
	trimmed := strings.TrimSpace(text)
	stripped, _, err := transform.String(stripMarks, trimmed)
	if err != nil {
		stripped = trimmed
	}
	return strings.ToLower(stripped)
}
