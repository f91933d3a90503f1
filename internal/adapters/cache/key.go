package cache

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/width"
)

// NormalizeKey maps an address to its cache key. Addresses that differ only
// in surrounding or repeated whitespace, letter case, or full-width
// punctuation map to the same key.
func NormalizeKey(address string) string {
	s := width.Fold.String(address)
	s = strings.Join(strings.Fields(s), " ")
	return cases.Upper(language.Und).String(s)
}
