package enrich

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slug normalizes a company display name into a URL path key: diacritics
// folded, lower-cased, spaces to '-', '&' to "and".
func Slug(company string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, company)
	if err != nil {
		folded = company
	}
	folded = strings.ToLower(strings.TrimSpace(folded))
	folded = strings.ReplaceAll(folded, "&", "and")
	return strings.Join(strings.Fields(folded), "-")
}

// DegradeKey drops the last hyphen-delimited token and any trailing hyphens.
// A key without a hyphen degrades to "".
func DegradeKey(slug string) string {
	i := strings.LastIndex(slug, "-")
	if i < 0 {
		return ""
	}
	return strings.TrimRight(slug[:i], "-")
}
