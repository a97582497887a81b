package geo

import (
	"strings"

	"github.com/biter777/countries"
)

// CountryCode returns the lower-case ISO 3166 alpha-2 code for a country
// name. An exact (case-insensitive) name match wins; otherwise the first
// country whose name contains the query is used.
func CountryCode(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	if c := countries.ByName(name); c != countries.Unknown && c.IsValid() {
		return strings.ToLower(c.Alpha2()), true
	}
	all := countries.All()
	for _, c := range all {
		if strings.EqualFold(c.String(), name) {
			return strings.ToLower(c.Alpha2()), true
		}
	}
	needle := strings.ToUpper(name)
	for _, c := range all {
		if strings.Contains(strings.ToUpper(c.String()), needle) {
			return strings.ToLower(c.Alpha2()), true
		}
	}
	return "", false
}
