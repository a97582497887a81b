// Package profile turns a raw, user-supplied search profile into the
// normalized crawler.SearchProfile consumed by the pipeline.
package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
)

// Defaults applied when a field is missing or malformed.
const (
	DefaultWebsite = "Indeed"
	DefaultRadius  = 0
	DefaultPages   = 3
	listDelimiter  = ";"
)

// RawProfile mirrors the hand-off object written by the presentation layer.
type RawProfile struct {
	Website               []string        `json:"website"`
	Query                 string          `json:"query"`
	Location              []string        `json:"location"`
	Distance              Text            `json:"distance"`
	TitleKeywordsMust     []string        `json:"title_keywords_must"`
	TitleKeywordsExcluded []string        `json:"title_keywords_excluded"`
	Pages                 Text            `json:"pages"`
	TitleKeywordsOrdered  []string        `json:"title_keywords_ordered"`
	CompanySizeType       map[string]bool `json:"company_size_type"`
}

// Text is a string that also accepts a bare JSON number, so "3" and 3 both
// decode. Anything else decodes to the empty string and later falls back to
// the field default.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*t = Text(n.String())
		return nil
	}
	*t = ""
	return nil
}

// Load reads a RawProfile from a JSON file and normalizes it.
func Load(path string) (crawler.SearchProfile, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return crawler.SearchProfile{}, fmt.Errorf("open profile: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only
	return Decode(f)
}

// Decode reads a RawProfile from r and normalizes it.
func Decode(r io.Reader) (crawler.SearchProfile, error) {
	var raw RawProfile
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return crawler.SearchProfile{}, fmt.Errorf("decode profile: %w", err)
	}
	return Normalize(raw)
}

// Normalize validates raw and applies defaults. Only a missing query or an
// empty location list fail; every other field degrades to its default.
func Normalize(raw RawProfile) (crawler.SearchProfile, error) {
	query := strings.TrimSpace(raw.Query)
	if query == "" {
		return crawler.SearchProfile{}, &crawler.ValidationError{Field: "query", Reason: "is required"}
	}
	locations := splitList(raw.Location, false)
	if len(locations) == 0 {
		return crawler.SearchProfile{}, &crawler.ValidationError{Field: "location", Reason: "needs at least one place"}
	}

	websites := splitList(raw.Website, false)
	if len(websites) == 0 {
		websites = []string{DefaultWebsite}
	}

	return crawler.SearchProfile{
		Websites:        websites,
		Query:           query,
		Locations:       locations,
		Radius:          parseCount(string(raw.Distance), DefaultRadius, 0),
		TitleMust:       splitList(raw.TitleKeywordsMust, true),
		TitleExcluded:   splitList(raw.TitleKeywordsExcluded, true),
		Pages:           parseCount(string(raw.Pages), DefaultPages, 1),
		TitlePreference: splitList(raw.TitleKeywordsOrdered, true),
		SizeBuckets:     sizeBuckets(raw.CompanySizeType),
	}, nil
}

// splitList splits every entry on ';', trims, drops empties and removes
// case-insensitive duplicates while keeping first-seen order.
func splitList(in []string, lower bool) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, entry := range in {
		for _, part := range strings.Split(entry, listDelimiter) {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			key := strings.ToLower(part)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if lower {
				part = key
			}
			out = append(out, part)
		}
	}
	return out
}

// parseCount accepts only plain digit strings whose value is >= minimum.
func parseCount(raw string, def, minimum int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return def
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < minimum {
		return def
	}
	return n
}

// sizeBuckets keeps the selected buckets; no selection means all buckets.
func sizeBuckets(in map[string]bool) map[crawler.SizeBucket]bool {
	selected := make(map[crawler.SizeBucket]bool, len(crawler.Buckets))
	for name, on := range in {
		if !on {
			continue
		}
		if b, ok := crawler.ParseSizeBucket(name); ok {
			selected[b] = true
		}
	}
	if len(selected) == 0 {
		for _, b := range crawler.Buckets {
			selected[b] = true
		}
	}
	return selected
}
