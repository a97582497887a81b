package enrich

import (
	"math"
	"strings"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
)

const largeThreshold = 5000

// Classify maps an employee range to a size bucket. A missing upper bound
// below the large threshold cannot be placed and yields Unknown.
func Classify(start int, end *int) crawler.SizeBucket {
	if start >= largeThreshold {
		return crawler.BucketLarge
	}
	if end == nil {
		return crawler.BucketUnknown
	}
	switch e := *end; {
	case e <= 10:
		return crawler.BucketStartup
	case e <= 50:
		return crawler.BucketSmall
	case e <= 250:
		return crawler.BucketMedium
	default:
		return crawler.BucketIntermediate
	}
}

// staffRange reads {"start": n, "end": m} out of a decoded staffCountRange.
func staffRange(v any) (int, *int, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return 0, nil, false
	}
	start, ok := wholeNumber(m["start"])
	if !ok {
		return 0, nil, false
	}
	if end, ok := wholeNumber(m["end"]); ok {
		return start, &end, true
	}
	return start, nil, true
}

func wholeNumber(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// specialities joins a decoded list of strings with ", ".
func specialities(v any) (string, bool) {
	list, ok := v.([]any)
	if !ok {
		return "", false
	}
	parts := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			parts = append(parts, strings.TrimSpace(s))
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, ", "), true
}
