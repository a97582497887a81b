package crawler

import "strings"

// SizeBucket is a named enterprise-size category.
type SizeBucket string

// The five named buckets plus the unresolved sentinel.
const (
	BucketLarge        SizeBucket = "Large Enterprise (+5000 employees)"
	BucketIntermediate SizeBucket = "Intermediate-sized Enterprise (251-5000 employees)"
	BucketMedium       SizeBucket = "Medium-sized Enterprise (51-250 employees)"
	BucketSmall        SizeBucket = "Small-sized Enterprise (11-50 employees)"
	BucketStartup      SizeBucket = "Startup (1-10 employees)"
	BucketUnknown      SizeBucket = "Unknown"
)

// Unknown is the sentinel used for unresolved company metadata.
const Unknown = "Unknown"

// Buckets lists the named buckets from largest to smallest.
var Buckets = []SizeBucket{BucketLarge, BucketIntermediate, BucketMedium, BucketSmall, BucketStartup}

var bucketShortNames = map[string]SizeBucket{
	"large":        BucketLarge,
	"intermediate": BucketIntermediate,
	"medium":       BucketMedium,
	"small":        BucketSmall,
	"startup":      BucketStartup,
}

// Known reports whether b is one of the five named buckets.
func (b SizeBucket) Known() bool {
	for _, known := range Buckets {
		if b == known {
			return true
		}
	}
	return false
}

// ParseSizeBucket accepts a full bucket label or its short name.
func ParseSizeBucket(raw string) (SizeBucket, bool) {
	raw = strings.TrimSpace(raw)
	for _, b := range Buckets {
		if strings.EqualFold(raw, string(b)) {
			return b, true
		}
	}
	b, ok := bucketShortNames[strings.ToLower(raw)]
	return b, ok
}
