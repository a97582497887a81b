package crawler

import (
	"context"
	"io"
	"time"
)

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// CompanyEnricher resolves company metadata for a display name.
type CompanyEnricher interface {
	Lookup(ctx context.Context, company string) CompanyProfile
}

// LocationResolver groups free-text cities under their resolved country.
type LocationResolver interface {
	Resolve(ctx context.Context, cities []string) ([]CountryGroup, error)
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// RecordStore persists the ranked output of a run.
type RecordStore interface {
	ReplaceRun(ctx context.Context, runID string, records []JobRecord) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
