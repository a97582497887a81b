package crawler

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRobotsDisallowed marks a request refused by the host's robots.txt.
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// ValidationError reports a required profile field that is missing. It is the
// only run-fatal error kind.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid search profile: %s %s", e.Field, e.Reason)
}

// FetchError is a network or HTTP failure on a listing, enrichment or
// geocoding request.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Temporary reports whether a retry has a chance of succeeding.
func (e *FetchError) Temporary() bool {
	switch {
	case errors.Is(e.Err, ErrRobotsDisallowed):
		return false
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= http.StatusInternalServerError:
		return true
	default:
		return false
	}
}

// ResolutionError reports a location that could not be geocoded.
type ResolutionError struct {
	Location string
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve location %q: %v", e.Location, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// ExtractionError reports a structural field missing from a listing item.
type ExtractionError struct {
	Website string
	Field   string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s listing item: missing %s", e.Website, e.Field)
}
