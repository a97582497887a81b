package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSanitizeHost(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"indeed subdomain", "https://FR.indeed.com/jobs?q=go", "fr.indeed.com"},
		{"linkedin", "https://www.linkedin.com/jobs/search/", "www.linkedin.com"},
		{"no scheme", "nominatim.openstreetmap.org/search", "nominatim.openstreetmap.org"},
		{"host with port", "localhost:8080", "localhost"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeHost(tc.input); got != tc.expected {
				t.Errorf("SanitizeHost(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestObserveHelpers(t *testing.T) {
	Init()
	Init()

	before := testutil.ToFloat64(listingPagesTotal.WithLabelValues("indeed", "ok"))
	ObserveListingPage("Indeed", "ok")
	if got := testutil.ToFloat64(listingPagesTotal.WithLabelValues("indeed", "ok")); got != before+1 {
		t.Errorf("expected listing page counter to grow by 1, got %f -> %f", before, got)
	}

	beforePostings := testutil.ToFloat64(postingsTotal.WithLabelValues("linkedin"))
	ObservePostings("LinkedIn", 3)
	ObservePostings("LinkedIn", 0)
	if got := testutil.ToFloat64(postingsTotal.WithLabelValues("linkedin")); got != beforePostings+3 {
		t.Errorf("expected postings counter to grow by 3, got %f -> %f", beforePostings, got)
	}

	ObserveEnrichment("degraded")
	ObserveGeocode("resolved")
	ObserveRun("succeeded", 2*time.Second)
	ObserveRateLimitDelay("fr.indeed.com", 300*time.Millisecond)
	if n := testutil.CollectAndCount(rateLimitDelaysSeconds); n <= 0 {
		t.Errorf("expected rate limit delays to be observed, got %d", n)
	}
	ObserveRobotsBlocked("www.linkedin.com")
	if got := testutil.ToFloat64(robotsBlockedTotal.WithLabelValues("www.linkedin.com")); got < 1 {
		t.Errorf("expected robots block to be counted, got %v", got)
	}
}

// Fuzz test for SanitizeHost.
func FuzzSanitizeHost(f *testing.F) {
	testcases := []string{"http://example.com", "https://www.linkedin.com", "ftp://example.com"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		if SanitizeHost(orig) == "" {
			t.Errorf("SanitizeHost(%q) returned an empty string", orig)
		}
	})
}
