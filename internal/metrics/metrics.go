// Package metrics exposes Prometheus collectors for the job crawler.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	listingPagesTotal          *prometheus.CounterVec
	postingsTotal              *prometheus.CounterVec
	enrichmentTotal            *prometheus.CounterVec
	geocodeTotal               *prometheus.CounterVec
	runsTotal                  *prometheus.CounterVec
	runDurationSeconds         prometheus.Histogram
	rateLimitDelaysSeconds     *prometheus.HistogramVec
	robotsBlockedTotal         *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init registers the Prometheus collectors. It is safe to call repeatedly.
func Init() {
	once.Do(func() {
		listingPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobradar_listing_pages_total",
				Help: "Listing pages fetched, labeled by site and status.",
			},
			[]string{"site", "status"},
		)

		postingsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobradar_postings_total",
				Help: "Postings that survived title filtering, labeled by site.",
			},
			[]string{"site"},
		)

		enrichmentTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobradar_enrichment_total",
				Help: "Company lookups, labeled by outcome (resolved, degraded, unknown, cached).",
			},
			[]string{"outcome"},
		)

		geocodeTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobradar_geocode_total",
				Help: "Location lookups, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobradar_runs_total",
				Help: "Pipeline runs, labeled by final status.",
			},
			[]string{"status"},
		)

		runDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jobradar_run_duration_seconds",
				Help:    "Wall-clock duration of complete pipeline runs.",
				Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
			},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jobradar_rate_limit_delays_seconds",
				Help:    "Histogram of per-host rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"host"},
		)

		robotsBlockedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobradar_robots_blocked_total",
				Help: "Requests refused by robots.txt, labeled by host.",
			},
			[]string{"host"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 30, 120},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeHost extracts a lowercase hostname from a URL.
// It returns "unknown" if the URL is invalid.
func SanitizeHost(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveListingPage counts one listing fetch for a site.
func ObserveListingPage(site, status string) {
	Init()
	listingPagesTotal.WithLabelValues(strings.ToLower(site), status).Inc()
}

// ObservePostings counts postings admitted from a listing page.
func ObservePostings(site string, n int) {
	Init()
	if n > 0 {
		postingsTotal.WithLabelValues(strings.ToLower(site)).Add(float64(n))
	}
}

// ObserveEnrichment counts one company lookup outcome.
func ObserveEnrichment(outcome string) {
	Init()
	enrichmentTotal.WithLabelValues(outcome).Inc()
}

// ObserveGeocode counts one location lookup outcome.
func ObserveGeocode(outcome string) {
	Init()
	geocodeTotal.WithLabelValues(outcome).Inc()
}

// ObserveRun records a finished pipeline run.
func ObserveRun(status string, duration time.Duration) {
	Init()
	runsTotal.WithLabelValues(status).Inc()
	runDurationSeconds.Observe(duration.Seconds())
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(host string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(host).Observe(duration.Seconds())
}

// ObserveRobotsBlocked counts a request refused by robots.txt.
func ObserveRobotsBlocked(host string) {
	Init()
	robotsBlockedTotal.WithLabelValues(host).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
