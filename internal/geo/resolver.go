package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
	"github.com/JakeFAU/realtime-job-crawler/internal/metrics"
)

// ErrNoMatch is returned by a Geocoder when the query matches no place.
var ErrNoMatch = errors.New("no matching place")

// Geocoder turns a place query into a comma-separated address whose last
// segment is the country name.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (string, error)
}

// Retrier is the subset of crawler.ExponentialRetryPolicy the resolver needs.
type Retrier interface {
	crawler.RetryPolicy
	MaxAttempts() int
}

// Resolver implements crawler.LocationResolver.
type Resolver struct {
	geocoder Geocoder
	retry    Retrier
	logger   *zap.Logger
}

var _ crawler.LocationResolver = (*Resolver)(nil)

// NewResolver wires a geocoder with a retry policy.
func NewResolver(geocoder Geocoder, retry Retrier, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retry == nil {
		retry = crawler.NewExponentialRetryPolicy(3, 0, 0)
	}
	return &Resolver{geocoder: geocoder, retry: retry, logger: logger.Named("geo")}
}

// Resolve groups cities under their country. Cities are processed one at a
// time in input order; those that never resolve are dropped and logged.
func (r *Resolver) Resolve(ctx context.Context, cities []string) ([]crawler.CountryGroup, error) {
	var groups []crawler.CountryGroup
	index := make(map[string]int)
	seen := make(map[string]struct{})

	for _, city := range cities {
		city = strings.TrimSpace(city)
		key := strings.ToLower(city)
		if city == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		country, err := r.lookup(ctx, city)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			metrics.ObserveGeocode("dropped")
			r.logger.Warn("dropping unresolved location", zap.Error(&crawler.ResolutionError{Location: city, Err: err}))
			continue
		}
		metrics.ObserveGeocode("resolved")

		if i, ok := index[country]; ok {
			groups[i].Cities = append(groups[i].Cities, city)
			continue
		}
		code, ok := CountryCode(country)
		if !ok {
			r.logger.Debug("no country code for resolved country", zap.String("country", country))
		}
		index[country] = len(groups)
		groups = append(groups, crawler.CountryGroup{Country: country, Code: code, Cities: []string{city}})
	}
	return groups, nil
}

func (r *Resolver) lookup(ctx context.Context, city string) (string, error) {
	for attempt := 1; ; attempt++ {
		address, err := r.geocoder.Geocode(ctx, city)
		if err == nil {
			country := countryOf(address)
			if country == "" {
				return "", fmt.Errorf("address %q has no country: %w", address, ErrNoMatch)
			}
			return country, nil
		}
		if !r.shouldRetry(err, attempt) {
			return "", err
		}
		wait := r.retry.Backoff(attempt)
		r.logger.Debug("retrying geocode",
			zap.String("city", city),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		if sleepErr := crawler.Sleep(ctx, wait); sleepErr != nil {
			return "", sleepErr
		}
	}
}

// shouldRetry retries any geocoder failure, including throttling responses
// and undecodable bodies, until the attempt budget is spent. Only a definite
// no-match, a robots refusal or a finished context end the loop early.
func (r *Resolver) shouldRetry(err error, attempt int) bool {
	if r.retry.ShouldRetry(err, attempt) {
		return true
	}
	if attempt >= r.retry.MaxAttempts() {
		return false
	}
	switch {
	case errors.Is(err, ErrNoMatch),
		errors.Is(err, crawler.ErrRobotsDisallowed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// countryOf returns the trimmed, upper-cased trailing comma segment.
func countryOf(address string) string {
	segments := strings.Split(address, ",")
	return strings.ToUpper(strings.TrimSpace(segments[len(segments)-1]))
}
