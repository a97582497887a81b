// Package ratelimit bounds request rate and concurrency per remote host.
package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
	"github.com/JakeFAU/realtime-job-crawler/internal/metrics"
)

// Config holds rate limiter configuration.
type Config struct {
	// RPS is the sustained request rate per host; <= 0 disables the token bucket.
	RPS   float64
	Burst int
	// MaxInFlight caps concurrent requests per host.
	MaxInFlight int
}

type hostState struct {
	limiter *rate.Limiter
	slots   *semaphore.Weighted
}

// Limiter manages per-host rate limits and in-flight slots.
type Limiter struct {
	mu          sync.Mutex
	hosts       map[string]*hostState
	rate        rate.Limit
	burst       int
	maxInFlight int64
}

// New creates a new Limiter.
func New(cfg Config) *Limiter {
	r := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		r = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	inFlight := cfg.MaxInFlight
	if inFlight <= 0 {
		inFlight = 4
	}
	return &Limiter{
		hosts:       make(map[string]*hostState),
		rate:        r,
		burst:       burst,
		maxInFlight: int64(inFlight),
	}
}

func (l *Limiter) stateFor(host string) *hostState {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.hosts[host]
	if !ok {
		st = &hostState{
			limiter: rate.NewLimiter(l.rate, l.burst),
			slots:   semaphore.NewWeighted(l.maxInFlight),
		}
		l.hosts[host] = st
	}
	return st
}

// Acquire blocks until the host of rawURL has a free slot and a token. The
// returned release func must be called once the request finishes.
func (l *Limiter) Acquire(ctx context.Context, rawURL string) (func(), error) {
	host := hostOf(rawURL)
	st := l.stateFor(host)

	if err := st.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire slot for %s: %w", host, err)
	}
	start := time.Now()
	if err := st.limiter.Wait(ctx); err != nil {
		st.slots.Release(1)
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitDelay(host, waited)
	}
	var once sync.Once
	return func() { once.Do(func() { st.slots.Release(1) }) }, nil
}

// Fetcher wraps a crawler.Fetcher so every request goes through the limiter.
type Fetcher struct {
	next    crawler.Fetcher
	limiter *Limiter
}

// WrapFetcher returns a crawler.Fetcher that is polite per host.
func WrapFetcher(next crawler.Fetcher, limiter *Limiter) *Fetcher {
	return &Fetcher{next: next, limiter: limiter}
}

// Fetch implements crawler.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, request crawler.FetchRequest) (crawler.FetchResponse, error) {
	release, err := f.limiter.Acquire(ctx, request.URL)
	if err != nil {
		return crawler.FetchResponse{}, &crawler.FetchError{URL: request.URL, Err: err}
	}
	defer release()
	resp, err := f.next.Fetch(ctx, request)
	if err != nil {
		return crawler.FetchResponse{}, err
	}
	return resp, nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}
