// Package robots enforces robots.txt directives in front of a crawler.Fetcher.
package robots

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
	"github.com/JakeFAU/realtime-job-crawler/internal/metrics"
)

// Fetcher refuses requests that the target host's robots.txt disallows for
// the configured user agent. robots.txt is fetched through next once per
// host and cached.
type Fetcher struct {
	next      crawler.Fetcher
	userAgent string
	logger    *zap.Logger

	mu    sync.RWMutex
	cache map[string]*robotstxt.RobotsData
	group singleflight.Group
}

// WrapFetcher returns next guarded by robots.txt.
func WrapFetcher(next crawler.Fetcher, userAgent string, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		next:      next,
		userAgent: userAgent,
		logger:    logger.Named("robots"),
		cache:     make(map[string]*robotstxt.RobotsData),
	}
}

// Fetch implements crawler.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, request crawler.FetchRequest) (crawler.FetchResponse, error) {
	if !f.Allowed(ctx, request.URL) {
		return crawler.FetchResponse{}, &crawler.FetchError{URL: request.URL, Err: crawler.ErrRobotsDisallowed}
	}
	return f.next.Fetch(ctx, request)
}

// Allowed reports whether rawURL may be fetched. Unparseable URLs are
// refused; an unreachable robots.txt allows access.
func (f *Fetcher) Allowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	data, err := f.load(ctx, parsed)
	if err != nil {
		f.logger.Warn("robots fetch failed; allowing access", zap.String("host", parsed.Host), zap.Error(err))
		return true
	}
	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}
	if data.TestAgent(path, f.userAgent) {
		return true
	}
	host := strings.ToLower(parsed.Hostname())
	metrics.ObserveRobotsBlocked(host)
	f.logger.Debug("request disallowed by robots.txt", zap.String("url", rawURL))
	return false
}

func (f *Fetcher) load(ctx context.Context, parsed *url.URL) (*robotstxt.RobotsData, error) {
	key := strings.ToLower(parsed.Scheme + "://" + parsed.Host)
	f.mu.RLock()
	data, ok := f.cache[key]
	f.mu.RUnlock()
	if ok {
		return data, nil
	}

	v, err, _ := f.group.Do(key, func() (any, error) {
		f.mu.RLock()
		data, ok := f.cache[key]
		f.mu.RUnlock()
		if ok {
			return data, nil
		}
		data, err := f.fetchRobots(ctx, key+"/robots.txt")
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.cache[key] = data
		f.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	robots, _ := v.(*robotstxt.RobotsData)
	return robots, nil
}

// fetchRobots maps HTTP failures onto robotstxt's status semantics: 4xx
// allows everything and 5xx disallows everything. Transport failures are
// returned as errors and are not cached.
func (f *Fetcher) fetchRobots(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	resp, err := f.next.Fetch(ctx, crawler.FetchRequest{URL: robotsURL})
	if err != nil {
		var fe *crawler.FetchError
		if errors.As(err, &fe) && fe.StatusCode != 0 {
			return robotstxt.FromStatusAndBytes(fe.StatusCode, nil)
		}
		return nil, fmt.Errorf("fetch robots: %w", err)
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse robots: %w", err)
	}
	return data, nil
}
