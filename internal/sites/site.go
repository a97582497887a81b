// Package sites holds one adapter per job board. Each adapter builds search
// URLs, fetches listing pages and extracts raw postings from listing items.
package sites

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
)

// Site is the capability set of one job board.
type Site interface {
	// Name is the display name stamped on every posting.
	Name() string
	// Host is the board's host, used for logs and rate limiting.
	Host() string
	BuildSearchURL(group crawler.CountryGroup, city string, page int, profile crawler.SearchProfile) (string, error)
	FetchPage(ctx context.Context, url string) (*goquery.Document, error)
	SelectListingItems(doc *goquery.Document) []*goquery.Selection
	// Extract returns false when the item's title is filtered out.
	Extract(item *goquery.Selection, searchURL string, profile crawler.SearchProfile) (crawler.RawPosting, bool)
}

// Registry selects a Site by its case-insensitive identifier.
type Registry struct {
	sites map[string]Site
}

// NewRegistry registers sites under their lower-cased names.
func NewRegistry(sites ...Site) *Registry {
	r := &Registry{sites: make(map[string]Site, len(sites))}
	for _, s := range sites {
		r.sites[strings.ToLower(s.Name())] = s
	}
	return r
}

// Lookup returns the site registered under name.
func (r *Registry) Lookup(name string) (Site, bool) {
	s, ok := r.sites[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// Names lists registered identifiers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sites))
	for name := range r.sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// pageFetcher is shared by every adapter.
type pageFetcher struct {
	fetcher crawler.Fetcher
	headers http.Header
}

func newPageFetcher(fetcher crawler.Fetcher) pageFetcher {
	return pageFetcher{
		fetcher: fetcher,
		headers: http.Header{
			"Accept":          []string{"text/html,application/xhtml+xml"},
			"Accept-Language": []string{"en-US,en;q=0.9"},
		},
	}
}

func (p pageFetcher) FetchPage(ctx context.Context, url string) (*goquery.Document, error) {
	resp, err := p.fetcher.Fetch(ctx, crawler.FetchRequest{URL: url, Headers: p.headers.Clone()})
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse listing page %s: %w", url, err)
	}
	return doc, nil
}

func named(logger *zap.Logger, name string) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.Named(name)
}
