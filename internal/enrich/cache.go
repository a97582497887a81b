package enrich

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
)

// Cache memoizes enrichment per normalized company key for one run.
// Concurrent lookups of the same key share a single fetch.
type Cache struct {
	next    crawler.CompanyEnricher
	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]crawler.CompanyProfile
}

var _ crawler.CompanyEnricher = (*Cache)(nil)

// NewCache wraps next with a per-run memo.
func NewCache(next crawler.CompanyEnricher) *Cache {
	return &Cache{next: next, entries: make(map[string]crawler.CompanyProfile)}
}

// Lookup returns the cached profile or performs the lookup once.
func (c *Cache) Lookup(ctx context.Context, company string) crawler.CompanyProfile {
	key := Slug(company)
	if profile, ok := c.get(key); ok {
		return profile
	}
	v, _, _ := c.group.Do(key, func() (any, error) {
		if profile, ok := c.get(key); ok {
			return profile, nil
		}
		profile := c.next.Lookup(ctx, company)
		if ctx.Err() == nil {
			c.mu.Lock()
			c.entries[key] = profile
			c.mu.Unlock()
		}
		return profile, nil
	})
	return v.(crawler.CompanyProfile)
}

// Get returns the cached profile for a company without fetching.
func (c *Cache) Get(company string) (crawler.CompanyProfile, bool) {
	return c.get(Slug(company))
}

// Len reports the number of cached keys.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) get(key string) (crawler.CompanyProfile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	profile, ok := c.entries[key]
	return profile, ok
}
