package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
)

const base = "https://li.test/company"

type pageFetcher struct {
	mu       sync.Mutex
	pages    map[string]string
	requests []crawler.FetchRequest
}

func (f *pageFetcher) Fetch(_ context.Context, req crawler.FetchRequest) (crawler.FetchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	body, ok := f.pages[req.URL]
	if !ok {
		return crawler.FetchResponse{}, &crawler.FetchError{URL: req.URL, StatusCode: http.StatusNotFound}
	}
	return crawler.FetchResponse{URL: req.URL, StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

func (f *pageFetcher) urls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, r.URL)
	}
	return out
}

func aboutPage(t *testing.T, blocks ...any) string {
	t.Helper()
	page := "<html><body>"
	for _, b := range blocks {
		if s, ok := b.(string); ok {
			page += "<code>" + s + "</code>"
			continue
		}
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		page += "<code>" + string(raw) + "</code>"
	}
	return page + "</body></html>"
}

func companyBlock(start, end int, specs ...string) map[string]any {
	staff := map[string]any{"start": start}
	if end > 0 {
		staff["end"] = end
	}
	return map[string]any{
		"data": map[string]any{"*elements": []any{"urn:li:company:1"}},
		"included": []any{
			map[string]any{"$type": "Company", "staffCountRange": staff, "specialities": specs},
		},
	}
}

func TestSlug(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"ACME CORP":             "acme-corp",
		"Procter & Gamble":      "procter-and-gamble",
		"  Société  Générale  ": "societe-generale",
		"Ørsted":                "ørsted",
		"Café Crème & Co":       "cafe-creme-and-co",
		"":                      "",
	}
	for in, want := range cases {
		require.Equal(t, want, Slug(in), in)
	}
}

func TestDegradeKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, "acme", DegradeKey("acme-corp"))
	require.Equal(t, "big-data", DegradeKey("big-data--inc"))
	require.Equal(t, "", DegradeKey("acme"))
	require.Equal(t, "", DegradeKey("-acme"))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	ptr := func(n int) *int { return &n }
	cases := []struct {
		start int
		end   *int
		want  crawler.SizeBucket
	}{
		{10001, nil, crawler.BucketLarge},
		{5000, ptr(10000), crawler.BucketLarge},
		{1001, ptr(5000), crawler.BucketIntermediate},
		{251, ptr(500), crawler.BucketIntermediate},
		{51, ptr(200), crawler.BucketMedium},
		{201, ptr(250), crawler.BucketMedium},
		{11, ptr(50), crawler.BucketSmall},
		{2, ptr(10), crawler.BucketStartup},
		{0, ptr(1), crawler.BucketStartup},
		{1001, nil, crawler.BucketUnknown},
		{0, nil, crawler.BucketUnknown},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Classify(tc.start, tc.end), "start=%d", tc.start)
	}
}

func TestFindAll(t *testing.T) {
	t.Parallel()

	var doc any
	require.NoError(t, json.Unmarshal([]byte(`{
		"a": {"staffCountRange": {"start": 1}},
		"b": [[{"staffCountRange": {"start": 2, "staffCountRange": 3}}]],
		"c": "staffCountRange"
	}`), &doc))

	found := FindAll(doc, "staffCountRange")
	require.Len(t, found, 3)
	require.Equal(t, map[string]any{"start": float64(1)}, found[0])
	require.Equal(t, float64(3), found[2])

	require.Empty(t, FindAll("scalar", "x"))
	require.Empty(t, FindAll(nil, "x"))
}

func TestProfileFromBlocksFirstRangeWins(t *testing.T) {
	t.Parallel()

	decode := func(raw string) any {
		var v any
		require.NoError(t, json.Unmarshal([]byte(raw), &v))
		return v
	}
	// Within a block, keys are visited in sorted order, so "data" is
	// searched before "included".
	block := decode(`{
		"included": [{"staffCountRange": {"start": 2, "end": 10}}],
		"data": {"staffCountRange": {"start": 5001}}
	}`)
	require.Equal(t, crawler.BucketLarge, profileFromBlocks([]any{block}).Bucket)

	// Across blocks, page order wins.
	first := decode(`{"zz": {"staffCountRange": {"start": 11, "end": 50}}}`)
	second := decode(`{"aa": {"staffCountRange": {"start": 5001}}}`)
	got := profileFromBlocks([]any{first, second})
	require.Equal(t, crawler.BucketSmall, got.Bucket)
	require.Equal(t, 11, got.EmployeesStart)
}

func TestLookupResolves(t *testing.T) {
	t.Parallel()

	f := &pageFetcher{pages: map[string]string{
		base + "/initech/about/": aboutPage(t, "{not json", companyBlock(51, 200, "Payments", "TPS reports")),
	}}
	s := NewService(f, Config{BaseURL: base + "/", SessionToken: "tok", MaxRetries: 2}, nil)

	end := 200
	got := s.Lookup(context.Background(), "INITECH")
	require.Equal(t, crawler.CompanyProfile{
		Key:            "initech",
		EmployeesStart: 51,
		EmployeesEnd:   &end,
		Bucket:         crawler.BucketMedium,
		Sector:         "Payments, TPS reports",
	}, got)
	require.Equal(t, "li_at=tok", f.requests[0].Headers.Get("Cookie"))
}

func TestLookupDegradesKey(t *testing.T) {
	t.Parallel()

	f := &pageFetcher{pages: map[string]string{
		base + "/acme-corp/about/": "<html><body><p>sign in</p></body></html>",
		base + "/acme/about/":      aboutPage(t, companyBlock(10001, 0, "Anvils")),
	}}
	s := NewService(f, Config{BaseURL: base, SessionToken: "tok", MaxRetries: 2}, nil)

	got := s.Lookup(context.Background(), "ACME CORP")
	require.Equal(t, crawler.BucketLarge, got.Bucket)
	require.Equal(t, "Anvils", got.Sector)
	require.Equal(t, "acme-corp", got.Key)
	require.Equal(t, []string{base + "/acme-corp/about/", base + "/acme/about/"}, f.urls())
}

func TestLookupExhaustsRetries(t *testing.T) {
	t.Parallel()

	f := &pageFetcher{pages: map[string]string{}}
	s := NewService(f, Config{BaseURL: base, SessionToken: "tok", MaxRetries: 2}, nil)

	got := s.Lookup(context.Background(), "Big Data Solutions Ltd")
	require.Equal(t, UnknownProfile("big-data-solutions-ltd"), got)
	require.Equal(t, []string{
		base + "/big-data-solutions-ltd/about/",
		base + "/big-data-solutions/about/",
		base + "/big-data/about/",
	}, f.urls())

	f = &pageFetcher{pages: map[string]string{}}
	s = NewService(f, Config{BaseURL: base, SessionToken: "tok", MaxRetries: 2}, nil)
	require.Equal(t, crawler.BucketUnknown, s.Lookup(context.Background(), "Globex").Bucket)
	require.Len(t, f.urls(), 1, "single token key stops after the first failure")
}

func TestLookupDataWithoutRangeOrSpecialities(t *testing.T) {
	t.Parallel()

	f := &pageFetcher{pages: map[string]string{
		base + "/hooli/about/": aboutPage(t, map[string]any{"name": "Hooli"}),
	}}
	s := NewService(f, Config{BaseURL: base, SessionToken: "tok"}, nil)

	got := s.Lookup(context.Background(), "Hooli")
	require.Equal(t, crawler.BucketUnknown, got.Bucket)
	require.Empty(t, got.Sector)
	require.Len(t, f.urls(), 1)
}

func TestLookupDisabledWithoutToken(t *testing.T) {
	t.Parallel()

	f := &pageFetcher{}
	s := NewService(f, Config{BaseURL: base, MaxRetries: 2}, nil)
	require.False(t, s.Enabled())

	got := s.Lookup(context.Background(), "Acme")
	require.Equal(t, crawler.BucketUnknown, got.Bucket)
	require.Equal(t, crawler.Unknown, got.Sector)
	require.Empty(t, f.urls())
}

func TestRetriesAreCapped(t *testing.T) {
	t.Parallel()

	f := &pageFetcher{pages: map[string]string{}}
	s := NewService(f, Config{BaseURL: base, SessionToken: "tok", MaxRetries: 9}, nil)
	s.Lookup(context.Background(), "a b c d e f")
	require.Len(t, f.urls(), 3)
}

type countingEnricher struct {
	calls atomic.Int32
}

func (c *countingEnricher) Lookup(_ context.Context, company string) crawler.CompanyProfile {
	c.calls.Add(1)
	time.Sleep(10 * time.Millisecond)
	return crawler.CompanyProfile{Key: Slug(company), Bucket: crawler.BucketSmall}
}

func TestCacheSingleLookupPerKey(t *testing.T) {
	t.Parallel()

	next := &countingEnricher{}
	cache := NewCache(next)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "ACME CORP"
			if i%2 == 0 {
				name = "acme  corp"
			}
			if got := cache.Lookup(context.Background(), name); got.Bucket != crawler.BucketSmall {
				t.Errorf("unexpected bucket %q", got.Bucket)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), next.calls.Load())
	require.Equal(t, 1, cache.Len())

	got, ok := cache.Get("Acme Corp")
	require.True(t, ok)
	require.Equal(t, "acme-corp", got.Key)

	_, ok = cache.Get("Globex")
	require.False(t, ok)
}
