// Package pipeline runs one search end to end: resolve locations, fetch and
// extract listing pages, enrich companies, then rank.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
	"github.com/JakeFAU/realtime-job-crawler/internal/enrich"
	"github.com/JakeFAU/realtime-job-crawler/internal/metrics"
	"github.com/JakeFAU/realtime-job-crawler/internal/rank"
	"github.com/JakeFAU/realtime-job-crawler/internal/sites"
)

// Config controls Engine fan-out.
type Config struct {
	Concurrency       int
	EnrichConcurrency int
}

// Result is the output of one run.
type Result struct {
	Summary crawler.RunSummary
	Records []crawler.JobRecord
}

// Engine orchestrates a run.
type Engine struct {
	resolver crawler.LocationResolver
	registry *sites.Registry
	enricher crawler.CompanyEnricher
	ids      crawler.IDGenerator
	clock    crawler.Clock
	cfg      Config
	logger   *zap.Logger
}

// New constructs an Engine. enricher is wrapped in a fresh cache per run.
func New(
	resolver crawler.LocationResolver,
	registry *sites.Registry,
	enricher crawler.CompanyEnricher,
	ids crawler.IDGenerator,
	clock crawler.Clock,
	cfg Config,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.EnrichConcurrency <= 0 {
		cfg.EnrichConcurrency = 1
	}
	return &Engine{
		resolver: resolver,
		registry: registry,
		enricher: enricher,
		ids:      ids,
		clock:    clock,
		cfg:      cfg,
		logger:   logger.Named("pipeline"),
	}
}

// task is one listing page to fetch. ordinal orders results by
// (website, country, city, page).
type task struct {
	ordinal int
	site    sites.Site
	group   crawler.CountryGroup
	city    string
	page    int
	url     string
}

// Run executes the profile and returns the ranked records.
func (e *Engine) Run(ctx context.Context, profile crawler.SearchProfile) ([]crawler.JobRecord, error) {
	res, err := e.Execute(ctx, profile)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// Execute runs the profile and returns the records plus a run summary. A
// canceled context yields its error and no records.
func (e *Engine) Execute(ctx context.Context, profile crawler.SearchProfile) (Result, error) {
	runID, err := e.ids.NewID()
	if err != nil {
		return Result{}, fmt.Errorf("generate run id: %w", err)
	}
	started := e.clock.Now()
	logger := e.logger.With(zap.String("run_id", runID))
	summary := crawler.RunSummary{RunID: runID, StartedAt: started}

	res, err := e.execute(ctx, profile, logger, summary)
	status := "succeeded"
	if err != nil {
		status = "canceled"
	}
	metrics.ObserveRun(status, e.clock.Now().Sub(started))
	if err != nil {
		logger.Warn("run aborted", zap.Error(err))
		return Result{}, err
	}
	logger.Info("run finished",
		zap.Int("pages_fetched", res.Summary.PagesFetched),
		zap.Int("pages_failed", res.Summary.PagesFailed),
		zap.Int("postings", res.Summary.Postings),
		zap.Int("companies", res.Summary.Companies),
		zap.Int("records", res.Summary.Records),
		zap.Duration("elapsed", res.Summary.FinishedAt.Sub(started)),
	)
	return res, nil
}

func (e *Engine) execute(ctx context.Context, profile crawler.SearchProfile, logger *zap.Logger, summary crawler.RunSummary) (Result, error) {
	groups, err := e.resolver.Resolve(ctx, profile.Locations)
	if err != nil {
		return Result{}, fmt.Errorf("resolve locations: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(groups) == 0 {
		logger.Warn("no location resolved; run yields no postings")
	}

	tasks := e.plan(profile, groups, logger)
	postings, fetched, failed := e.crawl(ctx, tasks, profile, logger)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	companies, unresolved := e.enrichAll(ctx, postings)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	records := rank.Rank(postings, companies, profile)

	summary.PagesFetched = fetched
	summary.PagesFailed = failed
	summary.Postings = len(postings)
	summary.Companies = len(companies)
	summary.EnrichFailures = unresolved
	summary.Records = len(records)
	summary.FinishedAt = e.clock.Now()
	return Result{Summary: summary, Records: records}, nil
}

// plan expands website x country x city x page in order. A city whose URL
// cannot be built is skipped for that site only.
func (e *Engine) plan(profile crawler.SearchProfile, groups []crawler.CountryGroup, logger *zap.Logger) []task {
	var tasks []task
	for _, name := range profile.Websites {
		site, ok := e.registry.Lookup(name)
		if !ok {
			logger.Warn("unknown website skipped", zap.String("website", name))
			continue
		}
		for _, group := range groups {
			for _, city := range group.Cities {
				var cityTasks []task
				for page := 0; page < profile.Pages; page++ {
					u, err := site.BuildSearchURL(group, city, page, profile)
					if err != nil {
						logger.Warn("skipping city for site",
							zap.String("website", site.Name()),
							zap.String("city", city),
							zap.Error(err),
						)
						cityTasks = nil
						break
					}
					cityTasks = append(cityTasks, task{site: site, group: group, city: city, page: page, url: u})
				}
				for _, t := range cityTasks {
					t.ordinal = len(tasks)
					tasks = append(tasks, t)
				}
			}
		}
	}
	return tasks
}

// crawl runs every task with bounded concurrency and returns the postings
// in first-seen order.
func (e *Engine) crawl(ctx context.Context, tasks []task, profile crawler.SearchProfile, logger *zap.Logger) ([]crawler.RawPosting, int, int) {
	slots := make([][]crawler.RawPosting, len(tasks))
	var fetched, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(e.cfg.Concurrency)
	for _, t := range tasks {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			found, err := e.runTask(ctx, t, profile)
			if err != nil {
				failed.Add(1)
				metrics.ObserveListingPage(t.site.Name(), "error")
				if ctx.Err() == nil {
					logger.Warn("listing page failed",
						zap.String("website", t.site.Name()),
						zap.String("url", t.url),
						zap.Error(err),
					)
				}
				return nil
			}
			fetched.Add(1)
			metrics.ObserveListingPage(t.site.Name(), "ok")
			metrics.ObservePostings(t.site.Name(), len(found))
			logger.Debug("listing page extracted",
				zap.String("website", t.site.Name()),
				zap.String("city", t.city),
				zap.Int("page", t.page),
				zap.Int("postings", len(found)),
			)
			slots[t.ordinal] = found
			return nil
		})
	}
	_ = g.Wait()

	var postings []crawler.RawPosting
	for _, slot := range slots {
		postings = append(postings, slot...)
	}
	return postings, int(fetched.Load()), int(failed.Load())
}

func (e *Engine) runTask(ctx context.Context, t task, profile crawler.SearchProfile) ([]crawler.RawPosting, error) {
	doc, err := t.site.FetchPage(ctx, t.url)
	if err != nil {
		return nil, err
	}
	var found []crawler.RawPosting
	for _, item := range t.site.SelectListingItems(doc) {
		p, ok := t.site.Extract(item, t.url, profile)
		if !ok {
			continue
		}
		p.Country = t.group.Country
		p.CountryCode = t.group.Code
		found = append(found, p)
	}
	return found, nil
}

// enrichAll looks up each distinct company once through a per-run cache.
func (e *Engine) enrichAll(ctx context.Context, postings []crawler.RawPosting) (map[string]crawler.CompanyProfile, int) {
	var names []string
	seen := make(map[string]struct{})
	for _, p := range postings {
		if _, dup := seen[p.Company]; dup {
			continue
		}
		seen[p.Company] = struct{}{}
		names = append(names, p.Company)
	}

	cache := enrich.NewCache(e.enricher)
	companies := make(map[string]crawler.CompanyProfile, len(names))
	var mu sync.Mutex
	var unresolved int

	var g errgroup.Group
	g.SetLimit(e.cfg.EnrichConcurrency)
	for _, name := range names {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			var profile crawler.CompanyProfile
			if name == "" {
				profile = enrich.UnknownProfile("")
			} else {
				profile = cache.Lookup(ctx, name)
			}
			mu.Lock()
			defer mu.Unlock()
			companies[name] = profile
			if profile.Bucket == crawler.BucketUnknown {
				unresolved++
			}
			return nil
		})
	}
	_ = g.Wait()
	return companies, unresolved
}
