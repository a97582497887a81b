// Package app wires configuration into the long-lived services shared by
// the CLI and the HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-job-crawler/internal/api"
	"github.com/JakeFAU/realtime-job-crawler/internal/clock/system"
	"github.com/JakeFAU/realtime-job-crawler/internal/config"
	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
	"github.com/JakeFAU/realtime-job-crawler/internal/enrich"
	collyfetcher "github.com/JakeFAU/realtime-job-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/realtime-job-crawler/internal/geo"
	"github.com/JakeFAU/realtime-job-crawler/internal/id/uuid"
	"github.com/JakeFAU/realtime-job-crawler/internal/pipeline"
	"github.com/JakeFAU/realtime-job-crawler/internal/policy/ratelimit"
	"github.com/JakeFAU/realtime-job-crawler/internal/policy/robots"
	"github.com/JakeFAU/realtime-job-crawler/internal/sites"
	"github.com/JakeFAU/realtime-job-crawler/internal/storage"
	"github.com/JakeFAU/realtime-job-crawler/internal/storage/gcs"
	"github.com/JakeFAU/realtime-job-crawler/internal/storage/local"
	"github.com/JakeFAU/realtime-job-crawler/internal/storage/memory"
	"github.com/JakeFAU/realtime-job-crawler/internal/storage/postgres"
)

// App holds the shared services built from one Config.
type App struct {
	Config    config.Config
	Logger    *zap.Logger
	Engine    *pipeline.Engine
	Publisher *storage.Publisher
	Latest    *memory.RecordStore
	closers   []func() error
}

// New builds every service. Output sinks are optional: a GCS bucket wins
// over a local directory, and Postgres is used only when a DSN is set.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger, Latest: memory.NewRecordStore()}

	var base crawler.Fetcher = collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Crawler.UserAgent,
		Timeout:   cfg.RequestTimeout(),
	})
	if cfg.Crawler.RespectRobots {
		base = robots.WrapFetcher(base, cfg.Crawler.UserAgent, logger)
	}
	fetcher := ratelimit.WrapFetcher(
		base,
		ratelimit.New(ratelimit.Config{
			RPS:         cfg.Crawler.PerHostRPS,
			Burst:       1,
			MaxInFlight: cfg.Crawler.PerHostMax,
		}),
	)

	geoIDs, err := geo.LoadGeoIDs(cfg.Geo.GeoIDCSV)
	if err != nil {
		logger.Warn("geoId table unavailable; LinkedIn searches will be skipped",
			zap.String("path", cfg.Geo.GeoIDCSV), zap.Error(err))
		geoIDs = geo.NewGeoIDTable(nil)
	} else {
		logger.Info("geoId table loaded", zap.Int("cities", geoIDs.Len()))
	}

	initial, maxBackoff := cfg.GeoBackoff()
	resolver := geo.NewResolver(
		geo.NewNominatim(fetcher, cfg.Geo.NominatimURL),
		crawler.NewExponentialRetryPolicy(cfg.Geo.MaxAttempts, initial, maxBackoff),
		logger,
	)
	registry := sites.NewRegistry(
		sites.NewIndeed(fetcher, logger),
		sites.NewLinkedIn(fetcher, geoIDs, logger),
	)
	enricher := enrich.NewService(fetcher, enrich.Config{
		BaseURL:      cfg.Enrich.BaseURL,
		SessionToken: cfg.Enrich.SessionToken,
		MaxRetries:   cfg.Enrich.MaxRetries,
	}, logger)

	a.Engine = pipeline.New(resolver, registry, enricher, uuid.New(), system.New(), pipeline.Config{
		Concurrency:       cfg.Crawler.Concurrency,
		EnrichConcurrency: cfg.Enrich.Concurrency,
	}, logger)

	blobs, err := a.blobStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	records, err := a.recordStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Publisher = storage.NewPublisher(blobs, records, cfg.Output.Prefix)
	return a, nil
}

func (a *App) blobStore(ctx context.Context) (crawler.BlobStore, error) {
	out := a.Config.Output
	switch {
	case out.GCSBucket != "":
		store, err := gcs.New(ctx, gcs.Config{Bucket: out.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("init gcs output: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		a.Logger.Info("writing results to gcs", zap.String("bucket", out.GCSBucket))
		return store, nil
	case out.Dir != "":
		store, err := local.New(local.Config{BaseDir: out.Dir})
		if err != nil {
			return nil, fmt.Errorf("init local output: %w", err)
		}
		a.Logger.Info("writing results to disk", zap.String("dir", out.Dir))
		return store, nil
	default:
		a.Logger.Info("no blob output configured")
		return nil, nil
	}
}

// recordStore always feeds the in-memory latest-run view; Postgres is added
// when configured.
func (a *App) recordStore(ctx context.Context) (crawler.RecordStore, error) {
	if a.Config.DB.DSN == "" {
		return a.Latest, nil
	}
	store, err := postgres.NewJobStore(ctx, postgres.Config{
		DSN:      a.Config.DB.DSN,
		Table:    a.Config.DB.Table,
		MaxConns: a.Config.DB.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	a.closers = append(a.closers, func() error { store.Close(); return nil })
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	a.Logger.Info("persisting results to postgres", zap.String("table", a.Config.DB.Table))
	return fanout{a.Latest, store}, nil
}

// GetConfig returns the configuration the services were built from.
func (a *App) GetConfig() config.Config { return a.Config }

// GetLogger returns the root logger.
func (a *App) GetLogger() *zap.Logger { return a.Logger }

// GetRunner returns the search engine.
func (a *App) GetRunner() api.Runner { return a.Engine }

// GetPublisher returns the output publisher.
func (a *App) GetPublisher() api.Publisher { return a.Publisher }

// GetLatest returns the in-memory view of the last published run.
func (a *App) GetLatest() api.LatestRun { return a.Latest }

// Close releases external clients and flushes the logger.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := a.Logger.Sync(); err != nil && !isStdStreamSyncErr(err) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// fanout replaces the run in every store, stopping at the first failure.
type fanout []crawler.RecordStore

func (f fanout) ReplaceRun(ctx context.Context, runID string, records []crawler.JobRecord) error {
	for _, s := range f {
		if err := s.ReplaceRun(ctx, runID, records); err != nil {
			return err
		}
	}
	return nil
}

// isStdStreamSyncErr ignores the EINVAL zap reports when syncing a terminal.
func isStdStreamSyncErr(err error) bool {
	var pathErr *os.PathError
	return errors.As(err, &pathErr) && (pathErr.Path == "/dev/stdout" || pathErr.Path == "/dev/stderr")
}
