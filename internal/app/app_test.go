package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/realtime-job-crawler/internal/config"
	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	csv := filepath.Join(dir, "geoId.csv")
	require.NoError(t, os.WriteFile(csv, []byte("CITY,GEO_ID\nParis,105015875\n"), 0o600))

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Geo.GeoIDCSV = csv
	cfg.Output.Dir = filepath.Join(dir, "out")
	return cfg
}

func TestNewWiresLocalOutput(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NotNil(t, a.Engine)
	require.NotNil(t, a.Publisher)

	uri, err := a.Publisher.Publish(context.Background(), crawler.RunSummary{RunID: "r1"}, []crawler.JobRecord{{JobID: "x"}})
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(cfg.Output.Dir, "runs", "r1", "jobs.json"))
	require.Contains(t, uri, "jobs.json")

	require.Equal(t, cfg.Output.Prefix, a.GetConfig().Output.Prefix)
	require.NotNil(t, a.GetRunner())
	require.NotNil(t, a.GetPublisher())
	require.NotNil(t, a.GetLogger())

	runID, records, ok := a.GetLatest().Latest()
	require.True(t, ok)
	require.Equal(t, "r1", runID)
	require.Len(t, records, 1)
}

func TestNewToleratesMissingGeoIDs(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Geo.GeoIDCSV = filepath.Join(t.TempDir(), "missing.csv")
	cfg.Output.Dir = ""
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NoError(t, a.Close())
}

func TestNewFailsOnBadOutputDir(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	cfg.Output.Dir = file

	_, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
}

type stubStore struct {
	err   error
	calls int
}

func (s *stubStore) ReplaceRun(context.Context, string, []crawler.JobRecord) error {
	s.calls++
	return s.err
}

func TestFanoutStopsAtFirstError(t *testing.T) {
	t.Parallel()

	first := &stubStore{err: errors.New("down")}
	second := &stubStore{}
	err := fanout{first, second}.ReplaceRun(context.Background(), "r", nil)
	require.ErrorContains(t, err, "down")
	require.Equal(t, 0, second.calls)

	first.err = nil
	require.NoError(t, fanout{first, second}.ReplaceRun(context.Background(), "r", nil))
	require.Equal(t, 1, second.calls)
}
