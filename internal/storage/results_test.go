package storage_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
	"github.com/JakeFAU/realtime-job-crawler/internal/storage"
	"github.com/JakeFAU/realtime-job-crawler/internal/storage/memory"
)

func TestPublishWritesBothSinks(t *testing.T) {
	t.Parallel()

	blobs := memory.NewBlobStore()
	records := memory.NewRecordStore()
	p := storage.NewPublisher(blobs, records, "/runs/")

	summary := crawler.RunSummary{RunID: "run-1", Records: 1}
	jobs := []crawler.JobRecord{{Index: 0, Title: "Go & Rust Engineer", JobID: "a1", CompanyType: crawler.BucketSmall}}

	uri, err := p.Publish(context.Background(), summary, jobs)
	require.NoError(t, err)
	require.Equal(t, "memory://runs/run-1/jobs.json", uri)

	raw, contentType, ok := blobs.Object("runs/run-1/jobs.json")
	require.True(t, ok)
	require.Equal(t, "application/json", contentType)
	require.Contains(t, string(raw), `"title": "Go & Rust Engineer"`)

	var decoded []crawler.JobRecord
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, jobs, decoded)

	_, _, ok = blobs.Object("runs/run-1/summary.json")
	require.True(t, ok)

	runID, stored, ok := records.Latest()
	require.True(t, ok)
	require.Equal(t, "run-1", runID)
	require.Equal(t, jobs, stored)
}

func TestPublishEmptyRunWritesArray(t *testing.T) {
	t.Parallel()

	blobs := memory.NewBlobStore()
	p := storage.NewPublisher(blobs, nil, "")
	require.Equal(t, "run-2/jobs.json", p.RunPath("run-2", storage.JobsFile))

	_, err := p.Publish(context.Background(), crawler.RunSummary{RunID: "run-2"}, nil)
	require.NoError(t, err)
	raw, _, ok := blobs.Object("run-2/jobs.json")
	require.True(t, ok)
	require.JSONEq(t, `[]`, string(raw))
}

type failingBlobs struct{}

func (failingBlobs) PutObject(context.Context, string, string, io.Reader) (string, error) {
	return "", errors.New("bucket gone")
}

type failingRecords struct{}

func (failingRecords) ReplaceRun(context.Context, string, []crawler.JobRecord) error {
	return errors.New("db down")
}

func TestPublishErrors(t *testing.T) {
	t.Parallel()

	_, err := storage.NewPublisher(failingBlobs{}, nil, "").Publish(context.Background(), crawler.RunSummary{RunID: "r"}, nil)
	require.ErrorContains(t, err, "bucket gone")

	uri, err := storage.NewPublisher(memory.NewBlobStore(), failingRecords{}, "").Publish(context.Background(), crawler.RunSummary{RunID: "r"}, nil)
	require.ErrorContains(t, err, "db down")
	require.Equal(t, "memory://r/jobs.json", uri)

	uri, err = storage.NewPublisher(nil, nil, "").Publish(context.Background(), crawler.RunSummary{RunID: "r"}, nil)
	require.NoError(t, err)
	require.Empty(t, uri)
}
