// Package storage hands a finished run off to the configured blob and
// record stores.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
)

// File names written under each run's prefix.
const (
	JobsFile    = "jobs.json"
	SummaryFile = "summary.json"
)

// Publisher writes run output to optional sinks.
type Publisher struct {
	blobs   crawler.BlobStore
	records crawler.RecordStore
	prefix  string
}

// NewPublisher builds a Publisher. Either sink may be nil.
func NewPublisher(blobs crawler.BlobStore, records crawler.RecordStore, prefix string) *Publisher {
	return &Publisher{blobs: blobs, records: records, prefix: strings.Trim(prefix, "/")}
}

// RunPath returns the object path of name for runID.
func (p *Publisher) RunPath(runID, name string) string {
	if p.prefix == "" {
		return path.Join(runID, name)
	}
	return path.Join(p.prefix, runID, name)
}

// Publish writes jobs.json and summary.json, then replaces the stored
// records. It returns the URI of jobs.json when a blob store is set.
func (p *Publisher) Publish(ctx context.Context, summary crawler.RunSummary, records []crawler.JobRecord) (string, error) {
	var uri string
	if p.blobs != nil {
		if records == nil {
			records = []crawler.JobRecord{}
		}
		var err error
		uri, err = p.putJSON(ctx, p.RunPath(summary.RunID, JobsFile), records)
		if err != nil {
			return "", err
		}
		if _, err := p.putJSON(ctx, p.RunPath(summary.RunID, SummaryFile), summary); err != nil {
			return "", err
		}
	}
	if p.records != nil {
		if err := p.records.ReplaceRun(ctx, summary.RunID, records); err != nil {
			return uri, fmt.Errorf("store records: %w", err)
		}
	}
	return uri, nil
}

func (p *Publisher) putJSON(ctx context.Context, objectPath string, v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode %s: %w", objectPath, err)
	}
	uri, err := p.blobs.PutObject(ctx, objectPath, "application/json", &buf)
	if err != nil {
		return "", fmt.Errorf("write %s: %w", objectPath, err)
	}
	return uri, nil
}
