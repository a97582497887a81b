package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
)

// RecordStore implements crawler.RecordStore in memory. Like the durable
// store it only ever holds the latest run.
type RecordStore struct {
	mu      sync.RWMutex
	runID   string
	records []crawler.JobRecord
}

// NewRecordStore creates an empty store.
func NewRecordStore() *RecordStore {
	return &RecordStore{}
}

// ReplaceRun drops whatever was stored and keeps records for runID.
func (s *RecordStore) ReplaceRun(_ context.Context, runID string, records []crawler.JobRecord) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runID = runID
	s.records = slices.Clone(records)
	return nil
}

// Latest returns the most recent run id and a copy of its records.
func (s *RecordStore) Latest() (string, []crawler.JobRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.runID == "" {
		return "", nil, false
	}
	return s.runID, slices.Clone(s.records), true
}
