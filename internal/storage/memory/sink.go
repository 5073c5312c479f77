// Package memory stores records in-memory for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/otakulab/malcrawl/internal/crawl"
)

// Sink stores records in-memory and returns pseudo URIs.
type Sink struct {
	mu      sync.RWMutex
	records map[string]crawl.Record
}

var _ crawl.RecordSink = (*Sink)(nil)

// NewSink creates a new in-memory record sink.
func NewSink() *Sink {
	return &Sink{records: make(map[string]crawl.Record)}
}

// Store persists the record and returns a memory:// URI.
func (s *Sink) Store(_ context.Context, path string, record crawl.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[path] = record
	return fmt.Sprintf("memory://%s", path), nil
}

// Get returns the record stored at path, if any.
func (s *Sink) Get(path string) (crawl.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[path]
	return record, ok
}

// Len reports the number of records stored.
func (s *Sink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}
