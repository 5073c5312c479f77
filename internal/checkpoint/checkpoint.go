// Package checkpoint persists crawl progress so a run can resume after a
// crash or interruption. One Store serves one domain's checkpoint file.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// fileState is the JSON wire form of a checkpoint.
type fileState struct {
	CompletedIDs  []int64 `json:"completed_ids"`
	CurrentLetter *string `json:"current_letter"`
	CurrentPage   int     `json:"current_page"`
}

// Store holds the completed-item set and pagination cursor for one domain.
// The owning driver is the only writer; status queries may read concurrently.
type Store struct {
	path   string
	logger *zap.Logger

	mu        sync.RWMutex
	completed map[int64]struct{}
	partition string
	page      int
	hasCursor bool
}

// NewStore opens (or initializes) the checkpoint at path. A missing or
// corrupt file degrades to an empty checkpoint with a log line; it never
// fails construction.
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		path:      path,
		logger:    logger,
		completed: make(map[int64]struct{}),
	}
	s.load()
	return s
}

// Path returns the checkpoint file location.
func (s *Store) Path() string { return s.path }

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("no checkpoint file found, starting fresh", zap.String("path", s.path))
		} else {
			s.logger.Error("checkpoint unreadable, starting fresh", zap.String("path", s.path), zap.Error(err))
		}
		return
	}
	var st fileState
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Error("checkpoint corrupt, starting fresh", zap.String("path", s.path), zap.Error(err))
		return
	}
	for _, id := range st.CompletedIDs {
		s.completed[id] = struct{}{}
	}
	if st.CurrentLetter != nil {
		s.partition = *st.CurrentLetter
		s.page = st.CurrentPage
		s.hasCursor = true
	}
	s.logger.Info("checkpoint loaded",
		zap.String("path", s.path),
		zap.Int("completed", len(s.completed)),
		zap.String("partition", s.partition),
		zap.Int("page", s.page),
	)
}

// Save writes the checkpoint atomically: the state goes to a temporary file
// in the same directory, then renames over the target, so a crash mid-write
// never clobbers the previous valid checkpoint.
func (s *Store) Save() error {
	s.mu.RLock()
	st := fileState{
		CompletedIDs: make([]int64, 0, len(s.completed)),
		CurrentPage:  s.page,
	}
	for id := range s.completed {
		st.CompletedIDs = append(st.CompletedIDs, id)
	}
	if s.hasCursor {
		partition := s.partition
		st.CurrentLetter = &partition
	}
	s.mu.RUnlock()

	sort.Slice(st.CompletedIDs, func(i, j int) bool { return st.CompletedIDs[i] < st.CompletedIDs[j] })

	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create checkpoint dir %s: %w", dir, err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("write temp checkpoint %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename checkpoint %s: %w", s.path, err)
	}
	s.logger.Debug("checkpoint saved",
		zap.String("path", s.path),
		zap.Int("completed", len(st.CompletedIDs)),
	)
	return nil
}

// MarkCompleted records an item as processed. Items are never un-marked.
func (s *Store) MarkCompleted(id int64) {
	s.mu.Lock()
	s.completed[id] = struct{}{}
	s.mu.Unlock()
}

// IsCompleted reports whether an item was already processed.
func (s *Store) IsCompleted(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.completed[id]
	return ok
}

// CompletedCount returns the size of the completed set.
func (s *Store) CompletedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.completed)
}

// SetCursor records the pagination position. It does not save; the driver
// decides when state reaches disk.
func (s *Store) SetCursor(partition string, page int) {
	s.mu.Lock()
	s.partition = partition
	s.page = page
	s.hasCursor = true
	s.mu.Unlock()
}

// Cursor returns the recorded pagination position. ok is false until a
// cursor has been set or loaded.
func (s *Store) Cursor() (partition string, page int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.partition, s.page, s.hasCursor
}
