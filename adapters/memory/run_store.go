package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"adscope/domain/analysis"
	"adscope/domain/core"
	"adscope/ports"
)

// RunStore is an in-memory ports.RunStore used when no database is
// configured, and by tests.
type RunStore struct {
	mu   sync.RWMutex
	runs map[core.RunID]*analysis.Context
}

// NewRunStore creates an empty in-memory store.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[core.RunID]*analysis.Context)}
}

var _ ports.RunStore = (*RunStore)(nil)

// SaveRun stores or replaces a run.
func (s *RunStore) SaveRun(ctx context.Context, run *analysis.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.RunID] = run
	return nil
}

// GetRun returns the run by ID.
func (s *RunStore) GetRun(ctx context.Context, id core.RunID) (*analysis.Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]*analysis.Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]*analysis.Context, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[j].StartedAt.Before(runs[i].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
