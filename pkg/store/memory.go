package store

import (
	"context"
	"sync"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/errors"
)

// MemoryStore is an in-memory run archive for development and testing.
type MemoryStore struct {
	mu    sync.RWMutex
	runs  map[string]RunRecord
	order []string
}

// NewMemoryStore creates an empty in-memory run archive.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]RunRecord)}
}

func (s *MemoryStore) SaveRun(ctx context.Context, rec RunRecord) error {
	if rec.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "run record has no ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	s.runs[rec.ID] = rec
	return nil
}

func (s *MemoryStore) GetRun(ctx context.Context, id string) (RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.runs[id]
	if !ok {
		return RunRecord{}, errors.New(errors.ErrCodeRunNotFound, "run %s not found", id)
	}
	return rec, nil
}

func (s *MemoryStore) ListRuns(ctx context.Context) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]RunRecord, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		recs = append(recs, s.runs[s.order[i]])
	}
	return recs, nil
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
