package store

import (
	"context"
	"sort"
	"sync"

	"talentmatch/internal/matching"
)

// Memory is an in-process Store used when no database DSN is configured and
// throughout the test suite. A single mutex serializes all writes, which
// satisfies the per-batch serialization requirement trivially.
type Memory struct {
	mu      sync.RWMutex
	batches map[string]*matching.JobBatch
}

func NewMemory() *Memory {
	return &Memory{batches: make(map[string]*matching.JobBatch)}
}

func (s *Memory) CreateBatch(_ context.Context, batch *matching.JobBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range batch.RankedCandidates {
		batch.RankedCandidates[i].BatchID = batch.ID
		batch.RankedCandidates[i].Position = i
	}
	s.batches[batch.ID] = cloneBatch(batch)

	return nil
}

func (s *Memory) GetBatch(_ context.Context, id string) (*matching.JobBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, ok := s.batches[id]
	if !ok {
		return nil, matching.ErrNotFound
	}

	return cloneBatch(batch), nil
}

func (s *Memory) ListBatches(_ context.Context, owner string) ([]*matching.JobBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var batches []*matching.JobBatch
	for _, batch := range s.batches {
		if batch.Owner == owner {
			batches = append(batches, cloneBatch(batch))
		}
	}

	sort.Slice(batches, func(i, j int) bool {
		return batches[i].CreatedAt.After(batches[j].CreatedAt)
	})

	return batches, nil
}

func (s *Memory) SaveBatch(_ context.Context, batch *matching.JobBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.batches[batch.ID]
	if !ok {
		return matching.ErrNotFound
	}

	// Only the mutable candidate fields are written back.
	for _, c := range batch.RankedCandidates {
		if existing := stored.FindCandidate(c.ID); existing != nil {
			existing.Status = c.Status
			existing.Notes = c.Notes
		}
	}

	return nil
}

func cloneBatch(batch *matching.JobBatch) *matching.JobBatch {
	clone := *batch
	clone.RankedCandidates = make([]matching.Candidate, len(batch.RankedCandidates))
	copy(clone.RankedCandidates, batch.RankedCandidates)
	return &clone
}
