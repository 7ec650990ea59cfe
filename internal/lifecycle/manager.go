package lifecycle

import (
	"context"

	"go.uber.org/zap"

	"talentmatch/internal/matching"
)

// Manager applies recruiter decisions to stored candidates. All mutations go
// through the batch: load, check ownership, edit the candidate in place, save.
type Manager struct {
	store  matching.Store
	logger *zap.Logger
}

func New(store matching.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, logger: logger}
}

// SetStatus moves a candidate to the given status and returns the updated
// batch. Any transition between the three statuses is permitted; the change
// is a plain overwrite.
func (m *Manager) SetStatus(ctx context.Context, owner, batchID, candidateID, rawStatus string) (*matching.JobBatch, error) {
	status, err := matching.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	batch, candidate, err := m.loadCandidate(ctx, owner, batchID, candidateID)
	if err != nil {
		return nil, err
	}

	candidate.Status = status
	if err := m.store.SaveBatch(ctx, batch); err != nil {
		return nil, err
	}

	m.logger.Info("candidate status updated",
		zap.String("owner", owner),
		zap.String("batch_id", batchID),
		zap.String("candidate_id", candidateID),
		zap.String("status", string(status)),
	)

	return batch, nil
}

// SetNotes replaces the candidate's notes verbatim; an empty string clears
// them. Returns the updated batch.
func (m *Manager) SetNotes(ctx context.Context, owner, batchID, candidateID, notes string) (*matching.JobBatch, error) {
	batch, candidate, err := m.loadCandidate(ctx, owner, batchID, candidateID)
	if err != nil {
		return nil, err
	}

	candidate.Notes = notes
	if err := m.store.SaveBatch(ctx, batch); err != nil {
		return nil, err
	}

	m.logger.Info("candidate notes updated",
		zap.String("owner", owner),
		zap.String("batch_id", batchID),
		zap.String("candidate_id", candidateID),
	)

	return batch, nil
}

// GetBatch returns a batch after checking ownership. Reads go through the
// same denial rules as writes.
func (m *Manager) GetBatch(ctx context.Context, owner, batchID string) (*matching.JobBatch, error) {
	batch, err := m.store.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Owner != owner {
		return nil, matching.ErrUnauthorized
	}
	return batch, nil
}

func (m *Manager) loadCandidate(ctx context.Context, owner, batchID, candidateID string) (*matching.JobBatch, *matching.Candidate, error) {
	batch, err := m.GetBatch(ctx, owner, batchID)
	if err != nil {
		return nil, nil, err
	}

	candidate := batch.FindCandidate(candidateID)
	if candidate == nil {
		return nil, nil, matching.ErrNotFound
	}

	return batch, candidate, nil
}
