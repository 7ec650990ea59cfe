package lifecycle

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"talentmatch/internal/matching"
	"talentmatch/internal/store"
)

func seedBatch(t *testing.T, s matching.Store) *matching.JobBatch {
	t.Helper()

	batch := &matching.JobBatch{
		ID:             "b1",
		Owner:          "alice",
		JobTitle:       "Backend Engineer",
		JobDescription: "Go services",
		RankedCandidates: []matching.Candidate{
			{ID: "c1", FileName: "first.pdf", MatchScore: 90, Status: matching.StatusPending},
			{ID: "c2", FileName: "second.pdf", MatchScore: 70, Status: matching.StatusPending},
		},
	}
	if err := s.CreateBatch(context.Background(), batch); err != nil {
		t.Fatalf("seeding batch: %v", err)
	}
	return batch
}

func TestSetStatus(t *testing.T) {
	s := store.NewMemory()
	seedBatch(t, s)
	m := New(s, zap.NewNop())

	batch, err := m.SetStatus(context.Background(), "alice", "b1", "c1", "Approved")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.FindCandidate("c1").Status != matching.StatusApproved {
		t.Fatal("expected returned batch to carry the new status")
	}

	stored, err := s.GetBatch(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.FindCandidate("c1").Status != matching.StatusApproved {
		t.Fatal("expected status to persist")
	}
	if stored.FindCandidate("c2").Status != matching.StatusPending {
		t.Fatal("expected the other candidate to stay untouched")
	}

	// Decisions may be reversed freely; the latest write wins.
	if _, err := m.SetStatus(context.Background(), "alice", "b1", "c1", "Rejected"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ = s.GetBatch(context.Background(), "b1")
	if stored.FindCandidate("c1").Status != matching.StatusRejected {
		t.Fatal("expected reversal to persist")
	}
}

func TestSetStatusInvalidValueDoesNotMutate(t *testing.T) {
	s := store.NewMemory()
	seedBatch(t, s)
	m := New(s, zap.NewNop())

	_, err := m.SetStatus(context.Background(), "alice", "b1", "c1", "approved")
	if !errors.Is(err, matching.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	stored, _ := s.GetBatch(context.Background(), "b1")
	if stored.FindCandidate("c1").Status != matching.StatusPending {
		t.Fatal("expected rejected input to leave the candidate untouched")
	}
}

func TestSetStatusOwnership(t *testing.T) {
	s := store.NewMemory()
	seedBatch(t, s)
	m := New(s, zap.NewNop())

	if _, err := m.SetStatus(context.Background(), "mallory", "b1", "c1", "Approved"); !errors.Is(err, matching.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	stored, _ := s.GetBatch(context.Background(), "b1")
	if stored.FindCandidate("c1").Status != matching.StatusPending {
		t.Fatal("expected foreign writes to be rejected without mutation")
	}
}

func TestSetStatusNotFound(t *testing.T) {
	s := store.NewMemory()
	seedBatch(t, s)
	m := New(s, zap.NewNop())

	if _, err := m.SetStatus(context.Background(), "alice", "missing", "c1", "Approved"); !errors.Is(err, matching.ErrNotFound) {
		t.Fatalf("expected not found for unknown batch, got %v", err)
	}
	if _, err := m.SetStatus(context.Background(), "alice", "b1", "missing", "Approved"); !errors.Is(err, matching.ErrNotFound) {
		t.Fatalf("expected not found for unknown candidate, got %v", err)
	}
}

func TestSetNotes(t *testing.T) {
	s := store.NewMemory()
	seedBatch(t, s)
	m := New(s, zap.NewNop())

	if _, err := m.SetNotes(context.Background(), "alice", "b1", "c1", "strong communicator"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := s.GetBatch(context.Background(), "b1")
	if stored.FindCandidate("c1").Notes != "strong communicator" {
		t.Fatal("expected notes to persist")
	}

	// An empty string clears the notes rather than being ignored.
	if _, err := m.SetNotes(context.Background(), "alice", "b1", "c1", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ = s.GetBatch(context.Background(), "b1")
	if stored.FindCandidate("c1").Notes != "" {
		t.Fatal("expected empty notes to clear the field")
	}
}

func TestGetBatchOwnership(t *testing.T) {
	s := store.NewMemory()
	seedBatch(t, s)
	m := New(s, zap.NewNop())

	if _, err := m.GetBatch(context.Background(), "alice", "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.GetBatch(context.Background(), "mallory", "b1"); !errors.Is(err, matching.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := m.GetBatch(context.Background(), "alice", "missing"); !errors.Is(err, matching.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
