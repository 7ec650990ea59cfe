package matching

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    Status
		wantErr bool
	}{
		{name: "pending", raw: "Pending", want: StatusPending},
		{name: "approved", raw: "Approved", want: StatusApproved},
		{name: "rejected", raw: "Rejected", want: StatusRejected},
		{name: "surrounding whitespace", raw: "  Approved  ", want: StatusApproved},
		{name: "wrong case", raw: "approved", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "unknown", raw: "Archived", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseStatus(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.raw)
				}
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestClampScore(t *testing.T) {
	cases := []struct {
		score int
		want  int
	}{
		{score: -5, want: 0},
		{score: 0, want: 0},
		{score: 42, want: 42},
		{score: 100, want: 100},
		{score: 150, want: 100},
	}

	for _, tc := range cases {
		if got := ClampScore(tc.score); got != tc.want {
			t.Fatalf("ClampScore(%d) = %d, expected %d", tc.score, got, tc.want)
		}
	}
}

func TestFindCandidate(t *testing.T) {
	batch := &JobBatch{
		RankedCandidates: []Candidate{
			{ID: "a", FileName: "first.pdf"},
			{ID: "b", FileName: "second.pdf"},
		},
	}

	found := batch.FindCandidate("b")
	if found == nil {
		t.Fatal("expected candidate to be found")
	}
	if found.FileName != "second.pdf" {
		t.Fatalf("unexpected candidate: %+v", found)
	}

	// The pointer must address the batch's own slice so edits stick.
	found.Notes = "strong fit"
	if batch.RankedCandidates[1].Notes != "strong fit" {
		t.Fatal("expected edit through the returned pointer to persist")
	}

	if batch.FindCandidate("missing") != nil {
		t.Fatal("expected nil for unknown candidate id")
	}
}

func TestScoringErrorClassification(t *testing.T) {
	err := NewScoringError("resume.pdf", errors.New("bad status: 500"))
	if !errors.Is(err, ErrScoring) {
		t.Fatalf("expected scoring error, got %v", err)
	}
	if errors.Is(err, ErrValidation) {
		t.Fatal("scoring error must not match the validation sentinel")
	}
}
