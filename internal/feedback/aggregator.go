package feedback

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"talentmatch/internal/matching"
)

// Aggregator derives the validated-skill set for a recruiter from their own
// approval history. It is read-only: every call recomputes from the store, so
// a status change is picked up by the next orchestration run.
type Aggregator struct {
	store  matching.Store
	logger *zap.Logger
}

func New(store matching.Store, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{store: store, logger: logger}
}

// CollectValidatedSkills returns the union of matched skills across every
// approved candidate in every batch owned by the recruiter. A recruiter with
// no history gets an empty set, not an error.
func (a *Aggregator) CollectValidatedSkills(ctx context.Context, owner string) (map[string]struct{}, error) {
	batches, err := a.store.ListBatches(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list batches for %q: %w", owner, err)
	}

	skills := make(map[string]struct{})
	for _, batch := range batches {
		for _, candidate := range batch.RankedCandidates {
			if candidate.Status != matching.StatusApproved {
				continue
			}
			for _, skill := range candidate.MatchedSkills {
				skills[skill] = struct{}{}
			}
		}
	}

	a.logger.Debug("collected validated skills",
		zap.String("owner", owner),
		zap.Int("batches", len(batches)),
		zap.Int("skills", len(skills)),
	)

	return skills, nil
}
