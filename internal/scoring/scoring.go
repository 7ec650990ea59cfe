package scoring

import (
	"context"

	"talentmatch/internal/matching"
)

// Scorer computes a fit verdict for one document against one job description.
// Calls are independent and safe to retry; any error is recoverable from the
// orchestrator's point of view.
type Scorer interface {
	Score(ctx context.Context, req matching.ScoreRequest) (*matching.ScoreResult, error)
}
