package orchestrator

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"talentmatch/internal/matching"
	"talentmatch/internal/scoring"
)

const (
	// DefaultMaxInFlight bounds concurrent scoring calls so a large batch
	// does not overwhelm the scoring service.
	DefaultMaxInFlight = 4
)

// skillCollector is the slice of the feedback aggregator the orchestrator needs.
type skillCollector interface {
	CollectValidatedSkills(ctx context.Context, owner string) (map[string]struct{}, error)
}

// Orchestrator fans one batch of documents out to the scorer and folds the
// survivors into a ranked candidate list.
type Orchestrator struct {
	scorer      scoring.Scorer
	feedback    skillCollector
	logger      *zap.Logger
	maxInFlight int
	callTimeout time.Duration
}

func New(scorer scoring.Scorer, feedback skillCollector, logger *zap.Logger, maxInFlight int, callTimeout time.Duration) *Orchestrator {
	if maxInFlight < 1 {
		maxInFlight = DefaultMaxInFlight
	}
	if callTimeout <= 0 {
		callTimeout = scoring.DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Orchestrator{
		scorer:      scorer,
		feedback:    feedback,
		logger:      logger,
		maxInFlight: maxInFlight,
		callTimeout: callTimeout,
	}
}

type scoredDocument struct {
	index  int
	doc    matching.Document
	result *matching.ScoreResult
}

// RunBatch scores every document against the job description and returns
// candidates ranked by score descending, ties keeping dispatch order. Failed
// documents are dropped; a run where every document fails returns an empty
// list and no error. Empty input is a validation error.
func (o *Orchestrator) RunBatch(ctx context.Context, owner, jobDescription string, docs []matching.Document) ([]matching.Candidate, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return nil, matching.NewValidationError("job description is required")
	}
	if len(docs) == 0 {
		return nil, matching.NewValidationError("at least one document is required")
	}

	// Documents that yielded no text are skipped, not failed: the upload was
	// readable but empty, and the scorer rejects empty input anyway.
	dispatchable := make([]matching.Document, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			o.logger.Warn("skipping document with no extracted text",
				zap.String("owner", owner),
				zap.String("file_name", doc.FileName),
			)
			continue
		}
		dispatchable = append(dispatchable, doc)
	}

	// One history scan per run; every scoring call in the batch shares the
	// same immutable snapshot.
	validated, err := o.feedback.CollectValidatedSkills(ctx, owner)
	if err != nil {
		return nil, err
	}
	validatedSkills := make([]string, 0, len(validated))
	for skill := range validated {
		validatedSkills = append(validatedSkills, skill)
	}
	sort.Strings(validatedSkills)

	o.logger.Info("dispatching batch",
		zap.String("owner", owner),
		zap.Int("documents", len(dispatchable)),
		zap.Int("validated_skills", len(validatedSkills)),
		zap.Int("max_in_flight", o.maxInFlight),
	)

	scored := o.scoreAll(ctx, jobDescription, validatedSkills, dispatchable)

	// Stable sort on the dispatch index keeps equal scores in input order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].result.MatchScore > scored[j].result.MatchScore
	})

	candidates := make([]matching.Candidate, 0, len(scored))
	for _, s := range scored {
		candidates = append(candidates, matching.Candidate{
			ID:            uuid.NewString(),
			FileName:      s.doc.FileName,
			MatchScore:    matching.ClampScore(s.result.MatchScore),
			Summary:       s.result.Summary,
			MatchedSkills: s.result.MatchedSkills,
			MissingSkills: s.result.MissingSkills,
			Status:        matching.StatusPending,
		})
	}

	o.logger.Info("batch completed",
		zap.String("owner", owner),
		zap.Int("scored", len(candidates)),
		zap.Int("dropped", len(dispatchable)-len(candidates)),
	)

	return candidates, nil
}

// scoreAll runs one scoring call per document under a worker limit. Every
// dispatched call resolves before the function returns; a failed call only
// loses its own document.
func (o *Orchestrator) scoreAll(ctx context.Context, jobDescription string, validatedSkills []string, docs []matching.Document) []scoredDocument {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		scored  []scoredDocument
		workers = make(chan struct{}, o.maxInFlight)
	)

	for i, doc := range docs {
		wg.Add(1)
		workers <- struct{}{}

		go func(index int, doc matching.Document) {
			defer wg.Done()
			defer func() { <-workers }()

			callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
			defer cancel()

			result, err := o.scorer.Score(callCtx, matching.ScoreRequest{
				DocumentText:    doc.Text,
				JobDescription:  jobDescription,
				ValidatedSkills: validatedSkills,
			})
			if err != nil {
				o.logger.Warn("scoring failed for document",
					zap.String("file_name", doc.FileName),
					zap.Error(matching.NewScoringError(doc.FileName, err)),
				)
				return
			}

			mu.Lock()
			scored = append(scored, scoredDocument{index: index, doc: doc, result: result})
			mu.Unlock()
		}(i, doc)
	}

	wg.Wait()

	// Completion order is nondeterministic; restore dispatch order before
	// the stable ranking sort.
	sort.Slice(scored, func(i, j int) bool { return scored[i].index < scored[j].index })

	return scored
}
