package matching

import (
	"errors"
	"fmt"
)

// Sentinel errors for the caller-facing taxonomy. Callers classify with
// errors.Is; the HTTP layer maps them to status codes.
var (
	// ErrValidation marks malformed user input. No retry, no partial work.
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized marks a requester that is not the batch owner. Kept
	// distinct from ErrNotFound.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound marks a batch or candidate id that does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrScoring marks a recoverable per-document scoring failure. The
	// document is dropped from the ranked result; the run still succeeds.
	ErrScoring = errors.New("scoring failure")
)

// NewValidationError builds an error matched by errors.Is(err, ErrValidation).
func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NewScoringError wraps a per-document failure so the orchestrator can
// recognize and drop it.
func NewScoringError(fileName string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrScoring, fileName, err)
}
