package matching

import (
	"context"
	"strings"
	"time"
)

const (
	// DefaultJobTitle is used when a submission does not name the job.
	DefaultJobTitle = "Untitled Job Analysis"

	maxScore = 100
)

// Status is the recruiter-assigned lifecycle state of a candidate.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// ParseStatus validates a raw status value coming from the outside.
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.TrimSpace(raw)) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	default:
		return "", NewValidationError("invalid status value: %q", raw)
	}
}

// Candidate is one scored document inside a batch. MatchScore and the skill
// lists are set once at batch creation; only Status and Notes mutate after.
type Candidate struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	BatchID       string     `gorm:"size:36;index" json:"-"`
	Position      int        `json:"-"`
	FileName      string     `gorm:"not null" json:"fileName"`
	MatchScore    int        `gorm:"not null" json:"matchScore"`
	Summary       string     `gorm:"type:text" json:"summary"`
	MatchedSkills StringList `gorm:"type:text" json:"matchedSkills"`
	MissingSkills StringList `gorm:"type:text" json:"missingSkills"`
	Status        Status     `gorm:"size:16;default:'Pending'" json:"status"`
	Notes         string     `gorm:"type:text" json:"notes"`
}

// JobBatch is one matching run and its persisted ranked outcome. Owner never
// changes after creation. RankedCandidates keeps the persisted rank order;
// position zero is the best match.
type JobBatch struct {
	ID               string      `gorm:"primaryKey;size:36" json:"id"`
	Owner            string      `gorm:"not null;index" json:"owner"`
	JobTitle         string      `json:"jobTitle"`
	JobDescription   string      `gorm:"type:text;not null" json:"jobDescription"`
	RankedCandidates []Candidate `gorm:"foreignKey:BatchID" json:"rankedCandidates"`
	CreatedAt        time.Time   `json:"createdAt"`
}

// FindCandidate returns the candidate with the given id, or nil.
func (b *JobBatch) FindCandidate(id string) *Candidate {
	for i := range b.RankedCandidates {
		if b.RankedCandidates[i].ID == id {
			return &b.RankedCandidates[i]
		}
	}
	return nil
}

// ClampScore bounds a raw score into the 0-100 contract.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

// Document is one uploaded file after text extraction.
type Document struct {
	FileName string
	Text     string
}

// ScoreRequest carries one document to the scorer together with the shared
// per-run inputs.
type ScoreRequest struct {
	DocumentText    string
	JobDescription  string
	ValidatedSkills []string
}

// ScoreResult is the scorer's verdict for one document.
type ScoreResult struct {
	MatchScore    int      `json:"matchScore"`
	Summary       string   `json:"summary"`
	MatchedSkills []string `json:"matchedSkills"`
	MissingSkills []string `json:"missingSkills"`
}

// Store is the persistence boundary. Implementations must serialize
// concurrent writes to the same batch; a batch is saved fully or not at all.
type Store interface {
	CreateBatch(ctx context.Context, batch *JobBatch) error
	GetBatch(ctx context.Context, id string) (*JobBatch, error)
	ListBatches(ctx context.Context, owner string) ([]*JobBatch, error)
	SaveBatch(ctx context.Context, batch *JobBatch) error
}
