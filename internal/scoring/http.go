package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"talentmatch/internal/matching"
)

const (
	analyzePath = "/analyze"
	contentType = "application/json"

	// DefaultTimeout bounds one scoring call end to end.
	DefaultTimeout = 180 * time.Second
)

// HTTPClient talks to the scoring service over its JSON boundary.
type HTTPClient struct {
	baseURL    string
	logger     *zap.Logger
	HTTPClient *http.Client
}

type analyzeRequest struct {
	ResumeText      string   `json:"resume_text"`
	JDText          string   `json:"jd_text"`
	ValidatedSkills []string `json:"validated_skills"`
}

// NewHTTPClient creates a scoring client for the given base URL.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*HTTPClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("scorer base url is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPClient{
		baseURL: baseURL,
		logger:  logger,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Score posts one document to the analyze endpoint. The context deadline set
// by the caller bounds the call; the client timeout is a backstop.
func (c *HTTPClient) Score(ctx context.Context, req matching.ScoreRequest) (*matching.ScoreResult, error) {
	if strings.TrimSpace(req.DocumentText) == "" {
		return nil, errors.New("document text must not be empty")
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		return nil, errors.New("job description must not be empty")
	}

	skills := req.ValidatedSkills
	if skills == nil {
		skills = []string{}
	}

	payload, err := json.Marshal(analyzeRequest{
		ResumeText:      req.DocumentText,
		JDText:          req.JobDescription,
		ValidatedSkills: skills,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal analyze request: %w", err)
	}

	url := c.baseURL + analyzePath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)

	c.logger.Debug("make scoring request",
		zap.String("url", url),
		zap.Int("document_length", len(req.DocumentText)),
		zap.Int("validated_skills", len(skills)),
	)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("scoring request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the log; the caller only needs the status.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("scoring service returned non-success status",
			zap.String("status", resp.Status),
			zap.ByteString("body", snippet),
		)
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var result matching.ScoreResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode scoring response: %w", err)
	}

	result.MatchScore = matching.ClampScore(result.MatchScore)

	return &result, nil
}
