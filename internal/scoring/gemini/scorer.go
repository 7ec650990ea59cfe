package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"talentmatch/internal/logger"
	"talentmatch/internal/matching"
	"talentmatch/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

//go:embed prompt.md
var promptTemplate string

const (
	systemInstruction = "You are a technical recruiter's scoring assistant. " +
		"You compare one candidate document against one job description and " +
		"answer only with the requested JSON object."

	defaultMaxLogLength = 200
)

// Scorer adapts a content generator to the scoring contract.
type Scorer struct {
	generator contentGenerator
	maxLogLen int
	logger    *zap.Logger
}

func NewScorer(generator contentGenerator, maxLogLength int, log *zap.Logger) *Scorer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Scorer{
		generator: generator,
		maxLogLen: maxLogLength,
		logger:    logger.WithFields(log, logger.ScorerFields("gemini", generator.Model())...),
	}
}

func (s *Scorer) Score(ctx context.Context, req matching.ScoreRequest) (*matching.ScoreResult, error) {
	if strings.TrimSpace(req.DocumentText) == "" {
		return nil, fmt.Errorf("document text must not be empty")
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		return nil, fmt.Errorf("job description must not be empty")
	}

	prompt := buildPrompt(req)

	s.logger.Debug("gemini scoring request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("gemini scoring response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	return parseResponse(raw)
}

func buildPrompt(req matching.ScoreRequest) string {
	skills := "none"
	if len(req.ValidatedSkills) > 0 {
		skills = strings.Join(req.ValidatedSkills, ", ")
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{JOB_DESCRIPTION}}", req.JobDescription)
	prompt = strings.ReplaceAll(prompt, "{{VALIDATED_SKILLS}}", skills)
	prompt = strings.ReplaceAll(prompt, "{{DOCUMENT_TEXT}}", req.DocumentText)
	return prompt
}

func parseResponse(raw string) (*matching.ScoreResult, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	score := coerceFloat(data["matchScore"])
	if math.IsNaN(score) {
		score = 0
	}

	return &matching.ScoreResult{
		MatchScore:    matching.ClampScore(int(math.Round(score))),
		Summary:       coerceString(data["summary"]),
		MatchedSkills: coerceStrings(data["matchedSkills"]),
		MissingSkills: coerceStrings(data["missingSkills"]),
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

func coerceStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}

	result := make([]string, 0, len(items))
	for _, item := range items {
		if s := coerceString(item); s != "" {
			result = append(result, s)
		}
	}
	return result
}
