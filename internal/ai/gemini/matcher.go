package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/jobguide/internal/ai"
	"github.com/spigell/jobguide/internal/condition"
	"github.com/spigell/jobguide/internal/listing"
	"github.com/spigell/jobguide/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

type Matcher struct {
	generator  contentGenerator
	minScore   float64
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
	maxLogLen  int
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200
	defaultRetryDelay   = 2 * time.Second
	maxUserTextRunes    = 300
)

// Options tune the matcher. Zero values select defaults.
type Options struct {
	MinScore     float64
	MaxRetries   int
	RetryDelay   time.Duration
	MaxLogLength int
}

func NewMatcher(generator contentGenerator, logger *zap.Logger, opts Options) *Matcher {
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Matcher{
		generator:  generator,
		minScore:   opts.MinScore,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		logger:     logger,
		maxLogLen:  opts.MaxLogLength,
	}
}

func (m *Matcher) Evaluate(ctx context.Context, cond condition.SearchCondition, l listing.Listing) (*ai.FitAssessment, error) {
	if strings.TrimSpace(l.ID) == "" {
		return nil, fmt.Errorf("listing id is required")
	}

	conditionJSON, err := json.MarshalIndent(cond, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal condition payload: %w", err)
	}

	listingJSON, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal listing payload: %w", err)
	}

	prompt := buildPrompt(string(conditionJSON), sanitizeUserText(cond.OriginalText), string(listingJSON))

	log := m.logger.With(zap.String("listing_id", l.ID))
	log.Debug("prompt ready",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, m.maxLogLen)),
	)

	raw, err := m.generate(ctx, log, prompt)
	if err != nil {
		return nil, err
	}

	log.Debug("answer received",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, m.maxLogLen)),
	)

	assessment, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	if m.minScore > 0 && assessment.Score < m.minScore {
		log.Debug("score below threshold, not a fit",
			zap.Float64("score", assessment.Score),
			zap.Float64("threshold", m.minScore),
		)
		assessment.Fit = false
	}

	assessment.Raw = raw
	return assessment, nil
}

func (m *Matcher) generate(ctx context.Context, log *zap.Logger, prompt string) (string, error) {
	var raw string
	err := utils.Retry(ctx, m.maxRetries+1, m.retryDelay, func(attempt int) error {
		if attempt > 1 {
			log.Info("retrying gemini request", zap.Int("attempt", attempt))
		}
		var err error
		raw, err = m.generator.GenerateContent(ctx, prompt)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("gemini request failed after %d attempts: %w", m.maxRetries+1, err)
	}
	return raw, nil
}

func buildPrompt(conditionJSON, userText, listingJSON string) string {
	return strings.NewReplacer(
		"{{CONDITION_JSON}}", conditionJSON,
		"{{USER_TEXT}}", userText,
		"{{LISTING_JSON}}", listingJSON,
	).Replace(promptTemplate)
}

// sanitizeUserText flattens the user's words into a single line. Square
// brackets are swapped for parentheses so the text cannot pose as a role tag.
func sanitizeUserText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "none"
	}
	s = strings.NewReplacer("[", "(", "]", ")", "{{", "(", "}}", ")").Replace(s)
	if runes := []rune(s); len(runes) > maxUserTextRunes {
		s = string(runes[:maxUserTextRunes])
	}
	return s
}

// verdict is the answer shape requested by the prompt. Models are not strict
// about types, so each field accepts the usual variants.
type verdict struct {
	Fit     looseBool   `json:"fit"`
	Score   looseFloat  `json:"score"`
	Reason  looseString `json:"reason"`
	Message looseString `json:"message"`
}

func parseResponse(raw string) (*ai.FitAssessment, error) {
	var v verdict
	if err := json.Unmarshal([]byte(extractJSON(raw)), &v); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	return &ai.FitAssessment{
		Fit:     bool(v.Fit),
		Score:   float64(v.Score),
		Reason:  string(v.Reason),
		Message: string(v.Message),
	}, nil
}

// extractJSON strips markdown fences and any prose around the outermost object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(raw, "```"); ok {
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.LastIndex(rest, "```"); end != -1 {
			rest = rest[:end]
		}
		raw = strings.TrimSpace(rest)
	}

	start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case bool:
		*b = looseBool(val)
	case float64:
		*b = val != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "yes", "是":
			*b = true
		default:
			*b = false
		}
	default:
		*b = false
	}
	return nil
}

// looseFloat decodes numbers and numeric strings; anything else is zero.
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = 0
	switch val := v.(type) {
	case float64:
		*f = looseFloat(val)
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil && !math.IsNaN(parsed) {
			*f = looseFloat(parsed)
		}
	}
	return nil
}

// looseString keeps strings as they are and re-encodes other values as JSON.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = looseString(strings.TrimSpace(str))
		return nil
	}
	if string(data) == "null" {
		*s = ""
		return nil
	}
	*s = looseString(data)
	return nil
}
