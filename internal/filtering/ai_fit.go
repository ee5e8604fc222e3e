package filtering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobguide/internal/ai"
	"github.com/spigell/jobguide/internal/condition"
	"github.com/spigell/jobguide/internal/listing"
)

type aiFitFilter struct {
	enabled bool
	reason  string
	config  *AIFitFilterConfig
	deps    *AIFitFilterDeps
}

type AIFitFilterDeps struct {
	Logger  *zap.Logger
	Matcher ai.Matcher
}

type AIFitFilterConfig struct {
	Enabled  bool
	Provider string
	// MaxListings caps how many listings are sent to the provider per search.
	// Listings past the cap are kept without an assessment.
	MaxListings int
	Gemini      *AIGeminiConfig
}

// AIGeminiConfig stores Gemini provider configuration.
type AIGeminiConfig struct {
	Model           string
	MinimumFitScore float64
	MaxRetries      int
	MaxLogLength    int
}

// NewAIFit creates the AI-based filtering step.
func NewAIFit(cfg *AIFitFilterConfig, deps *AIFitFilterDeps) Filter {
	if cfg == nil {
		cfg = &AIFitFilterConfig{}
	}
	return &aiFitFilter{
		enabled: cfg.Enabled,
		deps:    deps,
		config:  cfg,
	}
}

func (f *aiFitFilter) Name() string { return "ai_fit" }

func (f *aiFitFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *aiFitFilter) IsEnabled() bool { return f.enabled }

func (f *aiFitFilter) Validate() error {
	if f.deps == nil || f.deps.Matcher == nil {
		return fmt.Errorf("deps are not initialized: filter is not usable")
	}

	if f.config.Gemini == nil {
		return fmt.Errorf("gemini configuration is required when ai filter is enabled")
	}
	if strings.TrimSpace(f.config.Gemini.Model) == "" {
		return fmt.Errorf("gemini model is required when ai filter is enabled")
	}
	return nil
}

func (f *aiFitFilter) Apply(ctx context.Context, cond condition.SearchCondition, l *listing.Listings) (*listing.Listings, Step, error) {
	initial := l.Len()
	assessments := f.applyMatcher(ctx, cond, l)

	left := l.Len()
	return l, Step{Initial: initial, Dropped: initial - left, Left: left, Assessments: assessments}, nil
}

func (f *aiFitFilter) applyMatcher(ctx context.Context, cond condition.SearchCondition, l *listing.Listings) map[string]*ai.FitAssessment {
	logger := f.deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	initial := l.Len()
	approved := make([]*listing.Listing, 0, initial)
	assessments := make(map[string]*ai.FitAssessment)

	for idx, item := range l.Items {
		if f.config.MaxListings > 0 && idx >= f.config.MaxListings {
			approved = append(approved, item)
			continue
		}

		assessment, err := f.deps.Matcher.Evaluate(ctx, cond, *item)
		if err != nil {
			logger.Warn("AI evaluation failed",
				zap.String("listing_id", item.ID),
				zap.Error(err),
			)
			approved = append(approved, item)
			continue
		}

		if !assessment.Fit {
			logger.Info("listing rejected by AI provider",
				zap.String("listing_id", item.ID),
				zap.Float64("ai_score", assessment.Score),
				zap.String("reason", assessment.Reason),
			)
			continue
		}

		logger.Debug("listing approved by AI",
			zap.String("listing_id", item.ID),
			zap.Float64("ai_score", assessment.Score),
		)

		approved = append(approved, item)
		assessments[item.ID] = assessment
	}

	l.Items = approved

	logger.Info("AI filtering completed",
		zap.Int("initial_listings", initial),
		zap.Int("approved_listings", len(approved)),
	)

	return assessments
}

func (f *aiFitFilter) Status() Status {
	details := map[string]string{}
	if f.config != nil {
		details["max_listings"] = strconv.Itoa(f.config.MaxListings)
		if f.config.Gemini != nil {
			details["model"] = f.config.Gemini.Model
			details["minimum_fit_score"] = fmt.Sprintf("%.2f", f.config.Gemini.MinimumFitScore)
			details["max_retries"] = strconv.Itoa(f.config.Gemini.MaxRetries)
			details["max_log_length"] = strconv.Itoa(f.config.Gemini.MaxLogLength)
		}
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
