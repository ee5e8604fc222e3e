package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobguide/internal/ai"
	"github.com/spigell/jobguide/internal/ai/gemini"
	"github.com/spigell/jobguide/internal/bot"
	"github.com/spigell/jobguide/internal/condition"
	"github.com/spigell/jobguide/internal/conversation"
	"github.com/spigell/jobguide/internal/filtering"
	"github.com/spigell/jobguide/internal/logger"
	"github.com/spigell/jobguide/internal/metrics"
	"github.com/spigell/jobguide/internal/secrets"
	"github.com/spigell/jobguide/internal/source"
	"github.com/spigell/jobguide/internal/userstore"
)

// application holds everything both the webhook server and the console
// need.
type application struct {
	bot       *bot.Bot
	extractor *condition.Extractor
	searcher  *bot.Searcher
	users     userstore.Store
	metrics   *metrics.Metrics
	closers   []func() error
}

func (a *application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func buildApplication(ctx context.Context, config *Config, notifier bot.Notifier, logger *zap.Logger) (*application, error) {
	a := &application{metrics: metrics.New()}

	tokenizer, err := condition.NewTokenizer(config.Extractor.Segmenter)
	if err != nil {
		return nil, err
	}
	a.extractor = condition.NewExtractor(tokenizer)

	store, err := buildConversationStore(ctx, config.Conversation, a)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	src, err := source.New(config.Storage.Source, config.Storage.Jobs)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.users = userstore.Nop{}
	if config.Features.Favorites || config.Features.Notifications {
		a.users = userstore.NewFileStore(config.Storage.UserData)
	}

	steps := prepareFilters(ctx, config, logger)
	if err := filtering.Validate(steps); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("validating filters: %w", err)
	}
	for _, status := range filtering.Describe(steps) {
		logger.Debug("filter configured", zap.String("name", status.Name), zap.Bool("enabled", status.Enabled), zap.String("reason", status.Reason))
	}

	a.searcher = bot.NewSearcher(src, steps, config.Search.SearchOptions, logger)
	dispatcher := bot.NewDispatcher(a.searcher, notifier, logger).WithRecorder(a.metrics)

	a.bot = bot.New(config.Features, bot.Deps{
		Conversations: conversation.NewManager(a.extractor, store, conversation.Options{MaxTurns: config.Conversation.MaxTurns}, logger),
		Dispatcher:    dispatcher,
		Users:         a.users,
		Source:        src,
		Metrics:       a.metrics,
		Logger:        logger,
	})

	return a, nil
}

func buildConversationStore(ctx context.Context, cfg ConversationConfig, a *application) (conversation.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Store)) {
	case "", conversation.StoreMemory:
		return conversation.NewMemoryStore(cfg.TTL), nil
	case conversation.StoreRedis:
		client, err := conversation.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return conversation.NewRedisStore(client, cfg.TTL, cfg.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unsupported conversation store %q", cfg.Store)
	}
}

func prepareFilters(ctx context.Context, config *Config, logger *zap.Logger) []filtering.Filter {
	steps := []filtering.Filter{
		filtering.NewDedup(),
		filtering.NewExcludedCompanies(config.Search.ExcludeCompanies, logger),
		filtering.NewExcludeFile(config.Search.ExcludeFile, logger),
	}

	aiFilter, err := prepareAIFilter(ctx, config.Features.AI, config.AI, logger)
	if err != nil {
		logger.Warn("skipping AI filter", zap.Error(err))
		aiFilter = filtering.NewAIFit(&filtering.AIFitFilterConfig{Enabled: false}, nil)
		aiFilter.Disable(err.Error())
	}

	steps = append(steps, aiFilter)
	for _, name := range config.Search.DisabledFilters {
		filtering.DisableByName(steps, strings.TrimSpace(name), "disabled by search.disabled-filters")
	}
	return steps
}

func prepareAIFilter(ctx context.Context, enabled bool, config *AIConfig, logger *zap.Logger) (filtering.Filter, error) {
	if !enabled {
		return filtering.NewAIFit(&filtering.AIFitFilterConfig{Enabled: false}, nil), nil
	}

	if config == nil || config.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required when ai filter is enabled")
	}

	matcher, model, err := newAIMatcher(ctx, config, logger)
	if err != nil {
		return nil, fmt.Errorf("building ai matcher: %w", err)
	}

	return filtering.NewAIFit(&filtering.AIFitFilterConfig{
		Enabled:     true,
		Provider:    config.Provider,
		MaxListings: config.MaxListings,
		Gemini: &filtering.AIGeminiConfig{
			Model:           model,
			MinimumFitScore: config.MinimumFitScore,
			MaxRetries:      config.Gemini.MaxRetries,
			MaxLogLength:    config.Gemini.MaxLogLength,
		},
	}, &filtering.AIFitFilterDeps{
		Logger:  logger,
		Matcher: matcher,
	}), nil
}

func newAIMatcher(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Matcher, string, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, "", fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		Env:   "GEMINI_API_KEY",
		File:  cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, gemini.GeneratorConfig{
		APIKey:      apiKey,
		Model:       cfg.Gemini.Model,
		Endpoint:    cfg.Gemini.Endpoint,
		Temperature: cfg.Gemini.Temperature,
	})
	if err != nil {
		return nil, "", err
	}

	minScore := cfg.MinimumFitScore
	if minScore < 0 {
		minScore = 0
	}

	matcherLogger := logger.WithFields(
		logger.WithProvider(log, "gemini", generator.Model()),
		zap.Float64("minimum_fit_score", minScore),
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	matcher := gemini.NewMatcher(generator, matcherLogger, gemini.Options{
		MinScore:     minScore,
		MaxRetries:   cfg.Gemini.MaxRetries,
		MaxLogLength: cfg.Gemini.MaxLogLength,
	})

	return matcher, generator.Model(), nil
}
