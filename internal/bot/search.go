package bot

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobguide/internal/condition"
	"github.com/spigell/jobguide/internal/filtering"
	"github.com/spigell/jobguide/internal/listing"
	"github.com/spigell/jobguide/internal/scoring"
	"github.com/spigell/jobguide/internal/source"
	"github.com/spigell/jobguide/internal/utils"
)

const (
	defaultFetchLimit = 50
	defaultTopN       = 5
	defaultRetries    = 2
	defaultRetryDelay = time.Second
)

type SearchOptions struct {
	// FetchLimit caps how many listings are requested from the source.
	FetchLimit int `mapstructure:"fetch-limit"`
	// TopN is the number of ranked listings sent to the user.
	TopN       int           `mapstructure:"top-n"`
	Retries    int           `mapstructure:"retries"`
	RetryDelay time.Duration `mapstructure:"retry-delay"`
}

// SearchResult holds a ranked search. Results are the top listings only while
// Total counts every listing that passed the relevance threshold.
type SearchResult struct {
	Condition   condition.SearchCondition
	Query       condition.Query
	Total       int
	Results     []listing.Scored
	Suggestions []string
}

// Searcher runs a condition through the listing source, the filter pipeline
// and the relevance ranking.
type Searcher struct {
	source source.Source
	steps  []filtering.Filter
	opts   SearchOptions
	logger *zap.Logger
}

func NewSearcher(src source.Source, steps []filtering.Filter, opts SearchOptions, logger *zap.Logger) *Searcher {
	if src == nil {
		src = source.Nop{}
	}
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = defaultFetchLimit
	}
	if opts.TopN <= 0 {
		opts.TopN = defaultTopN
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Searcher{source: src, steps: steps, opts: opts, logger: logger}
}

func (s *Searcher) Search(ctx context.Context, cond condition.SearchCondition) (*SearchResult, error) {
	query := condition.FormatSearchConditions(cond)

	var items []listing.Listing
	err := utils.Retry(ctx, s.opts.Retries+1, s.opts.RetryDelay, func(attempt int) error {
		var err error
		items, err = s.source.Search(ctx, query, s.opts.FetchLimit)
		if err != nil {
			s.logger.Warn("listing source failed",
				zap.Int("attempt", attempt),
				zap.String("keyword", query.Keyword),
				zap.Error(err),
			)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}

	s.logger.Info("getting listings", zap.String("keyword", query.Keyword), zap.Int("count", len(items)))

	filtered, err := filtering.Run(ctx, s.logger, s.steps, cond, listing.New(items))
	if err != nil {
		return nil, fmt.Errorf("filtering failed: %w", err)
	}

	ranked := scoring.Rank(filtered.Listings.Values(), cond)
	for i := range ranked {
		if a, ok := filtered.Assessments[ranked[i].ID]; ok {
			ranked[i].AI = a.ToListing()
		}
	}

	result := &SearchResult{
		Condition:   cond,
		Query:       query,
		Total:       len(ranked),
		Suggestions: scoring.Suggestions(query.Keyword, ranked),
	}
	if len(ranked) > s.opts.TopN {
		ranked = ranked[:s.opts.TopN]
	}
	result.Results = ranked

	return result, nil
}

// Steps reports the configured filter steps.
func (s *Searcher) Steps() []filtering.Status {
	return filtering.Describe(s.steps)
}
