// Package notify runs the scheduled digests, recommendations and history
// cleanup.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spigell/jobguide/internal/bot"
	"github.com/spigell/jobguide/internal/condition"
	"github.com/spigell/jobguide/internal/listing"
	"github.com/spigell/jobguide/internal/logger"
	"github.com/spigell/jobguide/internal/userstore"
)

const (
	defaultDigestSpec    = "0 9 * * *"
	defaultRecommendSpec = "0 18 * * *"
	defaultCleanupSpec   = "0 2 * * *"
	defaultKeepAliveSpec = "@every 14m"
	defaultActiveDays    = 7
	defaultRetentionDays = 30

	digestKeywords    = 3
	digestListings    = 5
	popularSampleSize = 5
)

type Config struct {
	Digest          string `mapstructure:"digest"`
	Recommendations string `mapstructure:"recommendations"`
	Cleanup         string `mapstructure:"cleanup"`
	KeepAlive       string `mapstructure:"keep-alive"`
	KeepAliveURL    string `mapstructure:"keep-alive-url"`
	ActiveDays      int    `mapstructure:"active-days"`
	RetentionDays   int    `mapstructure:"retention-days"`
	// Timezone is an IANA name; empty means the local zone.
	Timezone string `mapstructure:"timezone"`
}

type Searcher interface {
	Search(ctx context.Context, cond condition.SearchCondition) (*bot.SearchResult, error)
}

type Parser interface {
	Parse(text string) condition.SearchCondition
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Users    userstore.Store
	Searcher Searcher
	Parser   Parser
	Notifier bot.Notifier
	// Pinger is optional; the keep-alive job is only scheduled when set.
	Pinger Pinger
	Logger *zap.Logger
}

// Scheduler wraps robfig/cron and owns the notification jobs.
type Scheduler struct {
	cron   *cron.Cron
	cfg    Config
	deps   Deps
	logger *zap.Logger
	now    func() time.Time
}

func New(cfg Config, deps Deps) (*Scheduler, error) {
	if cfg.Digest == "" {
		cfg.Digest = defaultDigestSpec
	}
	if cfg.Recommendations == "" {
		cfg.Recommendations = defaultRecommendSpec
	}
	if cfg.Cleanup == "" {
		cfg.Cleanup = defaultCleanupSpec
	}
	if cfg.KeepAlive == "" {
		cfg.KeepAlive = defaultKeepAliveSpec
	}
	if cfg.ActiveDays <= 0 {
		cfg.ActiveDays = defaultActiveDays
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = defaultRetentionDays
	}
	if deps.Users == nil || deps.Searcher == nil || deps.Parser == nil || deps.Notifier == nil {
		return nil, fmt.Errorf("notify: users, searcher, parser and notifier are required")
	}

	location := time.Local
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", tz, err)
		}
		location = loc
	}

	log := logger.WithComponent(deps.Logger, "notify")
	cronLog := cronLogger{log.Sugar()}

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog)),
		),
		cfg:    cfg,
		deps:   deps,
		logger: log,
		now:    time.Now,
	}, nil
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"digest", s.cfg.Digest, s.SendDigest},
		{"recommendations", s.cfg.Recommendations, s.SendRecommendations},
		{"cleanup", s.cfg.Cleanup, s.CleanupHistory},
	}
	if s.deps.Pinger != nil {
		jobs = append(jobs, struct {
			name string
			spec string
			run  func(context.Context) error
		}{"keep-alive", s.cfg.KeepAlive, s.deps.Pinger.Ping})
	}

	for _, job := range jobs {
		_, err := s.cron.AddFunc(job.spec, func() {
			if err := job.run(ctx); err != nil {
				s.logger.Error("scheduled job failed", zap.String("job", job.name), zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("cron.AddFunc(%s): %w", job.name, err)
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("digest", s.cfg.Digest),
		zap.String("recommendations", s.cfg.Recommendations),
		zap.String("cleanup", s.cfg.Cleanup),
	)
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// SendDigest pushes listings for the most popular keywords to every recently
// active user.
func (s *Scheduler) SendDigest(ctx context.Context) error {
	popular, err := s.deps.Users.PopularKeywords(ctx, popularSampleSize)
	if err != nil {
		return fmt.Errorf("popular keywords: %w", err)
	}
	if len(popular) == 0 {
		s.logger.Info("skipping digest", zap.String("reason", "no popular keywords"))
		return nil
	}
	if len(popular) > digestKeywords {
		popular = popular[:digestKeywords]
	}

	var collected []listing.Scored
	seen := map[string]struct{}{}
	for _, k := range popular {
		result, err := s.deps.Searcher.Search(ctx, s.deps.Parser.Parse(k.Keyword))
		if err != nil {
			s.logger.Warn("digest search failed", zap.String("keyword", k.Keyword), zap.Error(err))
			continue
		}
		for _, item := range result.Results {
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			collected = append(collected, item)
		}
	}
	if len(collected) == 0 {
		s.logger.Info("skipping digest", zap.String("reason", "no listings found"))
		return nil
	}

	total := len(collected)
	if len(collected) > digestListings {
		collected = collected[:digestListings]
	}

	users, err := s.activeUsers(ctx)
	if err != nil {
		return err
	}

	header := digestHeader(popular, total)
	results := bot.FormatResult(&bot.SearchResult{Condition: condition.Empty(), Total: total, Results: collected})
	messages := append([]bot.Reply{{Text: header}}, results[0])

	sent := s.pushAll(ctx, users, func(string) []bot.Reply { return messages })
	s.logger.Info("digest sent", zap.Int("users", sent), zap.Int("listings", len(collected)))
	return nil
}

// SendRecommendations pushes a search for each active user's most frequent
// keyword.
func (s *Scheduler) SendRecommendations(ctx context.Context) error {
	users, err := s.activeUsers(ctx)
	if err != nil {
		return err
	}

	sent := s.pushAll(ctx, users, func(userID string) []bot.Reply {
		log := logger.WithUser(s.logger, userID, "")

		preferred, err := s.deps.Users.PreferredKeywords(ctx, userID, 1)
		if err != nil {
			log.Warn("preferred keywords", zap.Error(err))
			return nil
		}
		if len(preferred) == 0 {
			return nil
		}

		keyword := preferred[0].Keyword
		result, err := s.deps.Searcher.Search(ctx, s.deps.Parser.Parse(keyword))
		if err != nil {
			log.Warn("recommendation search failed", zap.String("keyword", keyword), zap.Error(err))
			return nil
		}
		if len(result.Results) == 0 {
			return nil
		}

		intro := bot.Reply{Text: "🎯 根據你常搜尋的「" + keyword + "」，為你推薦以下職缺："}
		return append([]bot.Reply{intro}, bot.FormatResult(result)...)
	})

	s.logger.Info("recommendations sent", zap.Int("users", sent))
	return nil
}

// CleanupHistory drops search history older than the retention period.
func (s *Scheduler) CleanupHistory(ctx context.Context) error {
	cutoff := s.now().AddDate(0, 0, -s.cfg.RetentionDays)
	removed, err := s.deps.Users.Cleanup(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("cleanup history: %w", err)
	}
	s.logger.Info("history cleaned up", zap.Int("removed", removed), zap.Time("cutoff", cutoff))
	return nil
}

func (s *Scheduler) activeUsers(ctx context.Context) ([]string, error) {
	since := s.now().AddDate(0, 0, -s.cfg.ActiveDays)
	users, err := s.deps.Users.ActiveUsers(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("active users: %w", err)
	}
	return users, nil
}

// pushAll sends the messages built for each user and returns how many users
// received something. Failures are logged per user.
func (s *Scheduler) pushAll(ctx context.Context, users []string, build func(userID string) []bot.Reply) int {
	sent := 0
	for _, userID := range users {
		if ctx.Err() != nil {
			break
		}
		messages := build(userID)
		if len(messages) == 0 {
			continue
		}
		if err := s.deps.Notifier.Push(ctx, userID, messages...); err != nil {
			logger.WithUser(s.logger, userID, "").Warn("push failed", zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

func digestHeader(popular []userstore.KeywordCount, total int) string {
	var b strings.Builder
	b.WriteString("🌅 早安！今日職缺精選\n\n🔥 熱門搜尋：")
	for _, k := range popular {
		fmt.Fprintf(&b, "\n• %s (%d次搜尋)", k.Keyword, k.Count)
	}
	fmt.Fprintf(&b, "\n\n💼 為你找到 %d 個職缺", total)
	return b.String()
}

type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
