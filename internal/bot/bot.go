// Package bot turns inbound chat messages into replies and background
// searches.
package bot

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobguide/internal/condition"
	"github.com/spigell/jobguide/internal/conversation"
	"github.com/spigell/jobguide/internal/listing"
	"github.com/spigell/jobguide/internal/logger"
	"github.com/spigell/jobguide/internal/metrics"
	"github.com/spigell/jobguide/internal/source"
	"github.com/spigell/jobguide/internal/userstore"
)

const (
	CommandSearch         = "搜尋職缺"
	CommandFavorites      = "我的收藏"
	CommandPopularTags    = "熱門標籤"
	CommandHelp           = "使用說明"
	CommandReset          = "重新開始"
	CommandAddFavorite    = "收藏"
	CommandRemoveFavorite = "取消收藏"

	commandGreeting     = "greeting"
	commandConversation = "conversation"

	popularTagsLimit = 8
)

var greetings = []string{"你好", "hi", "hello", "嗨"}

// Message is an inbound text message.
type Message struct {
	UserID string
	Text   string
}

// Reply is an outbound text with optional quick replies.
type Reply struct {
	Text         string
	QuickReplies []condition.QuickReply
}

// Features toggles the optional subsystems.
type Features struct {
	Favorites     bool `mapstructure:"favorites"`
	Notifications bool `mapstructure:"notifications"`
	AI            bool `mapstructure:"ai"`
}

type Deps struct {
	Conversations *conversation.Manager
	Dispatcher    *Dispatcher
	Users         userstore.Store
	Source        source.Source
	Metrics       metrics.Recorder
	Logger        *zap.Logger
}

type Bot struct {
	features      Features
	conversations *conversation.Manager
	dispatcher    *Dispatcher
	users         userstore.Store
	source        source.Source
	metrics       metrics.Recorder
	logger        *zap.Logger
}

func New(features Features, deps Deps) *Bot {
	b := &Bot{
		features:      features,
		conversations: deps.Conversations,
		dispatcher:    deps.Dispatcher,
		users:         deps.Users,
		source:        deps.Source,
		metrics:       deps.Metrics,
		logger:        logger.WithFields(deps.Logger),
	}
	if b.users == nil {
		b.users = userstore.Nop{}
	}
	if b.source == nil {
		b.source = source.Nop{}
	}
	if b.metrics == nil {
		b.metrics = metrics.Nop{}
	}
	return b
}

// Handle answers a single message. Searches triggered by the message run in
// the background and deliver their results through the Notifier.
func (b *Bot) Handle(ctx context.Context, msg Message) Reply {
	text := strings.TrimSpace(msg.Text)
	command, arg := parseCommand(text)
	log := logger.WithUser(b.logger, msg.UserID, command)
	b.metrics.ObserveCommand(command)

	if err := b.users.Touch(ctx, msg.UserID); err != nil {
		log.Warn("recording interaction", zap.Error(err))
	}

	log.Debug("handling message", zap.String("text", text))

	switch command {
	case CommandSearch:
		if err := b.conversations.Reset(ctx, msg.UserID); err != nil {
			log.Warn("resetting conversation", zap.Error(err))
		}
		return Reply{Text: searchPromptText}
	case CommandFavorites:
		return b.favorites(ctx, log, msg.UserID)
	case CommandPopularTags:
		return b.popularTags(ctx, log)
	case CommandHelp:
		return Reply{Text: helpText, QuickReplies: menu()}
	case commandGreeting:
		return Reply{Text: greetingText, QuickReplies: menu()}
	case CommandReset:
		if err := b.conversations.Reset(ctx, msg.UserID); err != nil {
			log.Error("resetting conversation", zap.Error(err))
			return Reply{Text: internalErrorText}
		}
		return Reply{Text: resetText}
	case CommandAddFavorite:
		return b.addFavorite(ctx, log, msg.UserID, arg)
	case CommandRemoveFavorite:
		return b.removeFavorite(ctx, log, msg.UserID, arg)
	default:
		return b.converse(ctx, log, msg.UserID, text)
	}
}

func parseCommand(text string) (string, string) {
	switch text {
	case CommandSearch, CommandFavorites, CommandPopularTags, CommandHelp, CommandReset:
		return text, ""
	}

	for _, prefix := range []string{CommandRemoveFavorite, CommandAddFavorite} {
		if rest, ok := strings.CutPrefix(text, prefix+" "); ok && strings.TrimSpace(rest) != "" {
			return prefix, strings.TrimSpace(rest)
		}
	}

	lower := strings.ToLower(text)
	for _, g := range greetings {
		if strings.HasPrefix(lower, g) {
			return commandGreeting, ""
		}
	}

	return commandConversation, ""
}

func (b *Bot) converse(ctx context.Context, log *zap.Logger, userID, text string) Reply {
	res, err := b.conversations.Process(ctx, userID, text)
	if err != nil {
		log.Error("processing conversation turn", zap.Error(err))
		return Reply{Text: internalErrorText}
	}

	if !res.Ready() {
		return Reply{Text: res.Text, QuickReplies: res.QuickReplies}
	}

	keyword := res.Condition.JobTitle
	if keyword == "" {
		keyword = res.Condition.OriginalText
	}
	if err := b.users.RecordSearch(ctx, userID, keyword); err != nil {
		log.Warn("recording search", zap.Error(err))
	}

	log.Info("dispatching search",
		zap.String("keyword", keyword),
		zap.Bool("partial", res.Partial),
		zap.Int("turns", res.TurnCount),
	)
	b.dispatcher.Dispatch(userID, res.Condition)

	return Reply{Text: res.Text}
}

func (b *Bot) favorites(ctx context.Context, log *zap.Logger, userID string) Reply {
	if !b.features.Favorites {
		return Reply{Text: favoritesOffText, QuickReplies: menu()}
	}

	favorites, err := b.users.Favorites(ctx, userID)
	if err != nil {
		log.Error("loading favorites", zap.Error(err))
		return Reply{Text: internalErrorText}
	}
	if len(favorites) == 0 {
		return Reply{Text: noFavoritesText, QuickReplies: menu()}
	}

	items := make([]listing.Listing, 0, len(favorites))
	missing := 0
	for _, f := range favorites {
		item, err := b.source.FindByID(ctx, f.JobID)
		if err != nil {
			if !errors.Is(err, source.ErrNotFound) {
				log.Warn("resolving favorite", zap.String(logger.FieldListingID, f.JobID), zap.Error(err))
			}
			missing++
			continue
		}
		items = append(items, *item)
	}

	return Reply{Text: formatFavorites(items, missing), QuickReplies: menu()}
}

func (b *Bot) addFavorite(ctx context.Context, log *zap.Logger, userID, jobID string) Reply {
	if !b.features.Favorites {
		return Reply{Text: favoritesOffText}
	}

	item, err := b.source.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return Reply{Text: "找不到職缺 " + jobID + "，請確認職缺編號。"}
		}
		log.Error("resolving favorite", zap.String(logger.FieldListingID, jobID), zap.Error(err))
		return Reply{Text: internalErrorText}
	}

	err = b.users.AddFavorite(ctx, userID, jobID)
	switch {
	case errors.Is(err, userstore.ErrAlreadyExists):
		return Reply{Text: "「" + item.Title + "」已經在你的收藏裡了。"}
	case err != nil:
		log.Error("adding favorite", zap.String(logger.FieldListingID, jobID), zap.Error(err))
		return Reply{Text: internalErrorText}
	}

	log.Info("favorite added", zap.String(logger.FieldListingID, jobID))
	return Reply{Text: "💾 已收藏「" + item.Title + "」"}
}

func (b *Bot) removeFavorite(ctx context.Context, log *zap.Logger, userID, jobID string) Reply {
	if !b.features.Favorites {
		return Reply{Text: favoritesOffText}
	}

	err := b.users.RemoveFavorite(ctx, userID, jobID)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		return Reply{Text: "你的收藏裡沒有職缺 " + jobID + "。"}
	case err != nil:
		log.Error("removing favorite", zap.String(logger.FieldListingID, jobID), zap.Error(err))
		return Reply{Text: internalErrorText}
	}

	log.Info("favorite removed", zap.String(logger.FieldListingID, jobID))
	return Reply{Text: "🗑️ 已取消收藏職缺 " + jobID}
}

func (b *Bot) popularTags(ctx context.Context, log *zap.Logger) Reply {
	popular, err := b.users.PopularKeywords(ctx, popularTagsLimit)
	if err != nil {
		log.Warn("loading popular keywords", zap.Error(err))
	}

	tags := make([]string, 0, popularTagsLimit)
	for _, k := range popular {
		tags = append(tags, k.Keyword)
	}
	if len(tags) == 0 {
		tags = fallbackTags
	}

	quick := make([]condition.QuickReply, 0, len(tags))
	for _, tag := range tags {
		quick = append(quick, condition.QuickReply{Label: tag, Text: tag})
	}
	return Reply{Text: formatTags(tags), QuickReplies: quick}
}

// Welcome is sent when a user adds the bot.
func (b *Bot) Welcome() Reply {
	return Reply{Text: greetingText, QuickReplies: menu()}
}

// Wait blocks until every background search has finished.
func (b *Bot) Wait() {
	b.dispatcher.Wait()
}
