package line

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"go.uber.org/zap"

	"github.com/spigell/jobguide/internal/bot"
	"github.com/spigell/jobguide/internal/logger"
)

// favoritePostbackPrefix marks the "save" button on a listing card.
const favoritePostbackPrefix = "favorite_"

// ErrInvalidSignature is returned when the request is not signed with the
// channel secret.
var ErrInvalidSignature = errors.New("line: invalid signature")

type Handler interface {
	Handle(ctx context.Context, msg bot.Message) bot.Reply
	Welcome() bot.Reply
}

type Replier interface {
	Reply(ctx context.Context, token string, replies ...bot.Reply) error
}

// Webhook verifies and dispatches callback requests.
type Webhook struct {
	secret  string
	handler Handler
	replier Replier
	logger  *zap.Logger
}

func NewWebhook(secret string, handler Handler, replier Replier, log *zap.Logger) *Webhook {
	return &Webhook{
		secret:  secret,
		handler: handler,
		replier: replier,
		logger:  logger.WithComponent(log, "webhook"),
	}
}

// Handle parses the callback body and answers every supported event. Only a
// malformed or unsigned request is reported as an error; per event failures
// are logged.
func (w *Webhook) Handle(ctx context.Context, req *http.Request) error {
	cb, err := webhook.ParseRequest(w.secret, req)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			return ErrInvalidSignature
		}
		return fmt.Errorf("parse callback: %w", err)
	}

	for _, event := range cb.Events {
		w.handleEvent(ctx, event)
	}
	return nil
}

func (w *Webhook) handleEvent(ctx context.Context, event webhook.EventInterface) {
	switch e := event.(type) {
	case webhook.MessageEvent:
		text, ok := e.Message.(webhook.TextMessageContent)
		if !ok {
			w.logger.Debug("ignoring non-text message", zap.String("type", e.Message.GetType()))
			return
		}
		userID := sourceUserID(e.Source)
		reply := w.handler.Handle(ctx, bot.Message{UserID: userID, Text: text.Text})
		w.reply(ctx, userID, e.ReplyToken, reply)

	case webhook.PostbackEvent:
		if e.Postback == nil {
			return
		}
		jobID, ok := strings.CutPrefix(e.Postback.Data, favoritePostbackPrefix)
		if !ok || jobID == "" {
			w.logger.Debug("ignoring postback", zap.String("data", e.Postback.Data))
			return
		}
		userID := sourceUserID(e.Source)
		reply := w.handler.Handle(ctx, bot.Message{UserID: userID, Text: bot.CommandAddFavorite + " " + jobID})
		w.reply(ctx, userID, e.ReplyToken, reply)

	case webhook.FollowEvent:
		w.reply(ctx, sourceUserID(e.Source), e.ReplyToken, w.handler.Welcome())

	default:
		w.logger.Debug("ignoring event", zap.String("type", event.GetType()))
	}
}

func (w *Webhook) reply(ctx context.Context, userID, token string, reply bot.Reply) {
	if token == "" {
		return
	}
	if err := w.replier.Reply(ctx, token, reply); err != nil {
		w.logger.Error("reply failed", zap.String(logger.FieldUserID, userID), zap.Error(err))
	}
}

func sourceUserID(src webhook.SourceInterface) string {
	switch s := src.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	}
	return ""
}
