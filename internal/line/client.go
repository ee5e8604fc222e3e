// Package line adapts the bot to the LINE Messaging API.
package line

import (
	"context"
	"errors"
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"go.uber.org/zap"

	"github.com/spigell/jobguide/internal/bot"
	"github.com/spigell/jobguide/internal/logger"
	"github.com/spigell/jobguide/internal/utils"
)

const (
	maxMessages       = 5
	maxQuickReplies   = 13
	maxLabelRunes     = 20
	maxTextRunes      = 5000
	quickReplyTypeAct = "action"
)

// Client sends replies and pushes through the Messaging API.
type Client struct {
	api    *messaging_api.MessagingApiAPI
	logger *zap.Logger
}

type Options struct {
	// Endpoint overrides the API base URL.
	Endpoint string
}

func NewClient(token string, opts Options, log *zap.Logger) (*Client, error) {
	if token == "" {
		return nil, errors.New("line: channel access token is empty")
	}

	var apiOpts []messaging_api.MessagingApiAPIOption
	if opts.Endpoint != "" {
		apiOpts = append(apiOpts, messaging_api.WithEndpoint(opts.Endpoint))
	}

	api, err := messaging_api.NewMessagingApiAPI(token, apiOpts...)
	if err != nil {
		return nil, fmt.Errorf("create messaging api client: %w", err)
	}

	return &Client{api: api, logger: logger.WithComponent(log, "line")}, nil
}

// Reply answers a webhook event identified by token.
func (c *Client) Reply(ctx context.Context, token string, replies ...bot.Reply) error {
	messages := ToMessages(replies...)
	if len(messages) == 0 {
		return nil
	}

	_, err := c.api.WithContext(ctx).ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: token,
		Messages:   messages,
	})
	if err != nil {
		return fmt.Errorf("reply message: %w", err)
	}
	return nil
}

// Push sends messages to userID outside of a reply window.
func (c *Client) Push(ctx context.Context, userID string, replies ...bot.Reply) error {
	messages := ToMessages(replies...)
	if len(messages) == 0 {
		return nil
	}

	_, err := c.api.WithContext(ctx).PushMessage(&messaging_api.PushMessageRequest{
		To:       userID,
		Messages: messages,
	}, "")
	if err != nil {
		return fmt.Errorf("push message: %w", err)
	}

	c.logger.Debug("pushed messages", zap.String(logger.FieldUserID, userID), zap.Int("count", len(messages)))
	return nil
}

// ToMessages converts replies into text messages within the platform limits:
// at most five messages per call, thirteen quick replies per message and
// twenty characters per quick reply label.
func ToMessages(replies ...bot.Reply) []messaging_api.MessageInterface {
	messages := make([]messaging_api.MessageInterface, 0, len(replies))
	for _, r := range replies {
		if r.Text == "" {
			continue
		}
		if len(messages) == maxMessages {
			break
		}

		msg := &messaging_api.TextMessage{Text: utils.Truncate(r.Text, maxTextRunes)}
		if items := quickReplyItems(r); len(items) > 0 {
			msg.QuickReply = &messaging_api.QuickReply{Items: items}
		}
		messages = append(messages, msg)
	}
	return messages
}

func quickReplyItems(r bot.Reply) []messaging_api.QuickReplyItem {
	items := make([]messaging_api.QuickReplyItem, 0, len(r.QuickReplies))
	for _, q := range r.QuickReplies {
		if len(items) == maxQuickReplies {
			break
		}
		text := q.Text
		if text == "" {
			text = q.Label
		}
		items = append(items, messaging_api.QuickReplyItem{
			Type: quickReplyTypeAct,
			Action: &messaging_api.MessageAction{
				Label: utils.Truncate(q.Label, maxLabelRunes),
				Text:  text,
			},
		})
	}
	return items
}
