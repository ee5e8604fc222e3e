package line

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/spigell/jobguide/internal/bot"
	"github.com/spigell/jobguide/internal/condition"
)

const secret = "test-secret"

type stubHandler struct {
	messages []bot.Message
}

func (h *stubHandler) Handle(_ context.Context, msg bot.Message) bot.Reply {
	h.messages = append(h.messages, msg)
	return bot.Reply{Text: "echo: " + msg.Text}
}

func (h *stubHandler) Welcome() bot.Reply {
	return bot.Reply{Text: "welcome"}
}

type sentReply struct {
	token   string
	replies []bot.Reply
}

type stubReplier struct {
	mu   sync.Mutex
	sent []sentReply
	err  error
}

func (r *stubReplier) Reply(_ context.Context, token string, replies ...bot.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentReply{token: token, replies: replies})
	return r.err
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func callback(t *testing.T, events ...string) []byte {
	t.Helper()
	return []byte(fmt.Sprintf(`{"destination":"Ubot","events":[%s]}`, strings.Join(events, ",")))
}

func textEvent(token, userID, text string) string {
	return fmt.Sprintf(`{"type":"message","mode":"active","timestamp":1700000000000,"webhookEventId":"e-%s","deliveryContext":{"isRedelivery":false},"replyToken":%q,"source":{"type":"user","userId":%q},"message":{"type":"text","id":"1","quoteToken":"q","text":%q}}`,
		token, token, userID, text)
}

func newRequest(body []byte, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewReader(body))
	req.Header.Set("X-Line-Signature", signature)
	return req
}

func TestWebhookDispatchesTextMessages(t *testing.T) {
	handler := &stubHandler{}
	replier := &stubReplier{}
	w := NewWebhook(secret, handler, replier, nil)

	body := callback(t,
		textEvent("t1", "U1", "Python工程師"),
		`{"type":"message","mode":"active","timestamp":1700000000000,"webhookEventId":"e-s","deliveryContext":{"isRedelivery":false},"replyToken":"t2","source":{"type":"user","userId":"U1"},"message":{"type":"sticker","id":"2","quoteToken":"q","packageId":"1","stickerId":"1","stickerResourceType":"STATIC"}}`,
		`{"type":"postback","mode":"active","timestamp":1700000000000,"webhookEventId":"e-p","deliveryContext":{"isRedelivery":false},"replyToken":"t3","source":{"type":"user","userId":"U2"},"postback":{"data":"favorite_j1"}}`,
		`{"type":"follow","mode":"active","timestamp":1700000000000,"webhookEventId":"e-f","deliveryContext":{"isRedelivery":false},"replyToken":"t4","source":{"type":"user","userId":"U3"},"follow":{"isUnblocked":false}}`,
	)

	if err := w.Handle(context.Background(), newRequest(body, sign(body))); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(handler.messages) != 2 {
		t.Fatalf("expected 2 handled messages, got %+v", handler.messages)
	}
	if handler.messages[0] != (bot.Message{UserID: "U1", Text: "Python工程師"}) {
		t.Fatalf("unexpected text message %+v", handler.messages[0])
	}
	if handler.messages[1] != (bot.Message{UserID: "U2", Text: "收藏 j1"}) {
		t.Fatalf("unexpected postback translation %+v", handler.messages[1])
	}

	tokens := make([]string, 0, len(replier.sent))
	for _, s := range replier.sent {
		tokens = append(tokens, s.token)
	}
	if strings.Join(tokens, ",") != "t1,t3,t4" {
		t.Fatalf("unexpected reply tokens %v", tokens)
	}
	if replier.sent[2].replies[0].Text != "welcome" {
		t.Fatalf("expected welcome on follow, got %+v", replier.sent[2])
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	handler := &stubHandler{}
	w := NewWebhook(secret, handler, &stubReplier{}, nil)

	body := callback(t, textEvent("t1", "U1", "hi"))
	err := w.Handle(context.Background(), newRequest(body, sign([]byte("tampered"))))
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
	if len(handler.messages) != 0 {
		t.Fatalf("handler must not run for unsigned requests")
	}
}

func TestWebhookLogsReplyFailures(t *testing.T) {
	handler := &stubHandler{}
	replier := &stubReplier{err: errors.New("expired token")}
	w := NewWebhook(secret, handler, replier, nil)

	body := callback(t, textEvent("t1", "U1", "hi"), textEvent("t2", "U1", "again"))
	if err := w.Handle(context.Background(), newRequest(body, sign(body))); err != nil {
		t.Fatalf("reply failures must not fail the callback: %v", err)
	}
	if len(replier.sent) != 2 {
		t.Fatalf("expected both events to be answered, got %d", len(replier.sent))
	}
}

func TestToMessagesLimits(t *testing.T) {
	quick := make([]condition.QuickReply, 0, 20)
	for i := 0; i < 20; i++ {
		quick = append(quick, condition.QuickReply{Label: fmt.Sprintf("選項%d號非常非常非常長的標籤文字內容", i), Text: fmt.Sprintf("opt-%d", i)})
	}

	replies := []bot.Reply{{Text: "first", QuickReplies: quick}, {Text: ""}}
	for i := 0; i < 6; i++ {
		replies = append(replies, bot.Reply{Text: fmt.Sprintf("msg %d", i)})
	}

	messages := ToMessages(replies...)
	if len(messages) != maxMessages {
		t.Fatalf("expected %d messages, got %d", maxMessages, len(messages))
	}

	first, ok := messages[0].(*messaging_api.TextMessage)
	if !ok {
		t.Fatalf("expected text message, got %T", messages[0])
	}
	if first.QuickReply == nil || len(first.QuickReply.Items) != maxQuickReplies {
		t.Fatalf("expected %d quick replies", maxQuickReplies)
	}
	action, ok := first.QuickReply.Items[0].Action.(*messaging_api.MessageAction)
	if !ok {
		t.Fatalf("expected message action, got %T", first.QuickReply.Items[0].Action)
	}
	if n := len([]rune(action.Label)); n != maxLabelRunes {
		t.Fatalf("expected label truncated to %d runes, got %d", maxLabelRunes, n)
	}
	if action.Text != "opt-0" {
		t.Fatalf("unexpected action text %q", action.Text)
	}

	second := messages[1].(*messaging_api.TextMessage)
	if second.Text != "msg 0" || second.QuickReply != nil {
		t.Fatalf("expected empty replies to be skipped, got %+v", second)
	}
}

func TestClientReplyAndPush(t *testing.T) {
	var (
		mu       sync.Mutex
		requests = map[string]map[string]any{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)

		mu.Lock()
		requests[r.URL.Path] = body
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sentMessages":[]}`))
	}))
	defer srv.Close()

	c, err := NewClient("token", Options{Endpoint: srv.URL}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := context.Background()
	if err := c.Reply(ctx, "reply-token", bot.Reply{Text: "hello", QuickReplies: []condition.QuickReply{{Label: "資深", Text: "資深"}}}); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if err := c.Push(ctx, "U1", bot.Reply{Text: "results"}); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := c.Push(ctx, "U1"); err != nil {
		t.Fatalf("empty push should be a no-op: %v", err)
	}

	reply := requests["/v2/bot/message/reply"]
	if reply == nil || reply["replyToken"] != "reply-token" {
		t.Fatalf("unexpected reply request %v", reply)
	}
	push := requests["/v2/bot/message/push"]
	if push == nil || push["to"] != "U1" {
		t.Fatalf("unexpected push request %v", push)
	}
	messages, _ := push["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("expected one pushed message, got %v", push["messages"])
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient("", Options{}, nil); err == nil {
		t.Fatalf("expected error for empty token")
	}
}
