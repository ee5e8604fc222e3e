package notify

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobguide/internal/bot"
	"github.com/spigell/jobguide/internal/condition"
	"github.com/spigell/jobguide/internal/listing"
	"github.com/spigell/jobguide/internal/userstore"
)

type stubSearcher struct {
	results map[string][]listing.Scored
	queries []string
}

func (s *stubSearcher) Search(_ context.Context, cond condition.SearchCondition) (*bot.SearchResult, error) {
	s.queries = append(s.queries, cond.OriginalText)
	items, ok := s.results[cond.OriginalText]
	if !ok {
		return nil, errors.New("no such keyword")
	}
	return &bot.SearchResult{Condition: cond, Total: len(items), Results: items}, nil
}

type textParser struct{}

func (textParser) Parse(text string) condition.SearchCondition {
	cond := condition.Empty()
	cond.OriginalText = text
	return cond
}

type recordingNotifier struct {
	mu     sync.Mutex
	pushes map[string][]bot.Reply
	fail   map[string]bool
}

func (n *recordingNotifier) Push(_ context.Context, userID string, messages ...bot.Reply) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail[userID] {
		return errors.New("blocked")
	}
	if n.pushes == nil {
		n.pushes = map[string][]bot.Reply{}
	}
	n.pushes[userID] = append(n.pushes[userID], messages...)
	return nil
}

func scored(id, title string) listing.Scored {
	return listing.Scored{Listing: listing.Listing{ID: id, Title: title, Company: "ACME"}, Score: 80}
}

type fixture struct {
	scheduler *Scheduler
	users     *userstore.FileStore
	searcher  *stubSearcher
	notifier  *recordingNotifier
	logs      *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	users := userstore.NewFileStore(filepath.Join(t.TempDir(), "user_data.json"))
	for _, sr := range []struct{ user, keyword string }{
		{"U1", "python工程師"},
		{"U1", "python工程師"},
		{"U2", "產品經理"},
		{"U2", "python工程師"},
	} {
		if err := users.RecordSearch(ctx, sr.user, sr.keyword); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	searcher := &stubSearcher{results: map[string][]listing.Scored{
		"python工程師": {scored("j1", "Python工程師"), scored("j2", "資深Python工程師")},
		"產品經理":      {scored("j2", "資深Python工程師"), scored("j3", "產品經理")},
	}}
	notifier := &recordingNotifier{fail: map[string]bool{}}

	core, logs := observer.New(zapcore.InfoLevel)
	s, err := New(Config{}, Deps{
		Users:    users,
		Searcher: searcher,
		Parser:   textParser{},
		Notifier: notifier,
		Logger:   zap.New(core),
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return &fixture{scheduler: s, users: users, searcher: searcher, notifier: notifier, logs: logs}
}

func TestSendDigest(t *testing.T) {
	f := newFixture(t)
	f.notifier.fail["U2"] = true

	if err := f.scheduler.SendDigest(context.Background()); err != nil {
		t.Fatalf("digest: %v", err)
	}

	if len(f.searcher.queries) != 2 {
		t.Fatalf("expected a search per popular keyword, got %v", f.searcher.queries)
	}

	messages := f.notifier.pushes["U1"]
	if len(messages) != 2 {
		t.Fatalf("expected header and listings, got %d messages", len(messages))
	}
	if !strings.Contains(messages[0].Text, "python工程師 (3次搜尋)") || !strings.Contains(messages[0].Text, "為你找到 3 個職缺") {
		t.Fatalf("unexpected digest header %q", messages[0].Text)
	}
	for _, id := range []string{"j1", "j2", "j3"} {
		if !strings.Contains(messages[1].Text, "🆔 "+id) {
			t.Fatalf("expected %s in digest listings %q", id, messages[1].Text)
		}
	}

	entries := f.logs.FilterMessage("digest sent").All()
	if len(entries) != 1 || entries[0].ContextMap()["users"] != int64(1) {
		t.Fatalf("expected digest to be sent to one user, got %+v", entries)
	}
}

func TestSendDigestWithoutHistory(t *testing.T) {
	notifier := &recordingNotifier{}
	s, err := New(Config{}, Deps{
		Users:    userstore.NewFileStore(filepath.Join(t.TempDir(), "empty.json")),
		Searcher: &stubSearcher{},
		Parser:   textParser{},
		Notifier: notifier,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SendDigest(context.Background()); err != nil {
		t.Fatalf("digest: %v", err)
	}
	if len(notifier.pushes) != 0 {
		t.Fatalf("expected no pushes")
	}
}

func TestSendRecommendations(t *testing.T) {
	f := newFixture(t)

	if err := f.scheduler.SendRecommendations(context.Background()); err != nil {
		t.Fatalf("recommendations: %v", err)
	}

	u1 := f.notifier.pushes["U1"]
	if len(u1) == 0 || !strings.Contains(u1[0].Text, "「python工程師」") {
		t.Fatalf("unexpected recommendation for U1 %+v", u1)
	}

	// U2 searched both keywords once; the first recorded one wins the tie.
	u2 := f.notifier.pushes["U2"]
	if len(u2) == 0 || !strings.Contains(u2[0].Text, "「產品經理」") {
		t.Fatalf("unexpected recommendation for U2 %+v", u2)
	}
}

func TestSendRecommendationsSkipsInactiveUsers(t *testing.T) {
	f := newFixture(t)
	f.scheduler.now = func() time.Time { return time.Now().AddDate(0, 0, 30) }

	if err := f.scheduler.SendRecommendations(context.Background()); err != nil {
		t.Fatalf("recommendations: %v", err)
	}
	if len(f.notifier.pushes) != 0 {
		t.Fatalf("expected no pushes to inactive users, got %v", f.notifier.pushes)
	}
}

func TestCleanupHistory(t *testing.T) {
	f := newFixture(t)
	f.scheduler.now = func() time.Time { return time.Now().AddDate(0, 0, 31) }

	if err := f.scheduler.CleanupHistory(context.Background()); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	popular, err := f.users.PopularKeywords(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(popular) != 0 {
		t.Fatalf("expected history to be removed, got %v", popular)
	}
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	f := newFixture(t)
	f.scheduler.cfg.Digest = "not a cron spec"

	if err := f.scheduler.Start(context.Background()); err == nil {
		t.Fatalf("expected invalid spec error")
	}
}

func TestStartStop(t *testing.T) {
	f := newFixture(t)

	if err := f.scheduler.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := len(f.scheduler.cron.Entries()); got != 3 {
		t.Fatalf("expected 3 cron entries, got %d", got)
	}
	f.scheduler.Stop()
}

type countingPinger struct {
	calls int
}

func (p *countingPinger) Ping(context.Context) error {
	p.calls++
	return nil
}

func TestStartSchedulesKeepAlive(t *testing.T) {
	f := newFixture(t)
	pinger := &countingPinger{}
	f.scheduler.deps.Pinger = pinger
	f.scheduler.cfg.KeepAlive = "@every 1h"

	if err := f.scheduler.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer f.scheduler.Stop()

	entries := f.scheduler.cron.Entries()
	if len(entries) != 4 {
		t.Fatalf("expected 4 cron entries, got %d", len(entries))
	}
	// Entries are ordered by next run; the keep-alive job was added last.
	for _, e := range entries {
		if e.ID == 4 {
			e.WrappedJob.Run()
		}
	}
	if pinger.calls != 1 {
		t.Fatalf("expected keep-alive job to ping, got %d calls", pinger.calls)
	}
}

func TestNewValidates(t *testing.T) {
	if _, err := New(Config{}, Deps{}); err == nil {
		t.Fatalf("expected missing deps error")
	}
	_, err := New(Config{Timezone: "Mars/Olympus"}, Deps{
		Users:    userstore.Nop{},
		Searcher: &stubSearcher{},
		Parser:   textParser{},
		Notifier: &recordingNotifier{},
	})
	if err == nil {
		t.Fatalf("expected timezone error")
	}
}
