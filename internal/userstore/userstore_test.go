package userstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func newTestStore(t *testing.T) (*FileStore, *time.Time) {
	t.Helper()
	s := NewFileStore(filepath.Join(t.TempDir(), "user_data.json"))
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestFavorites(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if err := s.AddFavorite(ctx, "U1", "j1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddFavorite(ctx, "U1", "j2"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddFavorite(ctx, "U1", "j1"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	favorites, err := s.Favorites(ctx, "U1")
	if err != nil {
		t.Fatalf("favorites: %v", err)
	}
	if len(favorites) != 2 || favorites[0].JobID != "j1" || favorites[1].JobID != "j2" {
		t.Fatalf("unexpected favorites %+v", favorites)
	}

	if err := s.RemoveFavorite(ctx, "U1", "j1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.RemoveFavorite(ctx, "U1", "j1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// A fresh store reads the same file.
	reopened := NewFileStore(s.path)
	favorites, err = reopened.Favorites(ctx, "U1")
	if err != nil {
		t.Fatalf("favorites: %v", err)
	}
	if len(favorites) != 1 || favorites[0].JobID != "j2" {
		t.Fatalf("unexpected favorites after reopen %+v", favorites)
	}
}

func TestRecordSearchKeepsRecentHistory(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	for i := 0; i < maxHistory+5; i++ {
		if err := s.RecordSearch(ctx, "U1", fmt.Sprintf("kw%d", i)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	d, err := s.load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	history := d.SearchHistory["U1"]
	if len(history) != maxHistory {
		t.Fatalf("expected %d records, got %d", maxHistory, len(history))
	}
	if history[0].Keyword != "kw5" {
		t.Fatalf("expected oldest records to be dropped, first is %q", history[0].Keyword)
	}
	if d.Users["U1"].SearchCount != maxHistory+5 {
		t.Fatalf("unexpected search count %d", d.Users["U1"].SearchCount)
	}
	if len(d.Users["U1"].PreferredKeywords) != maxPreferredKeywords {
		t.Fatalf("expected preferred keywords to be capped, got %d", len(d.Users["U1"].PreferredKeywords))
	}
}

func TestKeywordAggregates(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	searches := []struct{ user, keyword string }{
		{"U1", "Python工程師"},
		{"U1", "python工程師"},
		{"U1", "產品經理"},
		{"U2", "產品經理"},
		{"U2", "Python工程師"},
		{"U3", "UI設計師"},
	}
	for _, sr := range searches {
		if err := s.RecordSearch(ctx, sr.user, sr.keyword); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := s.RecordSearch(ctx, "U3", "  "); err != nil {
		t.Fatalf("blank keyword must be ignored: %v", err)
	}

	popular, err := s.PopularKeywords(ctx, 2)
	if err != nil {
		t.Fatalf("popular: %v", err)
	}
	want := []KeywordCount{{Keyword: "python工程師", Count: 3}, {Keyword: "產品經理", Count: 2}}
	if !reflect.DeepEqual(popular, want) {
		t.Fatalf("expected %+v, got %+v", want, popular)
	}

	preferred, err := s.PreferredKeywords(ctx, "U1", 1)
	if err != nil {
		t.Fatalf("preferred: %v", err)
	}
	if len(preferred) != 1 || preferred[0].Keyword != "Python工程師" || preferred[0].Count != 2 {
		t.Fatalf("unexpected preferred keywords %+v", preferred)
	}

	none, err := s.PreferredKeywords(ctx, "unknown", 3)
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no keywords for unknown user, got %v %v", none, err)
	}
}

func TestActiveUsersAndCleanup(t *testing.T) {
	ctx := context.Background()
	s, now := newTestStore(t)

	if err := s.RecordSearch(ctx, "old", "會計"); err != nil {
		t.Fatal(err)
	}
	*now = now.Add(10 * 24 * time.Hour)
	if err := s.RecordSearch(ctx, "new", "行銷"); err != nil {
		t.Fatal(err)
	}
	if err := s.Touch(ctx, "idle"); err != nil {
		t.Fatal(err)
	}

	active, err := s.ActiveUsers(ctx, now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if !reflect.DeepEqual(active, []string{"idle", "new"}) {
		t.Fatalf("unexpected active users %v", active)
	}

	removed, err := s.Cleanup(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed record, got %d", removed)
	}

	popular, err := s.PopularKeywords(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(popular) != 1 || popular[0].Keyword != "行銷" {
		t.Fatalf("unexpected popular keywords after cleanup %+v", popular)
	}
}

func TestNop(t *testing.T) {
	var s Store = Nop{}
	ctx := context.Background()

	if err := s.AddFavorite(ctx, "U1", "j1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.RemoveFavorite(ctx, "U1", "j1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if favorites, _ := s.Favorites(ctx, "U1"); len(favorites) != 0 {
		t.Fatalf("expected no favorites")
	}
}
