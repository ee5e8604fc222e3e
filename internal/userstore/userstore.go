// Package userstore persists per-user favorites and search history.
package userstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	maxHistory           = 50
	maxPreferredKeywords = 10
)

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
)

type Store interface {
	Touch(ctx context.Context, userID string) error
	RecordSearch(ctx context.Context, userID, keyword string) error
	AddFavorite(ctx context.Context, userID, jobID string) error
	RemoveFavorite(ctx context.Context, userID, jobID string) error
	Favorites(ctx context.Context, userID string) ([]Favorite, error)
	PopularKeywords(ctx context.Context, limit int) ([]KeywordCount, error)
	PreferredKeywords(ctx context.Context, userID string, limit int) ([]KeywordCount, error)
	ActiveUsers(ctx context.Context, since time.Time) ([]string, error)
	Cleanup(ctx context.Context, olderThan time.Time) (int, error)
}

type User struct {
	FirstInteraction  time.Time      `json:"first_interaction"`
	LastInteraction   time.Time      `json:"last_interaction"`
	SearchCount       int            `json:"search_count"`
	FavoriteCount     int            `json:"favorite_count"`
	PreferredKeywords []KeywordCount `json:"preferred_keywords"`
}

type KeywordCount struct {
	Keyword      string    `json:"keyword"`
	Count        int       `json:"count"`
	LastSearched time.Time `json:"last_searched,omitempty"`
}

type Favorite struct {
	JobID   string    `json:"job_id"`
	AddedAt time.Time `json:"added_at"`
}

type SearchRecord struct {
	Keyword    string    `json:"keyword"`
	SearchedAt time.Time `json:"searched_at"`
}

// Data is the on-disk document.
type Data struct {
	Users         map[string]*User          `json:"users"`
	Favorites     map[string][]Favorite     `json:"favorites"`
	SearchHistory map[string][]SearchRecord `json:"search_history"`
}

func emptyData() *Data {
	return &Data{
		Users:         map[string]*User{},
		Favorites:     map[string][]Favorite{},
		SearchHistory: map[string][]SearchRecord{},
	}
}

// FileStore keeps all user data in a single JSON file. Every operation loads
// the file, applies the change and writes it back under one lock.
type FileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

func (s *FileStore) load() (*Data, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return emptyData(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return emptyData(), nil
	}

	d := emptyData()
	if err := json.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if d.Users == nil {
		d.Users = map[string]*User{}
	}
	if d.Favorites == nil {
		d.Favorites = map[string][]Favorite{}
	}
	if d.SearchHistory == nil {
		d.SearchHistory = map[string][]SearchRecord{}
	}
	return d, nil
}

func (s *FileStore) save(d *Data) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode user data: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".userdata-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) update(ctx context.Context, fn func(d *Data) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(d); err != nil {
		return err
	}
	return s.save(d)
}

func (s *FileStore) view(ctx context.Context, fn func(d *Data)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.load()
	if err != nil {
		return err
	}
	fn(d)
	return nil
}

func (s *FileStore) touch(d *Data, userID string) *User {
	now := s.now().UTC()
	u, ok := d.Users[userID]
	if !ok {
		u = &User{FirstInteraction: now}
		d.Users[userID] = u
	}
	u.LastInteraction = now
	return u
}

// Touch records an interaction, creating the user on first contact.
func (s *FileStore) Touch(ctx context.Context, userID string) error {
	return s.update(ctx, func(d *Data) error {
		s.touch(d, userID)
		return nil
	})
}

// RecordSearch appends keyword to the user's history, keeping the most
// recent entries, and bumps the keyword in the user's preferred list.
func (s *FileStore) RecordSearch(ctx context.Context, userID, keyword string) error {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil
	}

	return s.update(ctx, func(d *Data) error {
		u := s.touch(d, userID)
		now := u.LastInteraction

		history := append(d.SearchHistory[userID], SearchRecord{Keyword: keyword, SearchedAt: now})
		if len(history) > maxHistory {
			history = history[len(history)-maxHistory:]
		}
		d.SearchHistory[userID] = history
		u.SearchCount++

		found := false
		for i := range u.PreferredKeywords {
			if strings.EqualFold(u.PreferredKeywords[i].Keyword, keyword) {
				u.PreferredKeywords[i].Count++
				u.PreferredKeywords[i].LastSearched = now
				found = true
				break
			}
		}
		if !found {
			u.PreferredKeywords = append(u.PreferredKeywords, KeywordCount{Keyword: keyword, Count: 1, LastSearched: now})
		}
		sort.SliceStable(u.PreferredKeywords, func(i, j int) bool {
			return u.PreferredKeywords[i].Count > u.PreferredKeywords[j].Count
		})
		if len(u.PreferredKeywords) > maxPreferredKeywords {
			u.PreferredKeywords = u.PreferredKeywords[:maxPreferredKeywords]
		}
		return nil
	})
}

func (s *FileStore) AddFavorite(ctx context.Context, userID, jobID string) error {
	return s.update(ctx, func(d *Data) error {
		u := s.touch(d, userID)
		for _, f := range d.Favorites[userID] {
			if f.JobID == jobID {
				return fmt.Errorf("favorite %s: %w", jobID, ErrAlreadyExists)
			}
		}
		d.Favorites[userID] = append(d.Favorites[userID], Favorite{JobID: jobID, AddedAt: u.LastInteraction})
		u.FavoriteCount = len(d.Favorites[userID])
		return nil
	})
}

func (s *FileStore) RemoveFavorite(ctx context.Context, userID, jobID string) error {
	return s.update(ctx, func(d *Data) error {
		favorites := d.Favorites[userID]
		kept := favorites[:0:0]
		for _, f := range favorites {
			if f.JobID != jobID {
				kept = append(kept, f)
			}
		}
		if len(kept) == len(favorites) {
			return fmt.Errorf("favorite %s: %w", jobID, ErrNotFound)
		}
		d.Favorites[userID] = kept
		if u, ok := d.Users[userID]; ok {
			u.FavoriteCount = len(kept)
		}
		return nil
	})
}

// Favorites returns the user's favorites in the order they were added.
func (s *FileStore) Favorites(ctx context.Context, userID string) ([]Favorite, error) {
	var favorites []Favorite
	err := s.view(ctx, func(d *Data) {
		favorites = append([]Favorite(nil), d.Favorites[userID]...)
	})
	return favorites, err
}

// PopularKeywords counts keywords over every user's history, case-insensitively.
// Ties are broken alphabetically.
func (s *FileStore) PopularKeywords(ctx context.Context, limit int) ([]KeywordCount, error) {
	counts := map[string]int{}
	err := s.view(ctx, func(d *Data) {
		for _, history := range d.SearchHistory {
			for _, r := range history {
				counts[strings.ToLower(r.Keyword)]++
			}
		}
	})
	if err != nil {
		return nil, err
	}

	result := make([]KeywordCount, 0, len(counts))
	for k, c := range counts {
		result = append(result, KeywordCount{Keyword: k, Count: c})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Keyword < result[j].Keyword
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *FileStore) PreferredKeywords(ctx context.Context, userID string, limit int) ([]KeywordCount, error) {
	var result []KeywordCount
	err := s.view(ctx, func(d *Data) {
		if u, ok := d.Users[userID]; ok {
			result = append(result, u.PreferredKeywords...)
		}
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, err
}

// ActiveUsers returns the ids of users who interacted after since, sorted.
func (s *FileStore) ActiveUsers(ctx context.Context, since time.Time) ([]string, error) {
	var ids []string
	err := s.view(ctx, func(d *Data) {
		for id, u := range d.Users {
			if u.LastInteraction.After(since) {
				ids = append(ids, id)
			}
		}
	})
	sort.Strings(ids)
	return ids, err
}

// Cleanup drops search history recorded before olderThan and returns the
// number of removed records.
func (s *FileStore) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	removed := 0
	err := s.update(ctx, func(d *Data) error {
		for id, history := range d.SearchHistory {
			kept := history[:0:0]
			for _, r := range history {
				if r.SearchedAt.After(olderThan) {
					kept = append(kept, r)
				}
			}
			removed += len(history) - len(kept)
			d.SearchHistory[id] = kept
		}
		return nil
	})
	return removed, err
}

// Nop stores nothing. It backs the bot when favorites are disabled.
type Nop struct{}

func (Nop) Touch(context.Context, string) error { return nil }

func (Nop) RecordSearch(context.Context, string, string) error { return nil }

func (Nop) AddFavorite(context.Context, string, string) error { return nil }

func (Nop) RemoveFavorite(_ context.Context, _, jobID string) error {
	return fmt.Errorf("favorite %s: %w", jobID, ErrNotFound)
}

func (Nop) Favorites(context.Context, string) ([]Favorite, error) { return nil, nil }

func (Nop) PopularKeywords(context.Context, int) ([]KeywordCount, error) { return nil, nil }

func (Nop) PreferredKeywords(context.Context, string, int) ([]KeywordCount, error) {
	return nil, nil
}

func (Nop) ActiveUsers(context.Context, time.Time) ([]string, error) { return nil, nil }

func (Nop) Cleanup(context.Context, time.Time) (int, error) { return 0, nil }
