package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"

	defaultKeyPrefix = "jobguide:conversation:"
)

// Store keeps one State per user id.
type Store interface {
	Get(ctx context.Context, userID string) (State, bool, error)
	Put(ctx context.Context, userID string, state State) error
	Delete(ctx context.Context, userID string) error
}

// MemoryStore keeps states in process memory. Entries idle for longer than
// the ttl are treated as absent; a zero ttl keeps them forever.
type MemoryStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	states map[string]State
	now    func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:    ttl,
		states: make(map[string]State),
		now:    time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[userID]
	if !ok {
		return State{}, false, nil
	}
	if s.ttl > 0 && s.now().Sub(state.UpdatedAt) > s.ttl {
		delete(s.states, userID)
		return State{}, false, nil
	}
	return state, true, nil
}

func (s *MemoryStore) Put(_ context.Context, userID string, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[userID] = state
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, userID)
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// RedisStore keeps states as JSON values that expire after the ttl. Turns
// are serialised per user only within one process.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

func NewRedisStore(client *redis.Client, ttl time.Duration, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, ttl: ttl, prefix: prefix}
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + userID
}

func (s *RedisStore) Get(ctx context.Context, userID string) (State, bool, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("redis get: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, false, fmt.Errorf("decode conversation state: %w", err)
	}
	return state, true, nil
}

func (s *RedisStore) Put(ctx context.Context, userID string, state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode conversation state: %w", err)
	}
	if err := s.client.Set(ctx, s.key(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
