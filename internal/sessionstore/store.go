// Package sessionstore persists a conversation's pending selection between
// turns handled by stateless workers.
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"oyz-trade/internal/assistant"
	apperrors "oyz-trade/internal/common/errors"
)

const (
	KeyPrefix  = "assistant:session:"
	DefaultTTL = 10 * time.Minute
)

// Store loads and saves pending selections by conversation id. A missing
// or expired entry loads as an empty selection.
type Store interface {
	Load(ctx context.Context, conversationID string) (assistant.PendingSelection, error)
	Save(ctx context.Context, conversationID string, pending assistant.PendingSelection) error
}

func Key(conversationID string) string {
	return KeyPrefix + conversationID
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, conversationID string) (assistant.PendingSelection, error) {
	var pending assistant.PendingSelection

	val, err := s.client.Get(ctx, Key(conversationID)).Result()
	if errors.Is(err, redis.Nil) {
		return pending, nil
	}
	if err != nil {
		return pending, apperrors.NewSessionStoreFailedError("get", err)
	}

	// Unreadable state is dropped rather than retried.
	if err := json.Unmarshal([]byte(val), &pending); err != nil {
		return assistant.PendingSelection{}, nil
	}
	return pending, nil
}

// Save stores a non-empty selection with the configured TTL and deletes
// the key otherwise.
func (s *RedisStore) Save(ctx context.Context, conversationID string, pending assistant.PendingSelection) error {
	key := Key(conversationID)

	if pending.Empty() {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return apperrors.NewSessionStoreFailedError("del", err)
		}
		return nil
	}

	data, err := json.Marshal(pending)
	if err != nil {
		return apperrors.NewSessionStoreFailedError("encode", err)
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return apperrors.NewSessionStoreFailedError("set", err)
	}
	return nil
}

type memoryEntry struct {
	pending   assistant.PendingSelection
	expiresAt time.Time
}

// MemoryStore keeps selections in process, for the terminal client and tests.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, entries: map[string]memoryEntry{}}
}

func (s *MemoryStore) Load(_ context.Context, conversationID string) (assistant.PendingSelection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[conversationID]
	if !ok {
		return assistant.PendingSelection{}, nil
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, conversationID)
		return assistant.PendingSelection{}, nil
	}
	return e.pending, nil
}

func (s *MemoryStore) Save(_ context.Context, conversationID string, pending assistant.PendingSelection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pending.Empty() {
		delete(s.entries, conversationID)
		return nil
	}
	var copied assistant.PendingSelection
	copied.Set(pending.Candidates, pending.Purpose)
	s.entries[conversationID] = memoryEntry{pending: copied, expiresAt: s.now().Add(s.ttl)}
	return nil
}
