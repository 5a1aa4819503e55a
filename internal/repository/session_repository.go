package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/noah-isme/account-console/internal/models"
	appErrors "github.com/noah-isme/account-console/pkg/errors"
)

// sessionKeyPrefix namespaces session entries in Redis.
const sessionKeyPrefix = "console:session:"

// SessionRepository persists console sessions by ID.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, sess *models.Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

func encodeSession(sess *models.Session) ([]byte, error) {
	payload, err := msgpack.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return payload, nil
}

func decodeSession(raw []byte) (*models.Session, error) {
	var sess models.Session
	if err := msgpack.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemorySessionRepository keeps encoded sessions in process memory. Entries
// are evicted lazily on access and by Count.
type MemorySessionRepository struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemorySessionRepository constructs an empty in-memory store.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get returns a copy of the stored session.
func (r *MemorySessionRepository) Get(_ context.Context, id string) (*models.Session, error) {
	r.mu.Lock()
	entry, ok := r.entries[id]
	if ok && !r.now().Before(entry.expiresAt) {
		delete(r.entries, id)
		ok = false
	}
	r.mu.Unlock()

	if !ok {
		return nil, appErrors.ErrSessionNotFound
	}
	return decodeSession(entry.payload)
}

// Save stores sess for ttl, replacing any previous value.
func (r *MemorySessionRepository) Save(_ context.Context, sess *models.Session, ttl time.Duration) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("save session: missing id")
	}
	payload, err := encodeSession(sess)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.entries[sess.ID] = memoryEntry{payload: payload, expiresAt: r.now().Add(ttl)}
	r.mu.Unlock()
	return nil
}

// Delete removes the session; unknown IDs are ignored.
func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
	return nil
}

// Count evicts expired entries and returns the number of live sessions.
func (r *MemorySessionRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, entry := range r.entries {
		if !now.Before(entry.expiresAt) {
			delete(r.entries, id)
		}
	}
	return len(r.entries)
}

// RedisSessionRepository stores msgpack encoded sessions with a Redis TTL.
type RedisSessionRepository struct {
	client *redis.Client
}

// NewRedisSessionRepository constructs a Redis backed store.
func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

// Get loads the session stored under id.
func (r *RedisSessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	raw, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	sess, err := decodeSession(raw)
	if err != nil {
		_ = r.client.Del(ctx, sessionKeyPrefix+id).Err()
		return nil, appErrors.ErrSessionNotFound
	}
	return sess, nil
}

// Save writes the session with the given TTL.
func (r *RedisSessionRepository) Save(ctx context.Context, sess *models.Session, ttl time.Duration) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("save session: missing id")
	}
	payload, err := encodeSession(sess)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+sess.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Delete removes the session key.
func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
