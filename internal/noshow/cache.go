package noshow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// HistoryCache stores derived patient histories keyed by patient id.
// Concurrent Set calls for the same patient may race; the last write wins.
type HistoryCache interface {
	Get(ctx context.Context, patientID uuid.UUID) (PatientNoShowHistory, bool, error)
	Set(ctx context.Context, h PatientNoShowHistory) error
	Invalidate(ctx context.Context, patientID uuid.UUID) error
}

// ---------------------------------------------------------------------------
// In-process cache
// ---------------------------------------------------------------------------

type MemoryCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]PatientNoShowHistory
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[uuid.UUID]PatientNoShowHistory)}
}

func (c *MemoryCache) Get(_ context.Context, patientID uuid.UUID) (PatientNoShowHistory, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.entries[patientID]
	return h, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, h PatientNoShowHistory) error {
	c.mu.Lock()
	c.entries[h.PatientID] = h
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, patientID uuid.UUID) error {
	c.mu.Lock()
	delete(c.entries, patientID)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// ---------------------------------------------------------------------------
// Redis cache
// ---------------------------------------------------------------------------

const redisKeyPrefix = "noshow:history:"

// RedisCache shares histories between API replicas.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func redisKey(patientID uuid.UUID) string {
	return redisKeyPrefix + patientID.String()
}

func (c *RedisCache) Get(ctx context.Context, patientID uuid.UUID) (PatientNoShowHistory, bool, error) {
	raw, err := c.rdb.Get(ctx, redisKey(patientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return PatientNoShowHistory{}, false, nil
	}
	if err != nil {
		return PatientNoShowHistory{}, false, fmt.Errorf("redis get: %w", err)
	}

	var h PatientNoShowHistory
	if err := json.Unmarshal(raw, &h); err != nil {
		return PatientNoShowHistory{}, false, fmt.Errorf("decode cached history: %w", err)
	}
	return h, true, nil
}

func (c *RedisCache) Set(ctx context.Context, h PatientNoShowHistory) error {
	raw, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := c.rdb.Set(ctx, redisKey(h.PatientID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, patientID uuid.UUID) error {
	if err := c.rdb.Del(ctx, redisKey(patientID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
