package progress

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const entryTTL = 24 * time.Hour

// Tracker is the side-channel for pipeline progress. Progress is
// monotonically non-decreasing per document; a Set below the recorded value
// is ignored so partial retries never appear to move backwards.
type Tracker interface {
	Set(ctx context.Context, documentID string, progress int, message string)
	Get(ctx context.Context, documentID string) (int, string, bool)
	Clear(ctx context.Context, documentID string)
}

// RedisTracker keeps progress in Redis so status queries survive restarts of
// individual workers. Failures degrade to logging; progress reporting must
// never fail the pipeline.
type RedisTracker struct {
	rdb *redis.Client
}

func NewRedisTracker(rdb *redis.Client) *RedisTracker {
	return &RedisTracker{rdb: rdb}
}

func key(documentID string) string {
	return fmt.Sprintf("pipeline:progress:%s", documentID)
}

func (t *RedisTracker) Set(ctx context.Context, documentID string, progress int, message string) {
	current, _, ok := t.Get(ctx, documentID)
	if ok && progress < current {
		return
	}
	err := t.rdb.HSet(ctx, key(documentID), "progress", progress, "message", message).Err()
	if err != nil {
		log.Printf("[WARN] Failed to record progress for %s: %v", documentID, err)
		return
	}
	t.rdb.Expire(ctx, key(documentID), entryTTL)
}

func (t *RedisTracker) Get(ctx context.Context, documentID string) (int, string, bool) {
	values, err := t.rdb.HGetAll(ctx, key(documentID)).Result()
	if err != nil || len(values) == 0 {
		return 0, "", false
	}
	progress := 0
	fmt.Sscanf(values["progress"], "%d", &progress)
	return progress, values["message"], true
}

func (t *RedisTracker) Clear(ctx context.Context, documentID string) {
	if err := t.rdb.Del(ctx, key(documentID)).Err(); err != nil {
		log.Printf("[WARN] Failed to clear progress for %s: %v", documentID, err)
	}
}

// MemoryTracker is the in-process fallback used when Redis is unavailable
// and in tests.
type MemoryTracker struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	progress int
	message  string
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{entries: make(map[string]memoryEntry)}
}

func (t *MemoryTracker) Set(_ context.Context, documentID string, progress int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.entries[documentID]; ok && progress < existing.progress {
		return
	}
	t.entries[documentID] = memoryEntry{progress: progress, message: message}
}

func (t *MemoryTracker) Get(_ context.Context, documentID string) (int, string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.entries[documentID]
	return entry.progress, entry.message, ok
}

func (t *MemoryTracker) Clear(_ context.Context, documentID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, documentID)
}
