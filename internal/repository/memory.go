package repository

import (
	"context"
	"sync"
	"time"
)

// MemorySlotLocker is the in-process fallback when Redis is down. It
// protects against races inside one instance only.
type MemorySlotLocker struct {
	mu         sync.Mutex
	locks      map[string]time.Time
	rateLimits sync.Map
}

func NewMemorySlotLocker() *MemorySlotLocker {
	return &MemorySlotLocker{
		locks: make(map[string]time.Time),
	}
}

func (r *MemorySlotLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if expiresAt, held := r.locks[key]; held && now.Before(expiresAt) {
		return false, nil
	}
	r.locks[key] = now.Add(ttl)
	return true, nil
}

func (r *MemorySlotLocker) Unlock(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locks, key)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemorySlotLocker) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(key)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(key, entry)
	return entry.count <= limit, nil
}
