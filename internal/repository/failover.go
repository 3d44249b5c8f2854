package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// slotLocker is the combined capability the failover wraps.
type slotLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// FailoverSlotLocker prefers Redis and degrades to the in-memory
// locker when Redis fails, retrying the primary after a cooldown.
type FailoverSlotLocker struct {
	primary   slotLocker
	fallback  slotLocker
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

const recoveryInterval = time.Minute

func NewFailoverSlotLocker(primary, fallback slotLocker, logger *zerolog.Logger) *FailoverSlotLocker {
	return &FailoverSlotLocker{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSlotLocker) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary slot locker failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverSlotLocker) primaryUsable() bool {
	if !r.isDown.Load() {
		return true
	}
	if time.Since(time.Unix(0, r.lastCheck.Load())) > recoveryInterval {
		r.lastCheck.Store(time.Now().UnixNano())
		return true
	}
	return false
}

func (r *FailoverSlotLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if r.primaryUsable() {
		acquired, err := r.primary.TryLock(ctx, key, ttl)
		if err == nil {
			r.isDown.Store(false)
			return acquired, nil
		}
		r.markDown(err)
	}
	return r.fallback.TryLock(ctx, key, ttl)
}

func (r *FailoverSlotLocker) Unlock(ctx context.Context, key string) error {
	if r.primaryUsable() {
		err := r.primary.Unlock(ctx, key)
		if err == nil {
			r.isDown.Store(false)
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.Unlock(ctx, key)
}

func (r *FailoverSlotLocker) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.primaryUsable() {
		allowed, err := r.primary.Allow(ctx, key, limit, window)
		if err == nil {
			r.isDown.Store(false)
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.Allow(ctx, key, limit, window)
}
