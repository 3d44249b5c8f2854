package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSlotLocker(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	locker := NewRedisSlotLocker(client)
	ctx := context.Background()

	t.Run("TryLockAndContend", func(t *testing.T) {
		acquired, err := locker.TryLock(ctx, "slot:1:2030-06-17T08:00:00Z", time.Minute)
		require.NoError(t, err)
		assert.True(t, acquired)

		acquired, err = locker.TryLock(ctx, "slot:1:2030-06-17T08:00:00Z", time.Minute)
		require.NoError(t, err)
		assert.False(t, acquired)

		// Другой слот блокируется независимо
		acquired, err = locker.TryLock(ctx, "slot:2:2030-06-17T08:00:00Z", time.Minute)
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("UnlockReleases", func(t *testing.T) {
		key := "slot:3:2030-06-17T09:00:00Z"
		acquired, err := locker.TryLock(ctx, key, time.Minute)
		require.NoError(t, err)
		require.True(t, acquired)

		require.NoError(t, locker.Unlock(ctx, key))

		acquired, err = locker.TryLock(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("LockExpires", func(t *testing.T) {
		key := "slot:4:2030-06-17T10:00:00Z"
		acquired, err := locker.TryLock(ctx, key, time.Second)
		require.NoError(t, err)
		require.True(t, acquired)

		s.FastForward(2 * time.Second)

		acquired, err = locker.TryLock(ctx, key, time.Second)
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("RateLimit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			allowed, err := locker.Allow(ctx, "1.2.3.4", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, err := locker.Allow(ctx, "1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(2 * time.Minute)

		allowed, err = locker.Allow(ctx, "1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		nilLocker := NewRedisSlotLocker(nil)
		_, err := nilLocker.TryLock(ctx, "x", time.Minute)
		assert.Error(t, err)
	})
}
