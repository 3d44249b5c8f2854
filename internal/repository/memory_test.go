package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySlotLocker(t *testing.T) {
	locker := NewMemorySlotLocker()
	ctx := context.Background()

	t.Run("TryLockAndContend", func(t *testing.T) {
		acquired, err := locker.TryLock(ctx, "slot:1:a", time.Minute)
		require.NoError(t, err)
		assert.True(t, acquired)

		acquired, err = locker.TryLock(ctx, "slot:1:a", time.Minute)
		require.NoError(t, err)
		assert.False(t, acquired)
	})

	t.Run("UnlockReleases", func(t *testing.T) {
		_, err := locker.TryLock(ctx, "slot:2:a", time.Minute)
		require.NoError(t, err)

		require.NoError(t, locker.Unlock(ctx, "slot:2:a"))

		acquired, err := locker.TryLock(ctx, "slot:2:a", time.Minute)
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("ExpiredLockReacquirable", func(t *testing.T) {
		acquired, err := locker.TryLock(ctx, "slot:3:a", -time.Second)
		require.NoError(t, err)
		require.True(t, acquired)

		acquired, err = locker.TryLock(ctx, "slot:3:a", time.Minute)
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("RateLimit", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			allowed, err := locker.Allow(ctx, "client", 2, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, err := locker.Allow(ctx, "client", 2, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
	})
}
