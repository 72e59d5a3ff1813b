package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/vikashrahii/pipeline/pkg/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_MutualExclusion(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "text-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:text-1"))

	// A second holder times out while the first holds the lock.
	waitCtx, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "text-1", time.Minute)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:text-1"))

	unlock2, err := locker.Lock(ctx, "text-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLocker_UnlockDoesNotReleaseForeignLock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "n", time.Minute)
	require.NoError(t, err)

	// Simulate expiry and takeover by another process.
	mr.Set("test:lock:n", "someone-else")

	require.NoError(t, unlock(ctx))
	got, err := mr.Get("test:lock:n")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}
