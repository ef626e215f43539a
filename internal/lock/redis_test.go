package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisLocker_AcquireRelease(t *testing.T) {
	mr, client := setupRedis(t)
	locker := NewRedisLocker(client, "test:")
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "lease:L-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lease:L-1"))

	_, err = locker.Acquire(ctx, "lease:L-1", time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired)

	// Other keys are independent
	other, err := locker.Acquire(ctx, "lease:L-2", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, lease.Release(ctx))
	assert.False(t, mr.Exists("test:lease:L-1"))

	again, err := locker.Acquire(ctx, "lease:L-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestRedisLocker_ExpiredLeaseDoesNotReleaseNewHolder(t *testing.T) {
	mr, client := setupRedis(t)
	locker := NewRedisLocker(client, "test:")
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "run:2024-03", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	fresh, err := locker.Acquire(ctx, "run:2024-03", time.Minute)
	require.NoError(t, err)

	require.NoError(t, stale.Release(ctx))
	assert.True(t, mr.Exists("test:run:2024-03"), "stale release must not drop the new holder's key")

	require.NoError(t, fresh.Release(ctx))
	assert.False(t, mr.Exists("test:run:2024-03"))
}

func TestRedisLocker_ConnectionError(t *testing.T) {
	mr, client := setupRedis(t)
	mr.Close()

	_, err := NewRedisLocker(client, "").Acquire(context.Background(), "k", time.Second)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAcquired)
}

func TestNoop(t *testing.T) {
	ctx := context.Background()

	first, err := Noop{}.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	second, err := Noop{}.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	assert.NoError(t, first.Release(ctx))
	assert.NoError(t, second.Release(ctx))
}
