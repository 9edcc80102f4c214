package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atrium/config"
	"atrium/internal/domain/service"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := NewRedisClient(config.RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client), mr
}

func stores(t *testing.T) map[string]service.StateStore {
	t.Helper()

	redisStore, _ := newRedisStore(t)

	return map[string]service.StateStore{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
	}
}

func TestStateStore_IncrCountsWithinWindow(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for want := int64(1); want <= 3; want++ {
				count, remaining, err := store.Incr(ctx, "rl:login:alice", 60_000)
				require.NoError(t, err)
				assert.Equal(t, want, count)
				assert.Positive(t, remaining)
				assert.LessOrEqual(t, remaining, int64(60_000))
			}

			// Independent key counts separately.
			count, _, err := store.Incr(ctx, "rl:login:bob", 60_000)
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})
	}
}

func TestStateStore_SetGetDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := store.Get(ctx, "oauth:state:missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(ctx, "oauth:state:abc", "google", 60_000))

			value, ok, err := store.Get(ctx, "oauth:state:abc")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "google", value)

			require.NoError(t, store.Delete(ctx, "oauth:state:abc"))
			_, ok, err = store.Get(ctx, "oauth:state:abc")
			require.NoError(t, err)
			assert.False(t, ok)

			// Deleting an absent key is not an error.
			require.NoError(t, store.Delete(ctx, "oauth:state:abc"))
		})
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "key", "value", 1_000))
	count, _, err := store.Incr(ctx, "counter", 1_000)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	now = now.Add(2 * time.Second)

	_, ok, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)

	// The expired window restarts from one.
	count, remaining, err := store.Incr(ctx, "counter", 1_000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, int64(1_000), remaining)
}

func TestRedisStore_Expiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "key", "value", 1_000))
	count, _, err := store.Incr(ctx, "counter", 1_000)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	mr.FastForward(2 * time.Second)

	_, ok, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)

	count, _, err = store.Incr(ctx, "counter", 1_000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
