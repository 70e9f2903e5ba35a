package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, now time.Time) (*redisStore, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client).(*redisStore)
	store.now = func() time.Time { return now }
	return store, server
}

func TestStoreTracksSessionsPerAccount(t *testing.T) {
	now := time.Now()
	store, _ := newTestStore(t, now)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "admin", 1, "token-a", now.Add(time.Hour)))
	require.NoError(t, store.Add(ctx, "admin", 1, "token-b", now.Add(2*time.Hour)))
	require.NoError(t, store.Add(ctx, "student", 1, "token-c", now.Add(time.Hour)))

	count, err := store.Count(ctx, "admin", 1)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	active, err := store.IsActive(ctx, "admin", 1, "token-a")
	require.NoError(t, err)
	require.True(t, active)

	active, err = store.IsActive(ctx, "admin", 1, "token-c")
	require.NoError(t, err)
	require.False(t, active)

	require.NoError(t, store.Remove(ctx, "admin", 1, "token-a"))
	count, err = store.Count(ctx, "admin", 1)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, store.Clear(ctx, "admin", 1))
	count, err = store.Count(ctx, "admin", 1)
	require.NoError(t, err)
	require.Zero(t, count)

	count, err = store.Count(ctx, "student", 1)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestStorePrunesExpiredSessionsOnRead(t *testing.T) {
	now := time.Now()
	store, _ := newTestStore(t, now)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "student", 4, "short", now.Add(time.Minute)))
	require.NoError(t, store.Add(ctx, "student", 4, "long", now.Add(time.Hour)))

	store.now = func() time.Time { return now.Add(10 * time.Minute) }

	active, err := store.IsActive(ctx, "student", 4, "short")
	require.NoError(t, err)
	require.False(t, active)

	count, err := store.Count(ctx, "student", 4)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestStoreKeyExpiresWithLatestSession(t *testing.T) {
	now := time.Now()
	store, server := newTestStore(t, now)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "admin", 9, "later", now.Add(2*time.Hour)))
	require.NoError(t, store.Add(ctx, "admin", 9, "sooner", now.Add(time.Hour)))

	ttl := server.TTL("sessions:admin:9")
	require.Greater(t, ttl, 90*time.Minute)
}

func TestStoreAcquireEnforcesLimit(t *testing.T) {
	now := time.Now()
	store, _ := newTestStore(t, now)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "student", 3, "expired", now.Add(-time.Minute)))

	added, err := store.Acquire(ctx, "student", 3, "first", now.Add(time.Hour), 2)
	require.NoError(t, err)
	require.True(t, added)

	added, err = store.Acquire(ctx, "student", 3, "second", now.Add(time.Hour), 2)
	require.NoError(t, err)
	require.True(t, added)

	added, err = store.Acquire(ctx, "student", 3, "third", now.Add(time.Hour), 2)
	require.NoError(t, err)
	require.False(t, added)

	active, err := store.IsActive(ctx, "student", 3, "third")
	require.NoError(t, err)
	require.False(t, active)
}

func TestStoreAcquireIsAtomicUnderConcurrentLogins(t *testing.T) {
	now := time.Now()
	store, _ := newTestStore(t, now)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			added, err := store.Acquire(ctx, "admin", 5, fmt.Sprintf("token-%d", i), now.Add(time.Hour), 2)
			if err != nil || !added {
				return
			}
			mu.Lock()
			accepted++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	require.Equal(t, 2, accepted)
	count, err := store.Count(ctx, "admin", 5)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}
