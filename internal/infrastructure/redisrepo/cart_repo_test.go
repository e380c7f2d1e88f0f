package redisrepo

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepo connects to the Redis named by REDIS_ADDR; the tests are
// skipped when none is available.
func newTestRepo(t *testing.T) *CartRepo {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewCartRepo(client)
}

func TestCartRepoRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	const userID = "test-user-roundtrip"
	require.NoError(t, repo.Clear(ctx, userID))

	qty, err := repo.IncrementItem(ctx, userID, "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, qty)

	qty, err = repo.IncrementItem(ctx, userID, "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, qty)

	c, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Quantity("p1"))

	// decrement to zero deletes the field
	qty, err = repo.IncrementItem(ctx, userID, "p1", -5)
	require.NoError(t, err)
	assert.Equal(t, 0, qty)

	c, err = repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.True(t, c.Empty())
}

func TestCartRepoSetRemoveClear(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	const userID = "test-user-set"
	require.NoError(t, repo.Clear(ctx, userID))

	require.NoError(t, repo.SetItem(ctx, userID, "p1", 4))
	require.NoError(t, repo.SetItem(ctx, userID, "p2", 1))

	c, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Quantity("p1"))
	assert.Equal(t, 1, c.Quantity("p2"))

	require.NoError(t, repo.RemoveItem(ctx, userID, "p1"))
	c, _ = repo.Get(ctx, userID)
	assert.Equal(t, 0, c.Quantity("p1"))

	require.NoError(t, repo.Clear(ctx, userID))
	c, _ = repo.Get(ctx, userID)
	assert.True(t, c.Empty())

	// setting zero removes the line instead of storing it
	require.NoError(t, repo.SetItem(ctx, userID, "p3", 0))
	c, _ = repo.Get(ctx, userID)
	assert.True(t, c.Empty())
}
