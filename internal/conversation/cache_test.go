package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T, maxMsgs int) (*RecentCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRecentCache(client, maxMsgs, time.Hour), mr
}

func TestRecentCache_AppendAndRecent(t *testing.T) {
	cache, _ := setupCache(t, 20)
	ctx := context.Background()

	require.NoError(t, cache.Append(ctx, NewTurn("u@example.com", RoleUser, "Hello")))
	require.NoError(t, cache.Append(ctx, NewTurn("u@example.com", RoleAssistant, "Hi there!")))

	turns, err := cache.Recent(ctx, "u@example.com", 10)
	require.NoError(t, err)
	assert.Len(t, turns, 2)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, "Hello", turns[0].Content)
	assert.Equal(t, RoleAssistant, turns[1].Role)
}

func TestRecentCache_TrimsToWindow(t *testing.T) {
	cache, _ := setupCache(t, 3)
	ctx := context.Background()

	for _, msg := range []string{"A", "B", "C", "D", "E"} {
		require.NoError(t, cache.Append(ctx, NewTurn("u@example.com", RoleUser, msg)))
	}

	turns, err := cache.Recent(ctx, "u@example.com", 10)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "C", turns[0].Content)
	assert.Equal(t, "E", turns[2].Content)
}

func TestRecentCache_TTLExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cache := NewRecentCache(client, 20, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Append(ctx, NewTurn("u@example.com", RoleUser, "Hello")))
	mr.FastForward(61 * time.Second)

	turns, err := cache.Recent(ctx, "u@example.com", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestRecentCache_Clear(t *testing.T) {
	cache, _ := setupCache(t, 20)
	ctx := context.Background()

	require.NoError(t, cache.Append(ctx, NewTurn("u@example.com", RoleUser, "Hello")))
	require.NoError(t, cache.Clear(ctx, "u@example.com"))

	turns, err := cache.Recent(ctx, "u@example.com", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestRecentCache_IsolatedByUser(t *testing.T) {
	cache, _ := setupCache(t, 20)
	ctx := context.Background()

	require.NoError(t, cache.Append(ctx, NewTurn("a@example.com", RoleUser, "from a")))
	require.NoError(t, cache.Append(ctx, NewTurn("b@example.com", RoleUser, "from b")))

	turns, err := cache.Recent(ctx, "a@example.com", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "from a", turns[0].Content)
}
