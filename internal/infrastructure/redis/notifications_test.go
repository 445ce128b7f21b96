package redisinfra

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classkit/api/internal/domain"
)

func newTestCache(t *testing.T, cap int) *UnreadCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewUnreadCache(client, cap)
}

func entry(id int64) domain.CachedNotification {
	return domain.CachedNotification{
		ID:      id,
		Type:    "new_announcement",
		Message: fmt.Sprintf("announcement %d", id),
	}
}

func TestPush_NewestFirst(t *testing.T) {
	c := newTestCache(t, 50)
	ctx := context.Background()

	require.NoError(t, c.Push(ctx, 7, entry(1)))
	require.NoError(t, c.Push(ctx, 7, entry(2)))
	require.NoError(t, c.Push(ctx, 7, entry(3)))

	got, err := c.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
	assert.Equal(t, int64(1), got[2].ID)
}

func TestPush_EvictsOldestBeyondCap(t *testing.T) {
	c := newTestCache(t, 5)
	ctx := context.Background()

	for i := int64(1); i <= 8; i++ {
		require.NoError(t, c.Push(ctx, 7, entry(i)))
	}

	got, err := c.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, int64(8), got[0].ID)
	assert.Equal(t, int64(4), got[4].ID)
}

func TestPush_UsersAreIsolated(t *testing.T) {
	c := newTestCache(t, 50)
	ctx := context.Background()

	require.NoError(t, c.Push(ctx, 7, entry(1)))
	require.NoError(t, c.Push(ctx, 8, entry(2)))

	got7, err := c.List(ctx, 7)
	require.NoError(t, err)
	got8, err := c.List(ctx, 8)
	require.NoError(t, err)
	require.Len(t, got7, 1)
	require.Len(t, got8, 1)
	assert.Equal(t, int64(1), got7[0].ID)
	assert.Equal(t, int64(2), got8[0].ID)
}

func TestRemove_DropsOnlyMatchingEntry(t *testing.T) {
	c := newTestCache(t, 50)
	ctx := context.Background()

	for i := int64(1); i <= 4; i++ {
		require.NoError(t, c.Push(ctx, 7, entry(i)))
	}
	require.NoError(t, c.Remove(ctx, 7, 2))

	got, err := c.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(4), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
	assert.Equal(t, int64(1), got[2].ID)
}

func TestRemove_UnknownID_NoOp(t *testing.T) {
	c := newTestCache(t, 50)
	ctx := context.Background()

	require.NoError(t, c.Push(ctx, 7, entry(1)))
	require.NoError(t, c.Remove(ctx, 7, 999))

	got, err := c.List(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRemove_LastEntry_LeavesEmptyList(t *testing.T) {
	c := newTestCache(t, 50)
	ctx := context.Background()

	require.NoError(t, c.Push(ctx, 7, entry(1)))
	require.NoError(t, c.Remove(ctx, 7, 1))

	got, err := c.List(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClear(t *testing.T) {
	c := newTestCache(t, 50)
	ctx := context.Background()

	require.NoError(t, c.Push(ctx, 7, entry(1)))
	require.NoError(t, c.Push(ctx, 7, entry(2)))
	require.NoError(t, c.Clear(ctx, 7))

	got, err := c.List(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// Many distinct users share the fixed stripe set; mutations must still
// serialize per user and never cross lists.
func TestPush_ConcurrentUsersAcrossStripes(t *testing.T) {
	c := newTestCache(t, 50)
	ctx := context.Background()

	const users = 3 * lockStripes
	var wg sync.WaitGroup
	for uid := int64(1); uid <= users; uid++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			for i := int64(1); i <= 4; i++ {
				assert.NoError(t, c.Push(ctx, uid, entry(uid*10+i)))
			}
		}(uid)
	}
	wg.Wait()

	for uid := int64(1); uid <= users; uid++ {
		got, err := c.List(ctx, uid)
		require.NoError(t, err)
		require.Len(t, got, 4)
		assert.Equal(t, uid*10+4, got[0].ID)
		assert.Equal(t, uid*10+1, got[3].ID)
	}
}

func TestList_SkipsUndecodableEntries(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	c := NewUnreadCache(client, 50)
	ctx := context.Background()

	require.NoError(t, c.Push(ctx, 7, entry(1)))
	_, err := mr.Lpush(unreadKey(7), "not-json")
	require.NoError(t, err)

	got, err := c.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}
