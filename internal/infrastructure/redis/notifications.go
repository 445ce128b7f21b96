package redisinfra

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/classkit/api/internal/domain"
)

const unreadKeyPrefix = "user:"

func unreadKey(userID int64) string {
	return fmt.Sprintf("%s%d:notifications", unreadKeyPrefix, userID)
}

// lockStripes bounds the lock set; one mutex per user would grow without
// limit in a long-lived process.
const lockStripes = 64

// UnreadCache holds the per-user bounded unread-notification projection as a
// Redis list, newest first. Push+trim and remove-by-id are read-modify-write
// sequences on the same key, so all mutations for one user are serialized
// through a striped lock keyed by user id. Users sharing a stripe may
// over-serialize; they never interleave.
type UnreadCache struct {
	client *redis.Client
	cap    int64
	locks  [lockStripes]sync.Mutex
}

func NewUnreadCache(client *redis.Client, cap int) *UnreadCache {
	return &UnreadCache{
		client: client,
		cap:    int64(cap),
	}
}

func (c *UnreadCache) userLock(userID int64) *sync.Mutex {
	return &c.locks[uint64(userID)%lockStripes]
}

// Push prepends the entry to the user's list and trims to the cap, oldest
// evicted first.
func (c *UnreadCache) Push(ctx context.Context, userID int64, entry domain.CachedNotification) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cached notification: %w", err)
	}

	l := c.userLock(userID)
	l.Lock()
	defer l.Unlock()

	key := unreadKey(userID)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, c.cap-1)
		return nil
	})
	return err
}

// List returns the user's cached entries verbatim, newest first. No durable
// store fallback; the projection may lag until the next mutating operation
// reconciles it.
func (c *UnreadCache) List(ctx context.Context, userID int64) ([]domain.CachedNotification, error) {
	raw, err := c.client.LRange(ctx, unreadKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.CachedNotification, 0, len(raw))
	for _, item := range raw {
		var entry domain.CachedNotification
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue // skip undecodable entries rather than fail the read
		}
		out = append(out, entry)
	}
	return out, nil
}

// Remove rewrites the user's list without the entry matching notificationID.
// The read-filter-rewrite runs under the user's lock and the rewrite itself
// inside MULTI/EXEC, so a concurrent Push cannot interleave with it.
func (c *UnreadCache) Remove(ctx context.Context, userID, notificationID int64) error {
	l := c.userLock(userID)
	l.Lock()
	defer l.Unlock()

	key := unreadKey(userID)
	raw, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return err
	}

	kept := make([]interface{}, 0, len(raw))
	for _, item := range raw {
		var entry domain.CachedNotification
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		if entry.ID != notificationID {
			kept = append(kept, item)
		}
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(kept) > 0 {
			pipe.RPush(ctx, key, kept...)
		}
		return nil
	})
	return err
}

// Clear drops the user's entire projection. Used after bulk mark-all-read.
func (c *UnreadCache) Clear(ctx context.Context, userID int64) error {
	l := c.userLock(userID)
	l.Lock()
	defer l.Unlock()
	return c.client.Del(ctx, unreadKey(userID)).Err()
}
