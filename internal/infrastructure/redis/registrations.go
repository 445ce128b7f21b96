package redisinfra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/classkit/api/internal/domain"
)

const pendingKeyPrefix = "pending_user:"

// PendingStore parks registration payloads between submission and email
// confirmation. Entries live under the verification token with the
// registration TTL; natural eviction is the only cleanup for abandoned
// registrations.
type PendingStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPendingStore(client *redis.Client, ttl time.Duration) *PendingStore {
	return &PendingStore{client: client, ttl: ttl}
}

func (s *PendingStore) Save(ctx context.Context, token string, p domain.PendingRegistration) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal pending registration: %w", err)
	}
	return s.client.Set(ctx, pendingKeyPrefix+token, data, s.ttl).Err()
}

// Get returns the pending payload for the token, or domain.ErrNotFound when
// it was never created, already consumed, or evicted by TTL.
func (s *PendingStore) Get(ctx context.Context, token string) (*domain.PendingRegistration, error) {
	data, err := s.client.Get(ctx, pendingKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("pending registration: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var p domain.PendingRegistration
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("unmarshal pending registration: %w", err)
	}
	return &p, nil
}

// Delete removes the entry. Deleting an absent token is not an error, which
// keeps saga cleanup idempotent.
func (s *PendingStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, pendingKeyPrefix+token).Err()
}
