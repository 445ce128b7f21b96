package redisinfra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classkit/api/internal/domain"
)

func newTestSessionStore(t *testing.T, ttl time.Duration) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionStore(client, ttl), mr
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	s, _ := newTestSessionStore(t, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "tok", 7))
	uid, err := s.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(7), uid)
}

func TestSessionStore_ExpiredSession(t *testing.T) {
	s, mr := newTestSessionStore(t, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "tok", 7))
	mr.FastForward(31 * time.Minute)

	_, err := s.Get(ctx, "tok")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestSessionStore_DeleteRevokes(t *testing.T) {
	s, _ := newTestSessionStore(t, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "tok", 7))
	require.NoError(t, s.Delete(ctx, "tok"))

	_, err := s.Get(ctx, "tok")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}
