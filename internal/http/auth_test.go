package httpapi

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSessionStore(t *testing.T) (*miniredis.Miniredis, *RedisSessionStore) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisSessionStore(client, time.Hour)
}

func TestRedisSessionStore_Verify(t *testing.T) {
	mr, store := setupSessionStore(t)
	mr.Set("session:tok-1", "user-1")

	userID, err := store.Verify(context.Background(), "tok-1")

	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	// 滑动续期
	assert.Equal(t, time.Hour, mr.TTL("session:tok-1"))
}

func TestRedisSessionStore_VerifyUnknownToken(t *testing.T) {
	_, store := setupSessionStore(t)

	userID, err := store.Verify(context.Background(), "missing")

	require.NoError(t, err)
	assert.Empty(t, userID)
}
