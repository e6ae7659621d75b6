package redis

import (
	"context"
	"testing"
	"time"

	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	logger.UseNop()

	mr := miniredis.RunT(t)
	client := NewFromRedis(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestClient_SetGetDelete(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.SetWithTTL(ctx, "auth:k", "v", time.Minute))

	val, ok, err := client.Get(ctx, "auth:k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)

	require.NoError(t, client.Delete(ctx, "auth:k"))

	_, ok, err = client.Get(ctx, "auth:k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_ExistsHonoursTTL(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.SetWithTTL(ctx, "auth:ttl", "1", 10*time.Second))

	exists, err := client.Exists(ctx, "auth:ttl")
	require.NoError(t, err)
	assert.True(t, exists)

	mr.FastForward(11 * time.Second)

	exists, err = client.Exists(ctx, "auth:ttl")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestClient_ServerDown(t *testing.T) {
	client, mr := newTestClient(t)
	mr.Close()

	_, err := client.Exists(context.Background(), "auth:any")
	assert.Error(t, err)
	assert.Error(t, client.Ping(context.Background()))
}
