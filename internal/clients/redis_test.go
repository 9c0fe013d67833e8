package clients

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return WrapRedis(rdb, "neg_"), mr
}

func TestRedisClient_PrefixAndTTL(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "runs:1", "payload", time.Hour))
	assert.True(t, mr.Exists("neg_runs:1"))

	got, err := c.Get(ctx, "runs:1")
	require.NoError(t, err)
	assert.Equal(t, "payload", got)

	mr.FastForward(2 * time.Hour)
	_, err = c.Get(ctx, "runs:1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisClient_Sets(t *testing.T) {
	c, _ := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.SAdd(ctx, "run_ids", "a", "b"))
	require.NoError(t, c.SRem(ctx, "run_ids", "a"))

	members, err := c.SMembers(ctx, "run_ids")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, members)
	assert.NoError(t, c.Ping(ctx))
}
